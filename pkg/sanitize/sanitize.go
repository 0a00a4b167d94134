// Package sanitize strips markup from user supplied text before it is stored.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// maxPasses bounds the decode/sanitize loop for nested entity encodings
const maxPasses = 5

var strict = bluemonday.StrictPolicy()

// Text returns s as plain text with every HTML tag removed and trimmed.
// Entities are decoded and the result sanitized again until it is stable,
// so entity-encoded markup cannot come back as live tags. Input that is still
// changing after maxPasses is returned in bluemonday's escaped form.
func Text(s string) string {
	for i := 0; i < maxPasses; i++ {
		next := html.UnescapeString(strict.Sanitize(s))
		if next == s {
			return strings.TrimSpace(s)
		}
		s = next
	}
	return strings.TrimSpace(strict.Sanitize(s))
}
