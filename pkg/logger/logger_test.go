package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizedEmail(t *testing.T) {
	assert.Equal(t, "j***@****.com", SanitizedEmail("juan@muni.com"))
	assert.Equal(t, "a@*******.org", SanitizedEmail("a@example.org"))
	assert.Equal(t, "[invalid-email]", SanitizedEmail("not-an-email"))
}

func TestSanitizeQueryString(t *testing.T) {
	assert.True(t, SanitizeQueryString("code=abc&state=x"))
	assert.True(t, SanitizeQueryString("Email=a@b.c"))
	assert.False(t, SanitizeQueryString("q=lamp"))
	assert.False(t, SanitizeQueryString(""))
}

func captureAudit(t *testing.T, fn func(*AuditLogger)) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	fn(NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil))))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestAuditLogger_LogAuthAttemptMasksEmail(t *testing.T) {
	line := captureAudit(t, func(al *AuditLogger) {
		al.LogAuthAttempt(AuditEvent{EventType: "login", Email: "juan@muni.com", Success: false, FailureReason: "invalid_credentials"})
	})

	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "j***@****.com", line["email"])
	assert.Equal(t, "invalid_credentials", line["failure_reason"])
}

func TestAuditLogger_LogComplaintEvent(t *testing.T) {
	line := captureAudit(t, func(al *AuditLogger) {
		al.LogComplaintEvent(ComplaintEvent{
			EventType: "transitioned", ComplaintID: "c1", ActorID: "a1",
			StateBefore: "pending", StateAfter: "in_progress",
		})
	})

	assert.Equal(t, "complaint", line["audit_type"])
	assert.Equal(t, "pending", line["state_before"])
	assert.Equal(t, "in_progress", line["state_after"])
}
