package auth

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// FailureDelay pads failed credential checks to a minimum duration plus jitter,
// so an unknown email and a wrong password take about the same time.
type FailureDelay struct {
	base   time.Duration
	jitter time.Duration
}

func NewFailureDelay(base, jitter time.Duration) *FailureDelay {
	return &FailureDelay{base: base, jitter: jitter}
}

// cryptoRandDuration returns a random duration in [0, max)
func cryptoRandDuration(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}

	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	return time.Duration(binary.BigEndian.Uint64(b[:]) % uint64(max))
}

// WaitFrom sleeps until at least base+jitter has elapsed since start.
// A nil FailureDelay does not wait.
func (d *FailureDelay) WaitFrom(start time.Time) {
	if d == nil {
		return
	}

	target := d.base + cryptoRandDuration(d.jitter)
	if elapsed := time.Since(start); elapsed < target {
		time.Sleep(target - elapsed)
	}
}
