package slogx

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	requestIDMu      sync.Mutex
	requestIDEntropy = ulid.Monotonic(rand.Reader, 0)
)

// NewRequestID returns a time-sortable ULID for correlating log lines.
func NewRequestID() string {
	requestIDMu.Lock()
	defer requestIDMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), requestIDEntropy).String()
}
