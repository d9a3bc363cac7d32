// Package sessions keeps the snapshot of who is logged in, keyed by an
// opaque session id.
package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/neuralsys/fleetdesk/internal/auth/domain"
)

var ErrNotFound = errors.New("sessions: not found")

// Store is a keyed session store. Implementations must be safe for
// concurrent use.
type Store interface {
	// Put stores snap under id, replacing any previous entry. The entry
	// expires after ttl.
	Put(ctx context.Context, id string, snap domain.Snapshot, ttl time.Duration) error

	// Get returns the snapshot for id, or ErrNotFound when it is missing or
	// has expired.
	Get(ctx context.Context, id string) (domain.Snapshot, error)

	// Delete removes id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// Sweep removes expired entries and reports how many were removed.
	Sweep(ctx context.Context) (int, error)

	Ping(ctx context.Context) error
	Close() error
}
