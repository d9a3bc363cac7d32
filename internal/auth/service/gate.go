package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/neuralsys/fleetdesk/internal/auth/domain"
	"github.com/neuralsys/fleetdesk/internal/auth/sessions"
	"github.com/neuralsys/fleetdesk/pkg/cryptox"
	"github.com/neuralsys/fleetdesk/pkg/slogx"
)

type GateState string

const (
	StateAnonymous          GateState = "anonymous"
	StateAwaitingFirstAdmin GateState = "awaiting_first_admin"
	StateAwaitingCreds      GateState = "awaiting_credentials"
	StateAuthenticated      GateState = "authenticated"
)

// GateError is returned by Require when there is no live session. State
// tells the caller which flow to present.
type GateError struct {
	State GateState
}

func (e *GateError) Error() string {
	return fmt.Sprintf("session required: %s", e.State)
}

const DefaultSessionTTL = 12 * time.Hour

// SessionGate decides whether a caller is logged in and drives the login,
// logout and first-admin flows.
type SessionGate struct {
	Directory *DirectoryService
	Bootstrap *BootstrapService
	Sessions  sessions.Store
	TTL       time.Duration

	now func() time.Time
}

// Require returns the snapshot for a live session. Without one it returns a
// *GateError carrying awaiting_first_admin or awaiting_credentials.
func (g *SessionGate) Require(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	if sessionID != "" {
		snap, err := g.Sessions.Get(ctx, sessionID)
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, sessions.ErrNotFound) {
			return domain.Snapshot{}, fmt.Errorf("%w: %w", ErrStorage, err)
		}
	}

	empty, err := g.Directory.IsEmpty(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if empty {
		return domain.Snapshot{}, &GateError{State: StateAwaitingFirstAdmin}
	}
	return domain.Snapshot{}, &GateError{State: StateAwaitingCreds}
}

func (g *SessionGate) State(ctx context.Context, sessionID string) (GateState, error) {
	_, err := g.Require(ctx, sessionID)
	if err == nil {
		return StateAuthenticated, nil
	}

	var gerr *GateError
	if errors.As(err, &gerr) {
		return gerr.State, nil
	}
	return "", err
}

// Login verifies the credentials and opens a session. Every rejection is
// reported as ErrInvalidCredentials so callers cannot enumerate accounts.
func (g *SessionGate) Login(ctx context.Context, identifier, password string) (string, domain.Snapshot, error) {
	log := slogx.FromContext(ctx)

	a, err := g.Directory.Authenticate(ctx, identifier, password)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInactive), errors.Is(err, ErrInvalidCredentials):
		log.Info("login rejected", slog.String("reason", err.Error()))
		return "", domain.Snapshot{}, ErrInvalidCredentials
	case err != nil:
		return "", domain.Snapshot{}, err
	}

	sid, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", domain.Snapshot{}, err
	}

	snap := a.Snapshot()
	snap.IssuedAt = g.clock().UTC()
	if err := g.Sessions.Put(ctx, sid, snap, g.ttl()); err != nil {
		return "", domain.Snapshot{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	log.Info("login succeeded",
		slog.String("handle", snap.Handle),
		slog.String("session", cryptox.FingerprintToken(sid)),
	)
	return sid, snap, nil
}

// Logout discards the session. Unknown ids are ignored.
func (g *SessionGate) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := g.Sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

// CreateFirstAdmin creates the first administrator. No session is opened;
// the gate goes back to anonymous and the admin logs in normally.
func (g *SessionGate) CreateFirstAdmin(ctx context.Context, in domain.FirstAdmin) (domain.AccountSummary, GateState, error) {
	a, err := g.Bootstrap.CreateFirstAdmin(ctx, in)
	if err != nil {
		return domain.AccountSummary{}, "", err
	}
	return a, StateAnonymous, nil
}

func (g *SessionGate) ttl() time.Duration {
	if g.TTL <= 0 {
		return DefaultSessionTTL
	}
	return g.TTL
}

func (g *SessionGate) clock() time.Time {
	if g.now != nil {
		return g.now()
	}
	return time.Now()
}
