package ports

import (
	"context"
	"time"

	"github.com/aretw0/funnel/pkg/domain"
)

// StateStore keeps one State snapshot per session ID.
// Snapshots are immutable once handed to Save; stores may keep or serialize them as they like
// but must return an independent copy from Load.
type StateStore interface {
	Save(ctx context.Context, sessionID string, state *domain.State) error
	// Load fails with domain.ErrSessionNotFound for an unknown session.
	Load(ctx context.Context, sessionID string) (*domain.State, error)
	// Delete of an unknown session is not an error.
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
}

// Release gives back a session lock.
type Release func(ctx context.Context) error

// SessionLocker grants exclusive access to a session across processes.
// A lock whose owner disappears lapses after ttl.
type SessionLocker interface {
	Lock(ctx context.Context, sessionID string, ttl time.Duration) (Release, error)
}
