package session

import (
	"context"
	"errors"
	"fmt"
	"hash/maphash"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can keep a session locked.
const DefaultLockTTL = 30 * time.Second

// stripes is the number of local mutexes sessions are hashed onto.
// Two sessions may share a stripe; a session never spans two.
const stripes = 256

// Manager runs every read-modify-write of a session under that session's lock.
type Manager struct {
	store   ports.StateStore
	locker  ports.SessionLocker
	lockTTL time.Duration
	logger  *slog.Logger

	seed  maphash.Seed
	local [stripes]sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithLocker adds a cross-process lock taken after the local one.
func WithLocker(locker ports.SessionLocker) Option {
	return func(m *Manager) { m.locker = locker }
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager returns a Manager over store.
func NewManager(store ports.StateStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		seed:    maphash.MakeSeed(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) stripe(sessionID string) *sync.Mutex {
	return &m.local[maphash.String(m.seed, sessionID)%stripes]
}

// WithLock runs fn with exclusive access to the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	mu := m.stripe(sessionID)
	mu.Lock()
	defer mu.Unlock()

	if m.locker == nil {
		return fn(ctx)
	}
	release, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
	if err != nil {
		return fmt.Errorf("lock session %s: %w", sessionID, err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			m.logger.Warn("session lock not released, it will lapse", "session_id", sessionID, "ttl", m.lockTTL, "err", err)
		}
	}()
	return fn(ctx)
}

func (m *Manager) Load(ctx context.Context, sessionID string) (state *domain.State, err error) {
	err = m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		state, err = m.store.Load(ctx, sessionID)
		return err
	})
	return state, err
}

// LoadOrCreate returns the stored session, or saves and returns the one built by create.
// created reports which happened. create runs at most once per session even under contention.
func (m *Manager) LoadOrCreate(ctx context.Context, sessionID string, create func(context.Context) (*domain.State, error)) (state *domain.State, created bool, err error) {
	err = m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var loadErr error
		state, loadErr = m.store.Load(ctx, sessionID)
		if !errors.Is(loadErr, domain.ErrSessionNotFound) {
			return loadErr
		}

		if state, err = create(ctx); err != nil {
			return err
		}
		if err = m.store.Save(ctx, sessionID, state); err != nil {
			return fmt.Errorf("save new session %s: %w", sessionID, err)
		}
		created = true
		return nil
	})
	return state, created, err
}

// Update applies a transition to the stored session and saves its result.
// The stored session is untouched when fn fails.
func (m *Manager) Update(ctx context.Context, sessionID string, fn func(*domain.State) (*domain.State, error)) (*domain.State, error) {
	var next *domain.State
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		current, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if next, err = fn(current); err != nil {
			return err
		}
		return m.store.Save(ctx, sessionID, next)
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (m *Manager) Save(ctx context.Context, sessionID string, state *domain.State) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, state)
	})
}

func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List is not locked: it may miss sessions created concurrently.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}
