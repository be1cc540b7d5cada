package cli

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aretw0/funnel/internal/adapters/file"
	"github.com/aretw0/funnel/internal/adapters/redis"
	"github.com/aretw0/funnel/pkg/adapters/memory"
	redisLock "github.com/aretw0/funnel/pkg/adapters/redis"
	"github.com/aretw0/funnel/pkg/persistence/middleware"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/aretw0/funnel/pkg/session"
)

// openSessions builds the session manager for opts.Store, wrapped with PII masking and,
// when EnvStateKey is set, encryption. The returned func releases backend connections.
func openSessions(opts Options, logger *slog.Logger) (*session.Manager, func(), error) {
	var (
		store   ports.StateStore
		locker  ports.SessionLocker
		closeFn = func() {}
	)

	switch opts.Store {
	case "", StoreFile:
		store = file.New(opts.sessionsDir())
	case StoreMemory:
		store = memory.NewStore()
	case StoreRedis:
		if opts.RedisAddr == "" {
			return nil, nil, fmt.Errorf("--redis-addr is required with --store=redis")
		}
		var storeOpts []redis.Option
		if opts.SessionTTL != "" {
			ttl, err := time.ParseDuration(opts.SessionTTL)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid --session-ttl: %w", err)
			}
			storeOpts = append(storeOpts, redis.WithTTL(ttl))
		}
		rs := redis.New(opts.RedisAddr, os.Getenv("REDIS_PASSWORD"), 0, storeOpts...)
		store = rs
		locker = redisLock.NewLocker(rs.Client(), redis.DefaultPrefix)
		closeFn = func() {
			if err := rs.Close(); err != nil {
				logger.Warn("failed to close redis", "err", err)
			}
		}
	default:
		return nil, nil, fmt.Errorf("unknown store %q (want %s, %s or %s)", opts.Store, StoreFile, StoreMemory, StoreRedis)
	}

	mws, err := storeMiddleware(opts)
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	managerOpts := []session.Option{session.WithLogger(logger)}
	if locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(locker))
	}
	return session.NewManager(middleware.Chain(store, mws...), managerOpts...), closeFn, nil
}

func storeMiddleware(opts Options) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(opts.PII) > 0 {
		pii, err := middleware.NewPIIMiddleware(opts.PII...)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}

	raw := os.Getenv(EnvStateKey)
	if raw == "" {
		return mws, nil
	}
	active, err := hex.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvStateKey, err)
	}
	config := middleware.EncryptionConfig{ActiveKey: active}
	for _, k := range strings.Split(os.Getenv(EnvStateKeyFallback), ",") {
		if k = strings.TrimSpace(k); k == "" {
			continue
		}
		key, err := hex.DecodeString(k)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvStateKeyFallback, err)
		}
		config.FallbackKeys = append(config.FallbackKeys, key)
	}
	enc, err := middleware.NewEncryptionMiddleware(config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvStateKey, err)
	}
	return append(mws, enc), nil
}
