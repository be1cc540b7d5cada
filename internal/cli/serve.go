package cli

import (
	"context"
	"net/http"
	"time"

	httpAdapter "github.com/aretw0/funnel/pkg/adapters/http"
)

// Serve exposes the session API on addr, with /metrics, until ctx is canceled.
func Serve(ctx context.Context, opts Options, addr string) error {
	logger, err := createLogger(opts)
	if err != nil {
		return err
	}
	reg := newRegistry()

	var sinks []eventSink
	if opts.EventsOut != "" {
		events, err := openEventLog(ctx, opts.EventsOut, logger)
		if err != nil {
			return err
		}
		defer events.Close()
		sinks = append(sinks, events.Sink)
	}

	engine, err := createEngine(opts, logger, reg, sinks...)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := engine.Close(closeCtx); err != nil {
			logger.Warn("analytics not flushed", "err", err)
		}
	}()

	sessions, closeSessions, err := openSessions(opts, logger)
	if err != nil {
		return err
	}
	defer closeSessions()

	router := httpAdapter.NewServer(engine, sessions, httpAdapter.WithLogger(logger)).Routes()
	mountMetrics(router, reg)

	logger.Info("serving funnels", "dir", opts.Dir, "addr", addr)
	return listen(ctx, &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 10 * time.Second}, logger)
}
