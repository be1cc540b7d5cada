package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/funnel/pkg/adapters/mcp"
)

// MCP transports accepted by ServeMCP.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// ServeMCP exposes the sessions as MCP tools on stdio or, with TransportSSE, on addr.
func ServeMCP(ctx context.Context, opts Options, transport, addr string) error {
	logger, err := createLogger(opts)
	if err != nil {
		return err
	}
	engine, err := createEngine(opts, logger, nil)
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

	srv := mcp.NewServer(engine, sessions, logger)
	switch transport {
	case "", TransportStdio:
		return srv.ServeStdio()
	case TransportSSE:
		return srv.ServeSSE(ctx, addr, baseURL(addr))
	}
	return fmt.Errorf("unknown transport %q (want %s or %s)", transport, TransportStdio, TransportSSE)
}

func baseURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
