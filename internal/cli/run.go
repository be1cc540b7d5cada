package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/term"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/internal/presentation/tui"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/runner"
)

// Run starts or resumes a session and drives it on in and out until it completes,
// input ends or ctx is canceled. Interruptions are not errors: the session stays resumable.
func Run(ctx context.Context, opts Options, in io.Reader, out io.Writer) (err error) {
	logger, err := createLogger(opts)
	if err != nil {
		return err
	}

	var reg *prometheus.Registry
	if opts.MetricsAddr != "" {
		reg = newRegistry()
		metricsCtx, stopMetrics := context.WithCancel(ctx)
		defer stopMetrics()
		go func() {
			if err := serveMetrics(metricsCtx, opts.MetricsAddr, reg, logger); err != nil {
				logger.Error("metrics server failed", "err", err)
			}
		}()
	}

	var sinks []eventSink
	if opts.EventsOut != "" {
		events, err := openEventLog(ctx, opts.EventsOut, logger)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := events.Close(); cerr != nil {
				logger.Warn("event log not closed cleanly", "err", cerr)
			}
		}()
		sinks = append(sinks, events.Sink)
	}

	var registerer prometheus.Registerer
	if reg != nil {
		registerer = reg
	}
	engine, err := createEngine(opts, logger, registerer, sinks...)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if cerr := engine.Close(closeCtx); cerr != nil {
			logger.Warn("analytics not flushed", "err", cerr)
		}
	}()

	sessions, closeSessions, err := openSessions(opts, logger)
	if err != nil {
		return err
	}
	defer closeSessions()

	funnelID, err := resolveFunnelID(ctx, engine, opts)
	if err != nil {
		return err
	}

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if opts.Fresh {
		if err := sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to reset session: %w", err)
		}
	}

	state, created, err := sessions.LoadOrCreate(ctx, sessionID, func(ctx context.Context) (*domain.State, error) {
		t, err := engine.Start(ctx, funnelID, funnel.StartOptions{SessionID: sessionID, Version: opts.Version})
		if err != nil {
			return nil, err
		}
		return t.State(), nil
	})
	if err != nil {
		return fmt.Errorf("failed to init session: %w", err)
	}
	tracker, err := engine.Resume(ctx, state)
	if err != nil {
		return err
	}
	logSessionStatus(logger, state, created)

	handler := newHandler(opts, in, out)
	r := runner.NewRunner(
		runner.WithLogger(logger),
		runner.WithInputHandler(handler),
		runner.WithSessions(sessions),
	)

	runErr := r.Run(ctx, tracker)
	if errors.Is(runErr, context.Canceled) {
		if !opts.JSON {
			fmt.Fprintf(out, "\n>>> Interrupted at '%s'. Resume with --session %s\n", tracker.CurrentPage(), sessionID)
		}
		return nil
	}
	if runErr == nil && !opts.JSON && !tracker.State().IsComplete() {
		fmt.Fprintf(out, "\n>>> Paused at '%s'. Resume with --session %s\n", tracker.CurrentPage(), sessionID)
	}
	return runErr
}

func newHandler(opts Options, in io.Reader, out io.Writer) runner.IOHandler {
	if opts.JSON {
		return runner.NewJSONHandler(in, out)
	}
	var textOpts []runner.TextHandlerOption
	if isTTY(out) {
		tui.PrintBanner(out)
		textOpts = append(textOpts, runner.WithTextHandlerRenderer(tui.NewRenderer()))
	}
	return runner.NewTextHandler(in, out, textOpts...)
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func logSessionStatus(logger *slog.Logger, state *domain.State, created bool) {
	if created {
		logger.Info("session created", "session_id", state.SessionID, "funnel_id", state.FunnelID)
		return
	}
	logger.Info("session resumed", "session_id", state.SessionID, "page_id", state.CurrentPageID, "status", state.Status)
}
