package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/observability"
	"github.com/aretw0/funnel/pkg/ports"
)

// createLogger configures the application logger. It writes to Stderr so Stdout stays
// free for the funnel itself; without --debug or --log-level only warnings are shown.
func createLogger(opts Options) (*slog.Logger, error) {
	if opts.Debug {
		return logging.New(slog.LevelDebug), nil
	}
	if opts.LogLevel == "" {
		return logging.New(slog.LevelWarn), nil
	}
	level, err := logging.ParseLevel(opts.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}

// eventSink receives both analytics events and answer records.
type eventSink interface {
	ports.AnalyticsSink
	ports.AnswerSink
}

// createEngine initializes an engine with the CLI conventions: metrics are recorded on reg
// when it is non-nil, page transitions are logged in debug mode, and extra sinks are attached.
func createEngine(opts Options, logger *slog.Logger, reg prometheus.Registerer, sinks ...eventSink) (*funnel.Engine, error) {
	var hooks []domain.LifecycleHooks
	if opts.Debug {
		hooks = append(hooks, observability.LoggingHooks(logger))
	}
	if reg != nil {
		hooks = append(hooks, observability.NewMetrics(reg).Hooks())
	}

	engineOpts := []funnel.Option{
		funnel.WithLogger(logger),
		funnel.WithLifecycleHooks(observability.Combine(hooks...)),
	}
	if opts.Strict {
		engineOpts = append(engineOpts, funnel.WithStrictValidation())
	}
	for _, s := range sinks {
		engineOpts = append(engineOpts, funnel.WithAnalyticsSink(s), funnel.WithAnswerSink(s))
	}

	engine, err := funnel.New(opts.Dir, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}

// resolveFunnelID returns opts.FunnelID, or the only funnel found when none was given.
func resolveFunnelID(ctx context.Context, engine *funnel.Engine, opts Options) (string, error) {
	if opts.FunnelID != "" {
		return opts.FunnelID, nil
	}
	ids, err := engine.Loader().ListDefinitions(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list funnels: %w", err)
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("no funnel definitions found in %s", opts.Dir)
	case 1:
		return ids[0], nil
	}
	return "", fmt.Errorf("%s holds several funnels %v, pick one with --funnel", opts.Dir, ids)
}
