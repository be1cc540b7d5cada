package funnel

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/loam"
	"github.com/google/uuid"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/internal/runtime"
	"github.com/aretw0/funnel/internal/validator"
	fileAdapter "github.com/aretw0/funnel/pkg/adapters/file"
	loamAdapter "github.com/aretw0/funnel/pkg/adapters/loam"
	"github.com/aretw0/funnel/pkg/analytics"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
)

// Engine is the high-level entry point of the library.
// It loads and validates definitions, and starts or resumes Trackers.
type Engine struct {
	runtime    *runtime.Engine
	loader     ports.DefinitionLoader
	dispatcher *analytics.Dispatcher

	hooks          domain.LifecycleHooks
	logger         *slog.Logger
	clock          func() time.Time
	analyticsSinks []ports.AnalyticsSink
	answerSinks    []ports.AnswerSink
	dispatcherOpts []analytics.Option
	strict         bool

	Name string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLoader injects a DefinitionLoader, bypassing the default filesystem loaders.
func WithLoader(l ports.DefinitionLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers synchronous observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithAnalyticsSink adds a destination for analytics events.
func WithAnalyticsSink(sink ports.AnalyticsSink) Option {
	return func(e *Engine) {
		e.analyticsSinks = append(e.analyticsSinks, sink)
	}
}

// WithAnswerSink adds a destination for answer records.
func WithAnswerSink(sink ports.AnswerSink) Option {
	return func(e *Engine) {
		e.answerSinks = append(e.answerSinks, sink)
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.clock = now
	}
}

// WithDispatcherOptions tunes the background delivery of events and answers.
func WithDispatcherOptions(opts ...analytics.Option) Option {
	return func(e *Engine) {
		e.dispatcherOpts = append(e.dispatcherOpts, opts...)
	}
}

// WithStrictValidation rejects definitions that have validation warnings, not only errors.
func WithStrictValidation() Option {
	return func(e *Engine) {
		e.strict = true
	}
}

// New initializes an Engine.
// Without WithLoader, path selects the loader: a directory is read with loam, a single
// YAML or JSON file with the file loader.
func New(path string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.loader == nil {
		if path == "" {
			return nil, fmt.Errorf("path is required when no custom loader is provided")
		}
		loader, err := defaultLoader(path)
		if err != nil {
			return nil, err
		}
		eng.loader = loader
	}
	if path != "" {
		eng.Name = filepath.Base(path)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	dispatcherOpts := []analytics.Option{
		analytics.WithLogger(eng.logger),
		analytics.WithAnalyticsSinks(eng.analyticsSinks...),
		analytics.WithAnswerSinks(eng.answerSinks...),
	}
	eng.dispatcher = analytics.New(append(dispatcherOpts, eng.dispatcherOpts...)...)

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithEmitter(eng.dispatcher),
	}
	if eng.clock != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithClock(eng.clock))
	}
	eng.runtime = runtime.NewEngine(runtimeOpts...)
	return eng, nil
}

func defaultLoader(path string) (ports.DefinitionLoader, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	if !info.IsDir() {
		return fileAdapter.New(absPath), nil
	}

	// Strict mode keeps numbers as json.Number across formats; the engine never writes definitions.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return loamAdapter.New(loam.NewTypedRepository[loamAdapter.DefinitionMetadata](repo)), nil
}

// StartOptions identifies a new session.
type StartOptions struct {
	// Version defaults to published.
	Version domain.Version
	// SessionID defaults to a random UUID.
	SessionID string
	VisitorID string
}

// Definition loads and validates a funnel definition.
// Validation warnings are logged; with WithStrictValidation they are returned as errors.
func (e *Engine) Definition(ctx context.Context, funnelID string, version domain.Version) (*domain.Definition, error) {
	def, err := e.loader.GetDefinition(ctx, funnelID, version)
	if err != nil {
		return nil, fmt.Errorf("load funnel %q: %w", funnelID, err)
	}

	report := validator.Definition(def)
	for _, w := range report.Warnings() {
		e.logger.Warn("definition warning", "funnel_id", funnelID, "path", w.Path, "reason", w.Message)
	}
	if err := report.Err(e.strict); err != nil {
		return nil, fmt.Errorf("load funnel %q: %w", funnelID, err)
	}
	return def, nil
}

// Start begins a new session on the first visible page.
func (e *Engine) Start(ctx context.Context, funnelID string, opts StartOptions) (*Tracker, error) {
	def, err := e.Definition(ctx, funnelID, opts.Version)
	if err != nil {
		return nil, err
	}

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	state := domain.NewState(sessionID, funnelID)
	state.VisitorID = opts.VisitorID

	started, err := e.runtime.Start(ctx, def, state)
	if err != nil {
		return nil, err
	}
	return newTracker(e, def, started), nil
}

// Resume wraps a persisted state, reloading the definition version it was started with.
func (e *Engine) Resume(ctx context.Context, state *domain.State) (*Tracker, error) {
	if state == nil {
		return nil, fmt.Errorf("resume: nil state")
	}
	def, err := e.Definition(ctx, state.FunnelID, state.Version)
	if err != nil {
		return nil, err
	}
	return newTracker(e, def, state.Clone()), nil
}

// Loader returns the DefinitionLoader used by the engine.
func (e *Engine) Loader() ports.DefinitionLoader {
	return e.loader
}

// Close flushes pending events and answers to the sinks.
func (e *Engine) Close(ctx context.Context) error {
	return e.dispatcher.Close(ctx)
}
