package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/answers"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/session"
)

// Runner drives a Tracker through an IOHandler until the funnel completes or input ends.
type Runner struct {
	handler     IOHandler
	interceptor Interceptor
	sessions    *session.Manager
	logger      *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithInputHandler replaces the default TextHandler on stdin and stdout.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) { r.handler = handler }
}

// WithInterceptor replaces declared-validation checks on submitted answers.
func WithInterceptor(interceptor Interceptor) Option {
	return func(r *Runner) {
		if interceptor != nil {
			r.interceptor = interceptor
		}
	}
}

// WithSessions saves the state after each transition. Without it the session lives only in the Tracker.
func WithSessions(sessions *session.Manager) Option {
	return func(r *Runner) { r.sessions = sessions }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		interceptor: ValidationInterceptor(answers.New()),
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.handler == nil {
		r.handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r
}

// Run executes the page loop. It returns nil when the funnel completes or input ends
// (the session stays resumable), and ctx.Err() when ctx is canceled.
func (r *Runner) Run(ctx context.Context, t *funnel.Tracker) error {
	handler, interceptor := r.handler, r.interceptor

	state := t.State()
	log := r.logger.With("funnel_id", state.FunnelID, "session_id", state.SessionID)

	if len(state.History) == 0 {
		if err := handler.Start(ctx, t.Definition()); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}

	var (
		prev *domain.State
		view *domain.PageView
		err  error
	)
	if !state.IsComplete() {
		if view, err = t.View(); err != nil {
			return fmt.Errorf("render error: %w", err)
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		current := t.State()
		diff := domain.Diff(prev, current)
		prev = current

		if view == nil {
			log.Debug("funnel complete")
			return handler.Complete(ctx, current, diff)
		}

		if err := handler.Render(ctx, view, diff); err != nil {
			return fmt.Errorf("output error: %w", err)
		}

		cmd, err := handler.Collect(ctx, view)
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Debug("input closed, session left in progress", "page_id", view.Page.ID)
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("input error: %w", err)
		}

		var step *Step
		if cmd.Back {
			var moved bool
			step, moved, err = BackAndRender(ctx, t)
			if err == nil && !moved {
				_ = handler.SystemOutput(ctx, "Already on the first page.")
			}
		} else {
			if rejection := interceptor(ctx, view, cmd.Answers); rejection != nil {
				if err := r.reject(ctx, handler, rejection); err != nil {
					return err
				}
				continue
			}
			step, err = SubmitAndRender(ctx, t, view.Page.ID, cmd.Answers)
		}
		if err != nil {
			return fmt.Errorf("navigation error: %w", err)
		}

		if err := r.save(ctx, step.State); err != nil {
			return fmt.Errorf("critical persistence error: %w", err)
		}
		view = step.View
	}
}

func (r *Runner) reject(ctx context.Context, handler IOHandler, rejection error) error {
	if errs := answers.Errors(rejection); errs != nil {
		return handler.Reject(ctx, errs)
	}
	return handler.SystemOutput(ctx, rejection.Error())
}

func (r *Runner) save(ctx context.Context, state *domain.State) error {
	if r.sessions == nil {
		return nil
	}
	if err := r.sessions.Save(ctx, state.SessionID, state); err != nil {
		return err
	}
	r.logger.Debug("state saved", "session_id", state.SessionID, "page_id", state.CurrentPageID)
	return nil
}
