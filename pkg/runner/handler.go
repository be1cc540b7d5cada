package runner

import (
	"context"

	"github.com/aretw0/funnel/pkg/answers"
	"github.com/aretw0/funnel/pkg/domain"
)

// IOHandler defines the strategy for interacting with the respondent.
// This allows switching between Text (CLI) and JSON (structured) modes.
type IOHandler interface {
	// Start presents the funnel before its first page is rendered.
	Start(ctx context.Context, def *domain.Definition) error

	// Render presents the current page. diff holds the state changes since the last render.
	Render(ctx context.Context, view *domain.PageView, diff *domain.StateDiff) error

	// Collect reads the respondent's answers for the rendered page, or a request to go back.
	// It returns io.EOF when input ends.
	Collect(ctx context.Context, view *domain.PageView) (Command, error)

	// Reject reports answers refused by the Interceptor. The page is rendered again afterwards.
	Reject(ctx context.Context, errs []*answers.ValidationError) error

	// SystemOutput presents a meta-message (status, hints) distinct from page content.
	SystemOutput(ctx context.Context, msg string) error

	// Complete presents the end of the funnel.
	Complete(ctx context.Context, state *domain.State, diff *domain.StateDiff) error
}

// Command is what a handler collected for a page.
type Command struct {
	Back    bool
	Answers map[string]any
}

// ContentRenderer transforms markdown before it is written, e.g. to ANSI for terminals.
type ContentRenderer func(string) (string, error)
