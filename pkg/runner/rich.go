package runner

import (
	"context"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/pkg/domain"
)

// Step combines the state after a transition with the view to render next.
// View is nil once the session is complete.
type Step struct {
	State *domain.State     `json:"state"`
	View  *domain.PageView  `json:"view,omitempty"`
	Next  string            `json:"next"`
	Diff  *domain.StateDiff `json:"diff,omitempty"`
}

// SubmitAndRender submits a page and immediately builds the next view.
// Rich clients (web, chat) always receive what to show for the page they just entered.
func SubmitAndRender(ctx context.Context, t *funnel.Tracker, pageID string, answers map[string]any) (*Step, error) {
	before := t.State()
	next, err := t.SubmitPage(ctx, pageID, answers)
	if err != nil {
		return nil, err
	}
	return render(t, before, next)
}

// CheckAndSubmit sanitizes answers, runs interceptor when pageID is the page the respondent
// is on, and submits. Stale page IDs skip the interceptor and fail in SubmitPage.
func CheckAndSubmit(ctx context.Context, t *funnel.Tracker, interceptor Interceptor, pageID string, answers map[string]any) (*Step, error) {
	clean, err := SanitizeAnswers(answers)
	if err != nil {
		return nil, err
	}
	if t.Status() == domain.StatusInProgress && t.CurrentPage() == pageID {
		view, err := t.View()
		if err != nil {
			return nil, err
		}
		if err := interceptor(ctx, view, clean); err != nil {
			return nil, err
		}
	}
	return SubmitAndRender(ctx, t, pageID, clean)
}

// BackAndRender goes back and builds the view of the page returned to.
// moved is false when there was no previous page; the step then describes the current page.
func BackAndRender(ctx context.Context, t *funnel.Tracker) (*Step, bool, error) {
	before := t.State()
	page, moved, err := t.GoBack(ctx)
	if err != nil {
		return nil, false, err
	}
	step, err := render(t, before, page)
	return step, moved, err
}

func render(t *funnel.Tracker, before *domain.State, next string) (*Step, error) {
	after := t.State()
	step := &Step{State: after, Next: next, Diff: domain.Diff(before, after)}
	if after.IsComplete() {
		return step, nil
	}
	view, err := t.View()
	if err != nil {
		// The state is returned so the client can recover.
		return step, err
	}
	step.View = view
	return step, nil
}
