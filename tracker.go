package funnel

import (
	"context"
	"sync"

	"github.com/aretw0/funnel/pkg/domain"
)

// Tracker drives one respondent's session. It is safe for concurrent use;
// transitions on the same Tracker are serialized.
type Tracker struct {
	engine *Engine
	def    *domain.Definition

	mu    sync.RWMutex
	state *domain.State
}

func newTracker(e *Engine, def *domain.Definition, state *domain.State) *Tracker {
	return &Tracker{engine: e, def: def, state: state}
}

// SubmitPage records the answers of pageID and advances.
// It returns the next page id, or domain.Complete.
func (t *Tracker) SubmitPage(ctx context.Context, pageID string, answers map[string]any) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next, err := t.engine.runtime.Submit(ctx, t.def, t.state, pageID, answers)
	if err != nil {
		return "", err
	}
	t.state = next
	if next.IsComplete() {
		return domain.Complete, nil
	}
	return next.CurrentPageID, nil
}

// GoBack returns to the previous visible page. ok is false when there is nowhere to go.
func (t *Tracker) GoBack(ctx context.Context) (string, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next, ok, err := t.engine.runtime.Back(ctx, t.def, t.state)
	if err != nil || !ok {
		return t.state.CurrentPageID, false, err
	}
	t.state = next
	return next.CurrentPageID, true, nil
}

// View returns what should be rendered for the current page.
func (t *Tracker) View() (*domain.PageView, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.engine.runtime.View(t.def, t.state)
}

// State returns a copy of the current snapshot, ready to be persisted.
func (t *Tracker) State() *domain.State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Clone()
}

// Variable returns the current value of a variable.
func (t *Tracker) Variable(name string) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.state.Variables[name]
	return v, ok
}

// Status returns the lifecycle status of the session.
func (t *Tracker) Status() domain.Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Status
}

// CurrentPage returns the id of the current page, empty once complete.
func (t *Tracker) CurrentPage() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.CurrentPageID
}

// Definition returns the definition the session runs on.
func (t *Tracker) Definition() *domain.Definition {
	return t.def
}
