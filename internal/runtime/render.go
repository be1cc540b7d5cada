package runtime

import (
	"fmt"

	"github.com/aretw0/funnel/pkg/domain"
)

// View builds what the presentation layer needs for the current page.
// Blocks hidden by rules of the visited path, or by the current page's own rules
// evaluated against the answers so far, are left out.
func (e *Engine) View(def *domain.Definition, state *domain.State) (*domain.PageView, error) {
	if state == nil {
		return nil, fmt.Errorf("view: nil state")
	}
	if state.IsComplete() {
		return nil, fmt.Errorf("view: %w", domain.ErrSessionComplete)
	}
	page, ok := def.Page(state.CurrentPageID)
	if !ok {
		return nil, fmt.Errorf("current page %q not in funnel %q", state.CurrentPageID, def.ID)
	}

	vars, hidden, _, _ := e.replay(def, state.History, state.Answers)
	pre := Resolve(def.Rules, page.ID, EvalContext{Answers: state.Answers, Variables: vars}, e.exprs)
	hidden = hidden.With(pre.Visibility)

	view := &domain.PageView{
		Page:      page,
		Blocks:    VisibleBlocks(page, hidden),
		Answers:   make(map[string]any),
		Position:  def.PageIndex(page.ID) + 1,
		Total:     len(def.Pages),
		CanGoBack: len(state.History) > 0,
	}
	for _, b := range view.Blocks {
		if v, ok := state.Answers[b.ID]; ok && b.Type.IsInput() {
			view.Answers[b.ID] = v
		}
	}
	return view, nil
}

// Hidden returns the targets hidden by the rules of the pages already submitted.
func (e *Engine) Hidden(def *domain.Definition, state *domain.State) TargetSet {
	if state == nil {
		return TargetSet{}
	}
	_, hidden, _, _ := e.replay(def, state.History, state.Answers)
	return hidden
}
