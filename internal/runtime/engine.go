package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/funnel/pkg/domain"
)

// Emitter receives analytics events and answer records after a transition.
// Implementations must not block the caller; delivery happens in the background.
type Emitter interface {
	Emit(ctx context.Context, events []domain.Event, records []domain.AnswerRecord)
}

// Engine applies transitions to state snapshots. It holds no session state and
// is safe for concurrent use.
type Engine struct {
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
	exprs   *ExpressionEvaluator
	emitter Emitter
	now     func() time.Time
}

// EngineOption configures the runtime Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers synchronous observers.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithEmitter sets where events and answer records are sent.
func WithEmitter(emitter Emitter) EngineOption {
	return func(e *Engine) {
		e.emitter = emitter
	}
}

// WithClock overrides the time source used for timestamps and durations.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates a runtime engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		exprs:  NewExpressionEvaluator(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start positions a fresh state on the first visible page and seeds variable defaults.
func (e *Engine) Start(ctx context.Context, def *domain.Definition, state *domain.State) (*domain.State, error) {
	if state == nil {
		return nil, fmt.Errorf("start: nil state")
	}
	now := e.now()
	next := state.Clone()
	next.FunnelID = def.ID
	next.Version = def.Version
	next.Status = domain.StatusInProgress
	next.Answers = make(map[string]any)
	next.History = []string{}
	next.Variables = NewVariables(def.Variables).Values()
	next.StartedAt = now
	next.PageEnteredAt = now

	log := e.sessionLogger(next)
	events := []domain.Event{e.event(next, domain.EventFunnelStarted, "")}

	first := Next(def.Pages, "", nil, "", nil)
	if first == domain.Complete {
		log.Warn("funnel has no visible page, completing immediately")
		e.complete(ctx, next, now)
		events = append(events, e.event(next, domain.EventFunnelCompleted, ""))
		e.emit(ctx, events, nil)
		return next, nil
	}

	next.CurrentPageID = first
	log.Debug("session started", "page_id", first)
	e.enterPage(ctx, next)
	events = append(events, e.event(next, domain.EventPageViewed, first))
	e.emit(ctx, events, nil)
	return next, nil
}

// Submit records the answers of the current page, runs the rules of the visited path
// and moves the state to the next visible page (or completes it).
func (e *Engine) Submit(ctx context.Context, def *domain.Definition, state *domain.State, pageID string, answers map[string]any) (*domain.State, error) {
	if state == nil {
		return nil, fmt.Errorf("submit page %q: nil state", pageID)
	}
	log := e.sessionLogger(state)
	if state.IsComplete() {
		log.Error("submit on completed session", "page_id", pageID)
		return nil, fmt.Errorf("submit page %q: %w", pageID, domain.ErrSessionComplete)
	}
	if pageID != state.CurrentPageID {
		return nil, fmt.Errorf("submit page %q while on %q: %w", pageID, state.CurrentPageID, domain.ErrPageMismatch)
	}
	page, ok := def.Page(pageID)
	if !ok {
		return nil, fmt.Errorf("page %q not in funnel %q: %w", pageID, def.ID, domain.ErrPageMismatch)
	}

	now := e.now()
	duration := now.Sub(state.PageEnteredAt)
	if state.PageEnteredAt.IsZero() || duration < 0 {
		duration = 0
	}

	next := state.Clone()
	var (
		events  []domain.Event
		records []domain.AnswerRecord
		diags   []domain.Diagnostic
	)

	for _, blockID := range sortedKeys(answers) {
		value := answers[blockID]
		if _, ok := page.InputBlock(blockID); !ok {
			diags = append(diags, domain.Diagnostic{
				Kind:    domain.DiagnosticUnknownBlock,
				Target:  blockID,
				Message: fmt.Sprintf("block %q is not an input block of page %q", blockID, pageID),
			})
			continue
		}
		if value == nil {
			delete(next.Answers, blockID)
			continue
		}
		next.Answers[blockID] = value
		records = append(records, domain.AnswerRecord{
			SessionID: next.SessionID,
			FunnelID:  next.FunnelID,
			Version:   next.Version,
			PageID:    pageID,
			BlockID:   blockID,
			Value:     value,
			Duration:  duration,
		})
		ev := e.event(next, domain.EventQuestionAnswered, pageID)
		ev.BlockID = blockID
		ev.Value = value
		ev.Duration = duration
		events = append(events, ev)
	}

	path := append(slices.Clone(state.History), pageID)
	vars, hidden, current, replayDiags := e.replay(def, path, next.Answers)
	diags = append(diags, replayDiags...)

	nextID := Next(def.Pages, pageID, hidden, current.Jump, path)

	next.History = path
	next.Variables = vars.Values()
	e.report(ctx, log, diags)

	leave := e.event(next, domain.EventPageCompleted, pageID)
	leave.Duration = duration
	events = append(events, leave)
	e.leavePage(ctx, next, pageID, duration)

	if nextID == domain.Complete {
		e.complete(ctx, next, now)
		log.Info("session completed", "pages", len(next.History))
		events = append(events, e.event(next, domain.EventFunnelCompleted, ""))
		e.emit(ctx, events, records)
		return next, nil
	}

	next.CurrentPageID = nextID
	next.PageEnteredAt = now
	log.Debug("page submitted", "page_id", pageID, "next_page_id", nextID)
	e.enterPage(ctx, next)
	events = append(events, e.event(next, domain.EventPageViewed, nextID))
	e.emit(ctx, events, records)
	return next, nil
}

// Back returns to the most recent visited page that is still visible.
// Answers and variables are kept. ok is false, and the state unchanged, when there is nowhere to go.
func (e *Engine) Back(ctx context.Context, def *domain.Definition, state *domain.State) (*domain.State, bool, error) {
	if state == nil {
		return nil, false, fmt.Errorf("go back: nil state")
	}
	if state.IsComplete() {
		e.sessionLogger(state).Error("back on completed session")
		return nil, false, fmt.Errorf("go back: %w", domain.ErrSessionComplete)
	}

	_, hidden, _, _ := e.replay(def, state.History, state.Answers)
	target, remaining, ok := Previous(def.Pages, state.History, hidden)
	if !ok {
		return state, false, nil
	}

	now := e.now()
	next := state.Clone()
	next.History = append([]string{}, remaining...)
	e.leavePage(ctx, next, state.CurrentPageID, now.Sub(state.PageEnteredAt))
	next.CurrentPageID = target
	next.PageEnteredAt = now
	e.enterPage(ctx, next)
	e.emit(ctx, []domain.Event{e.event(next, domain.EventPageViewed, target)}, nil)
	return next, true, nil
}

// replay evaluates the rules of each page in path, in order, starting from declared defaults.
// It returns the resulting variables, the accumulated hidden targets and the resolution of the last page.
func (e *Engine) replay(def *domain.Definition, path []string, answers map[string]any) (Variables, TargetSet, Resolution, []domain.Diagnostic) {
	vars := NewVariables(def.Variables)
	hidden := TargetSet{}
	var (
		last  Resolution
		diags []domain.Diagnostic
	)
	for _, pageID := range path {
		last = Resolve(def.Rules, pageID, EvalContext{Answers: answers, Variables: vars}, e.exprs)
		diags = append(diags, last.Diagnostics...)

		var writeDiags []domain.Diagnostic
		vars, writeDiags = vars.Apply(last.Writes, last.WriteOrder)
		diags = append(diags, writeDiags...)
		hidden = hidden.With(last.Visibility)
	}
	return vars, hidden, last, diags
}

func (e *Engine) complete(ctx context.Context, s *domain.State, now time.Time) {
	s.Status = domain.StatusComplete
	s.CurrentPageID = ""
	s.CompletedAt = now
	if e.hooks.OnSessionComplete != nil {
		e.hooks.OnSessionComplete(ctx, s)
	}
}

func (e *Engine) enterPage(ctx context.Context, s *domain.State) {
	if e.hooks.OnPageEnter != nil {
		e.hooks.OnPageEnter(ctx, &domain.PageEvent{
			SessionID: s.SessionID,
			FunnelID:  s.FunnelID,
			PageID:    s.CurrentPageID,
		})
	}
}

func (e *Engine) leavePage(ctx context.Context, s *domain.State, pageID string, d time.Duration) {
	if e.hooks.OnPageLeave != nil {
		e.hooks.OnPageLeave(ctx, &domain.PageEvent{
			SessionID: s.SessionID,
			FunnelID:  s.FunnelID,
			PageID:    pageID,
			Duration:  d,
		})
	}
}

func (e *Engine) report(ctx context.Context, log *slog.Logger, diags []domain.Diagnostic) {
	for _, d := range diags {
		log.Warn("rule evaluation degraded", "kind", d.Kind, "rule_id", d.RuleID, "target", d.Target, "reason", d.Message)
		if e.hooks.OnDiagnostic != nil {
			e.hooks.OnDiagnostic(ctx, d)
		}
	}
}

func (e *Engine) emit(ctx context.Context, events []domain.Event, records []domain.AnswerRecord) {
	if e.emitter == nil {
		return
	}
	e.emitter.Emit(ctx, events, records)
}

func (e *Engine) event(s *domain.State, typ domain.EventType, pageID string) domain.Event {
	return domain.Event{
		ID:        uuid.NewString(),
		Type:      typ,
		FunnelID:  s.FunnelID,
		Version:   s.Version,
		SessionID: s.SessionID,
		VisitorID: s.VisitorID,
		Timestamp: e.now(),
		PageID:    pageID,
	}
}

func (e *Engine) sessionLogger(s *domain.State) *slog.Logger {
	return e.logger.With("funnel_id", s.FunnelID, "session_id", s.SessionID)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
