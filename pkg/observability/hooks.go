package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/funnel/pkg/domain"
)

// LoggingHooks logs every transition at Debug, and completions at Info.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPageEnter: func(ctx context.Context, e *domain.PageEvent) {
			logger.DebugContext(ctx, "page_enter", "funnel_id", e.FunnelID, "session_id", e.SessionID, "page_id", e.PageID)
		},
		OnPageLeave: func(ctx context.Context, e *domain.PageEvent) {
			logger.DebugContext(ctx, "page_leave", "funnel_id", e.FunnelID, "session_id", e.SessionID, "page_id", e.PageID, "duration", e.Duration)
		},
		OnSessionComplete: func(ctx context.Context, s *domain.State) {
			logger.InfoContext(ctx, "session_complete", "funnel_id", s.FunnelID, "session_id", s.SessionID, "pages", len(s.History))
		},
	}
}

// Combine returns hooks that call each of the given hooks in order.
func Combine(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range all {
		out.OnPageEnter = chain(out.OnPageEnter, h.OnPageEnter)
		out.OnPageLeave = chain(out.OnPageLeave, h.OnPageLeave)
		out.OnSessionComplete = chain(out.OnSessionComplete, h.OnSessionComplete)
		out.OnDiagnostic = chain(out.OnDiagnostic, h.OnDiagnostic)
	}
	return out
}

func chain[T any](first, second func(context.Context, T)) func(context.Context, T) {
	switch {
	case first == nil:
		return second
	case second == nil:
		return first
	}
	return func(ctx context.Context, v T) {
		first(ctx, v)
		second(ctx, v)
	}
}
