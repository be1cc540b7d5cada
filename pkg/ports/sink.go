package ports

import (
	"context"

	"github.com/aretw0/funnel/pkg/domain"
)

// AnalyticsSink receives analytics events.
// Publish may be retried, so implementations should tolerate duplicates (keyed by Event.ID).
type AnalyticsSink interface {
	Publish(ctx context.Context, event domain.Event) error
}

// AnswerSink persists the answers of submitted pages.
type AnswerSink interface {
	Record(ctx context.Context, records []domain.AnswerRecord) error
}
