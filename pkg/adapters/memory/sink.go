package memory

import (
	"context"
	"sync"

	"github.com/aretw0/funnel/pkg/domain"
)

// Sink records events and answers in memory.
// It implements both ports.AnalyticsSink and ports.AnswerSink and drops
// redelivered events by ID. Safe for concurrent use.
type Sink struct {
	mu      sync.Mutex
	seen    map[string]bool
	events  []domain.Event
	records []domain.AnswerRecord
}

// NewSink creates an empty recording sink.
func NewSink() *Sink {
	return &Sink{seen: make(map[string]bool)}
}

// Publish records an event once.
func (s *Sink) Publish(ctx context.Context, event domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if event.ID != "" {
		if s.seen[event.ID] {
			return nil
		}
		s.seen[event.ID] = true
	}
	s.events = append(s.events, event)
	return nil
}

// Record stores answer records.
func (s *Sink) Record(ctx context.Context, records []domain.AnswerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

// Events returns a copy of the recorded events.
func (s *Sink) Events() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Event(nil), s.events...)
}

// Records returns a copy of the recorded answers.
func (s *Sink) Records() []domain.AnswerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AnswerRecord(nil), s.records...)
}
