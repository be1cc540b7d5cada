// Package watermill publishes funnel events and answer records to a watermill Publisher,
// so any watermill backend (Kafka, AMQP, SQL, in-process channels) can consume them.
package watermill

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/aretw0/funnel/pkg/domain"
)

// Default topics.
const (
	EventsTopic  = "funnel.events"
	AnswersTopic = "funnel.answers"
)

// Sink implements ports.AnalyticsSink and ports.AnswerSink over a message.Publisher.
// Event messages reuse the event ID as message UUID so consumers can deduplicate redeliveries.
type Sink struct {
	publisher    message.Publisher
	eventsTopic  string
	answersTopic string
}

// Option configures a Sink.
type Option func(*Sink)

// WithTopics overrides the event and answer topics.
func WithTopics(events, answers string) Option {
	return func(s *Sink) {
		if events != "" {
			s.eventsTopic = events
		}
		if answers != "" {
			s.answersTopic = answers
		}
	}
}

// NewSink wraps publisher.
func NewSink(publisher message.Publisher, opts ...Option) *Sink {
	s := &Sink{
		publisher:    publisher,
		eventsTopic:  EventsTopic,
		answersTopic: AnswersTopic,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish sends one event.
func (s *Sink) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	id := event.ID
	if id == "" {
		id = watermill.NewULID()
	}
	msg := message.NewMessage(id, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(domain.KeyEventType, string(event.Type))
	msg.Metadata.Set(domain.KeySessionID, event.SessionID)
	msg.Metadata.Set(domain.KeyFunnelID, event.FunnelID)

	return s.publisher.Publish(s.eventsTopic, msg)
}

// Record sends one message per answer.
func (s *Sink) Record(ctx context.Context, records []domain.AnswerRecord) error {
	msgs := make([]*message.Message, 0, len(records))
	for _, r := range records {
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal answer %s: %w", r.BlockID, err)
		}
		msg := message.NewMessage(watermill.NewULID(), payload)
		msg.SetContext(ctx)
		msg.Metadata.Set(domain.KeySessionID, r.SessionID)
		msg.Metadata.Set(domain.KeyFunnelID, r.FunnelID)
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		return nil
	}
	return s.publisher.Publish(s.answersTopic, msgs...)
}

// NewGoChannel creates an in-process pub/sub, suitable for local runs and tests.
// The returned value is both the Publisher and the Subscriber.
func NewGoChannel(logger *slog.Logger, persistent bool) *gochannel.GoChannel {
	var adapter watermill.LoggerAdapter = watermill.NopLogger{}
	if logger != nil {
		adapter = watermill.NewSlogLogger(logger)
	}
	return gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            1000,
			Persistent:                     persistent,
			BlockPublishUntilSubscriberAck: false,
		},
		adapter,
	)
}
