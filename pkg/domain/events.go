package domain

import (
	"context"
	"time"
)

// EventType defines the category of an analytics event.
type EventType string

const (
	EventFunnelStarted    EventType = "funnel_started"
	EventPageViewed       EventType = "page_viewed"
	EventPageCompleted    EventType = "page_completed"
	EventQuestionAnswered EventType = "question_answered"
	EventFunnelCompleted  EventType = "funnel_completed"
)

// Event is a discrete analytics event. Delivery is asynchronous and at-least-once.
type Event struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	FunnelID  string        `json:"funnel_id"`
	Version   Version       `json:"version,omitempty"`
	SessionID string        `json:"session_id"`
	VisitorID string        `json:"visitor_id,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	PageID    string        `json:"page_id,omitempty"`
	BlockID   string        `json:"block_id,omitempty"`
	Value     any           `json:"value,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// AnswerRecord is one persisted answer of a submitted page.
type AnswerRecord struct {
	SessionID string        `json:"session_id"`
	FunnelID  string        `json:"funnel_id"`
	Version   Version       `json:"version,omitempty"`
	PageID    string        `json:"page_id"`
	BlockID   string        `json:"block_id"`
	Value     any           `json:"value"`
	Duration  time.Duration `json:"duration"`
}

// PageEvent is passed to synchronous lifecycle hooks when a page is entered or left.
type PageEvent struct {
	SessionID string
	FunnelID  string
	PageID    string
	Duration  time.Duration
}

// DiagnosticKind classifies an anomaly absorbed during evaluation.
type DiagnosticKind string

const (
	DiagnosticUnknownBlock       DiagnosticKind = "unknown_block"
	DiagnosticUndeclaredVariable DiagnosticKind = "undeclared_variable"
	DiagnosticTypeMismatch       DiagnosticKind = "type_mismatch"
	DiagnosticExpression         DiagnosticKind = "expression_failed"
	DiagnosticUnknownAction      DiagnosticKind = "unknown_action"
)

// Diagnostic reports an evaluation anomaly that was degraded to a safe default.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	RuleID  string         `json:"rule_id,omitempty"`
	Target  string         `json:"target,omitempty"`
	Message string         `json:"message"`
}

// LifecycleHooks defines synchronous callbacks for engine observability.
// They run on the caller's goroutine and must not block.
type LifecycleHooks struct {
	OnPageEnter       func(context.Context, *PageEvent)
	OnPageLeave       func(context.Context, *PageEvent)
	OnSessionComplete func(context.Context, *State)
	OnDiagnostic      func(context.Context, Diagnostic)
}
