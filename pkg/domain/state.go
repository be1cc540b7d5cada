package domain

import "time"

// Status defines where a session is in its lifecycle.
type Status string

const (
	StatusInProgress Status = "in_progress" // Has a current page
	StatusComplete   Status = "complete"    // Terminal: no more transitions
)

// State represents the snapshot of one respondent's pass through a funnel.
// Transitions never mutate a State; they return a new one.
type State struct {
	SessionID string  `json:"session_id" yaml:"session_id"`
	FunnelID  string  `json:"funnel_id" yaml:"funnel_id"`
	Version   Version `json:"version,omitempty" yaml:"version,omitempty"`
	VisitorID string  `json:"visitor_id,omitempty" yaml:"visitor_id,omitempty"`

	// CurrentPageID is empty once the session is complete.
	CurrentPageID string `json:"current_page_id" yaml:"current_page_id"`
	Status        Status `json:"status" yaml:"status"`

	// Answers maps block id to its latest value.
	Answers map[string]any `json:"answers" yaml:"answers"`

	// Variables maps variable name to its current value, seeded from declared defaults.
	Variables map[string]any `json:"variables" yaml:"variables"`

	// History holds the submitted pages in order. GoBack pops from its end.
	History []string `json:"history" yaml:"history"`

	StartedAt     time.Time `json:"started_at" yaml:"started_at"`
	PageEnteredAt time.Time `json:"page_entered_at" yaml:"page_entered_at"`
	CompletedAt   time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// NewState creates a clean in-progress state for a session.
func NewState(sessionID, funnelID string) *State {
	return &State{
		SessionID: sessionID,
		FunnelID:  funnelID,
		Status:    StatusInProgress,
		Answers:   make(map[string]any),
		Variables: make(map[string]any),
		History:   []string{},
	}
}

// IsComplete reports whether the session reached its terminal state.
func (s *State) IsComplete() bool {
	return s.Status == StatusComplete
}

// Clone returns a copy whose maps and history can be mutated independently.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	next := *s
	next.Answers = make(map[string]any, len(s.Answers))
	for k, v := range s.Answers {
		next.Answers[k] = v
	}
	next.Variables = make(map[string]any, len(s.Variables))
	for k, v := range s.Variables {
		next.Variables[k] = v
	}
	next.History = append([]string{}, s.History...)
	return &next
}
