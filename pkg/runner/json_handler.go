package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/funnel/pkg/answers"
	"github.com/aretw0/funnel/pkg/domain"
)

// Message types written by the JSONHandler, one JSON object per line.
const (
	MessageStart    = "start"
	MessagePage     = "page"
	MessageInvalid  = "invalid"
	MessageSystem   = "system"
	MessageComplete = "complete"
)

// Message is one line of JSONHandler output.
type Message struct {
	Type        string              `json:"type"`
	FunnelID    string              `json:"funnel_id,omitempty"`
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	View        *domain.PageView    `json:"view,omitempty"`
	Diff        *domain.StateDiff   `json:"diff,omitempty"`
	State       *domain.State       `json:"state,omitempty"`
	Errors      map[string][]string `json:"errors,omitempty"`
	Message     string              `json:"message,omitempty"`
}

// Request is one line of JSONHandler input:
//
//	{"answers": {"email": "ada@example.com"}}
//	{"action": "back"}
type Request struct {
	Action  string         `json:"action,omitempty"`
	Answers map[string]any `json:"answers,omitempty"`
}

// JSONHandler implements IOHandler over JSON Lines, for hosts driving the funnel programmatically.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Start(ctx context.Context, def *domain.Definition) error {
	return h.Encoder.Encode(Message{Type: MessageStart, FunnelID: def.ID, Title: def.Title, Description: def.Description})
}

func (h *JSONHandler) Render(ctx context.Context, view *domain.PageView, diff *domain.StateDiff) error {
	return h.Encoder.Encode(Message{Type: MessagePage, View: view, Diff: diff})
}

func (h *JSONHandler) Collect(ctx context.Context, view *domain.PageView) (Command, error) {
	for {
		line, err := h.Reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" {
			if err != nil {
				return Command{}, err
			}
			continue
		}

		clean, serr := SanitizeInput(line)
		if serr != nil {
			if err := h.SystemOutput(ctx, serr.Error()); err != nil {
				return Command{}, err
			}
			continue
		}

		var req Request
		if jerr := json.Unmarshal([]byte(clean), &req); jerr != nil {
			if err := h.SystemOutput(ctx, fmt.Sprintf("invalid request: %v", jerr)); err != nil {
				return Command{}, err
			}
			continue
		}
		switch req.Action {
		case "", "submit":
			return Command{Answers: req.Answers}, nil
		case "back":
			return Command{Back: true}, nil
		}
		if err := h.SystemOutput(ctx, fmt.Sprintf("unknown action %q", req.Action)); err != nil {
			return Command{}, err
		}
	}
}

func (h *JSONHandler) Reject(ctx context.Context, errs []*answers.ValidationError) error {
	aggr := &answers.AggregateError{Errors: errs}
	return h.Encoder.Encode(Message{Type: MessageInvalid, Errors: aggr.ByBlock()})
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(Message{Type: MessageSystem, Message: msg})
}

func (h *JSONHandler) Complete(ctx context.Context, state *domain.State, diff *domain.StateDiff) error {
	return h.Encoder.Encode(Message{Type: MessageComplete, State: state, Diff: diff})
}
