package domain

import (
	"reflect"
	"slices"
)

// StateDiff is what changed between two snapshots of a session, shaped for clients
// that patch a local copy instead of replacing it. Absent fields did not change.
type StateDiff struct {
	SessionID     string  `json:"session_id"`
	CurrentPageID *string `json:"current_page_id,omitempty"`
	Status        *Status `json:"status,omitempty"`

	// A removed answer or variable appears with a nil value.
	Answers   map[string]any `json:"answers,omitempty"`
	Variables map[string]any `json:"variables,omitempty"`

	History *PathChange `json:"history,omitempty"`
}

// PathChange describes how the visited path moved. A submit enters pages at the end of the
// path; anything else, such as going back, sends the whole new path.
type PathChange struct {
	Entered []string `json:"entered,omitempty"`
	Path    []string `json:"path,omitempty"`
}

// Diff returns the changes from before to after, or nil when there are none.
// A nil before yields the whole of after, as needed for a first render.
func Diff(before, after *State) *StateDiff {
	if after == nil {
		return nil
	}
	first := before == nil
	if first {
		before = &State{}
	}

	d := &StateDiff{
		SessionID: after.SessionID,
		Answers:   changedKeys(before.Answers, after.Answers),
		Variables: changedKeys(before.Variables, after.Variables),
		History:   pathChange(before.History, after.History),
	}
	if first || before.CurrentPageID != after.CurrentPageID {
		d.CurrentPageID = &after.CurrentPageID
	}
	if first || before.Status != after.Status {
		d.Status = &after.Status
	}

	if d.IsEmpty() {
		return nil
	}
	return d
}

// IsEmpty reports whether applying d would change nothing.
func (d *StateDiff) IsEmpty() bool {
	return d.CurrentPageID == nil && d.Status == nil && d.History == nil &&
		len(d.Answers) == 0 && len(d.Variables) == 0
}

func changedKeys(before, after map[string]any) map[string]any {
	var out map[string]any
	set := func(k string, v any) {
		if out == nil {
			out = map[string]any{}
		}
		out[k] = v
	}
	for k, v := range after {
		if old, ok := before[k]; !ok || !reflect.DeepEqual(old, v) {
			set(k, v)
		}
	}
	for k := range before {
		if _, ok := after[k]; !ok {
			set(k, nil)
		}
	}
	return out
}

func pathChange(before, after []string) *PathChange {
	switch {
	case slices.Equal(before, after):
		return nil
	case len(after) > len(before) && slices.Equal(before, after[:len(before)]):
		return &PathChange{Entered: slices.Clone(after[len(before):])}
	default:
		return &PathChange{Path: slices.Clone(after)}
	}
}
