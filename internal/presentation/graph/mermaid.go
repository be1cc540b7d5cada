package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/funnel/internal/runtime"
	"github.com/aretw0/funnel/pkg/domain"
)

// Overlay marks a session's progress on the graph.
type Overlay struct {
	Visited  []string
	Current  string
	Hidden   []string
	Complete bool
}

// NewOverlay builds the overlay of state. hidden is what the rules of the visited path hid.
func NewOverlay(def *domain.Definition, state *domain.State, hidden runtime.TargetSet) *Overlay {
	o := &Overlay{
		Visited:  state.History,
		Current:  state.CurrentPageID,
		Complete: state.IsComplete(),
	}
	for _, p := range def.Pages {
		if !runtime.PageVisible(p, hidden) {
			o.Hidden = append(o.Hidden, p.ID)
		}
	}
	return o
}

// Mermaid produces a flowchart of the funnel:
//   - pages in declared order, joined by solid arrows, ending in a terminal node
//   - input pages as [/parallelograms/], content-only pages as [rectangles]
//   - jump, hide and show actions as dotted arrows labelled with their condition
//   - set_variable actions listed inside the page that owns the rule
func Mermaid(def *domain.Definition, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	assignments := make(map[string][]string)
	for _, r := range def.Rules {
		for _, a := range r.Actions {
			if a.Kind != domain.ActionSetVariable {
				continue
			}
			value := a.Details.Expression
			if value == "" {
				value = fmt.Sprint(a.Details.Value)
			}
			assignments[r.PageID] = append(assignments[r.PageID], a.Details.Target+" = "+value)
		}
	}

	for i, page := range def.Pages {
		id := sanitizeID(page.ID)
		label := page.ID
		if page.Title != "" {
			label = page.Title + " (" + page.ID + ")"
		}
		for _, line := range assignments[page.ID] {
			label += "<br/>" + line
		}

		opener, closer := "[", "]"
		if hasInput(page) {
			opener, closer = "[/", "/]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, escape(label), closer)

		next := domain.Complete
		if i+1 < len(def.Pages) {
			next = def.Pages[i+1].ID
		}
		fmt.Fprintf(&sb, "    %s --> %s\n", id, sanitizeID(next))
	}
	fmt.Fprintf(&sb, "    %s((\"%s\"))\n", domain.Complete, domain.Complete)

	for _, r := range def.Rules {
		from := sanitizeID(r.PageID)
		cond := "always"
		if r.Condition != nil {
			cond = r.Condition.String()
		}
		for _, a := range r.Actions {
			if !a.Kind.IsVisibility() {
				continue
			}
			target := a.Details.Target
			label := string(a.Kind) + ": " + cond
			if _, owner, ok := def.Block(target); ok {
				label = fmt.Sprintf("%s %s: %s", a.Kind, target, cond)
				target = owner
			}
			fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", from, escape(label), sanitizeID(target))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef hidden fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray:5 5,color:#757575;\n")

		seen := make(map[string]bool)
		for _, pageID := range overlay.Visited {
			if id := sanitizeID(pageID); !seen[id] {
				seen[id] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", id)
			}
		}
		for _, pageID := range overlay.Hidden {
			fmt.Fprintf(&sb, "    class %s hidden;\n", sanitizeID(pageID))
		}
		switch {
		case overlay.Complete:
			fmt.Fprintf(&sb, "    class %s current;\n", domain.Complete)
		case overlay.Current != "":
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeID(overlay.Current))
		}
	}

	return sb.String()
}

func hasInput(p domain.Page) bool {
	for _, b := range p.Blocks {
		if b.Type.IsInput() {
			return true
		}
	}
	return false
}

func escape(label string) string {
	return strings.ReplaceAll(label, "\"", "'")
}

func sanitizeID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
