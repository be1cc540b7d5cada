package validator

import (
	"fmt"
	"strings"
)

// Severity tells whether an issue blocks loading or publishing.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding about a definition.
type Issue struct {
	Severity Severity `json:"severity"`
	Path     string   `json:"path"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// Report collects every issue found in a definition.
type Report struct {
	Issues []Issue `json:"issues"`
}

func (r *Report) errorf(path, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Severity: SeverityError, Path: path, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) warnf(path, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Severity: SeverityWarning, Path: path, Message: fmt.Sprintf(format, args...)})
}

// Errors returns the issues that make the definition unusable.
func (r *Report) Errors() []Issue { return r.filter(SeverityError) }

// Warnings returns the issues a publisher should look at; the engine degrades them safely at runtime.
func (r *Report) Warnings() []Issue { return r.filter(SeverityWarning) }

func (r *Report) filter(s Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == s {
			out = append(out, i)
		}
	}
	return out
}

// Err returns a *ReportError when the report holds errors, or when strict is set and it holds warnings.
func (r *Report) Err(strict bool) error {
	issues := r.Errors()
	if strict {
		issues = append(issues, r.Warnings()...)
	}
	if len(issues) == 0 {
		return nil
	}
	return &ReportError{Issues: issues}
}

// ReportError is returned when a definition fails validation.
type ReportError struct {
	Issues []Issue
}

func (e *ReportError) Error() string {
	if len(e.Issues) == 1 {
		return "invalid definition: " + e.Issues[0].String()
	}
	lines := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		lines[i] = issue.String()
	}
	return fmt.Sprintf("invalid definition, found %d issues:\n- %s", len(e.Issues), strings.Join(lines, "\n- "))
}
