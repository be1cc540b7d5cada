package answers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/funnel/pkg/domain"
)

// ValidationError is a single failed constraint on a block answer.
type ValidationError struct {
	BlockID string
	Rule    domain.ValidationType
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("block %q: %s", e.BlockID, e.Message)
}

// AggregateError holds every failure of a page.
type AggregateError struct {
	Errors []*ValidationError
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err.Error())
	}
	return b.String()
}

// ByBlock groups failure messages by block id, for inline display.
func (e *AggregateError) ByBlock() map[string][]string {
	out := make(map[string][]string)
	for _, fe := range e.Errors {
		out[fe.BlockID] = append(out[fe.BlockID], fe.Message)
	}
	return out
}

// Errors returns the individual failures if err is an AggregateError, otherwise nil.
func Errors(err error) []*ValidationError {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}
