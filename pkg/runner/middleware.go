package runner

import (
	"context"

	"github.com/aretw0/funnel/pkg/answers"
	"github.com/aretw0/funnel/pkg/domain"
)

// Interceptor checks the answers collected for a page before they are submitted.
// A non-nil error keeps the respondent on the page; an *answers.AggregateError is shown field by field.
type Interceptor func(ctx context.Context, view *domain.PageView, submitted map[string]any) error

// MultiInterceptor chains interceptors, stopping at the first refusal.
func MultiInterceptor(interceptors ...Interceptor) Interceptor {
	return func(ctx context.Context, view *domain.PageView, submitted map[string]any) error {
		for _, interceptor := range interceptors {
			if err := interceptor(ctx, view, submitted); err != nil {
				return err
			}
		}
		return nil
	}
}

// ValidationInterceptor checks the visible input blocks against their declared validations.
// Answers given on an earlier visit count unless the submission clears them.
func ValidationInterceptor(v *answers.Validator) Interceptor {
	return func(ctx context.Context, view *domain.PageView, submitted map[string]any) error {
		effective := make(map[string]any, len(view.Answers)+len(submitted))
		for k, val := range view.Answers {
			effective[k] = val
		}
		for k, val := range submitted {
			if val == nil {
				delete(effective, k)
				continue
			}
			effective[k] = val
		}
		return v.Validate(view.InputBlocks(), effective)
	}
}

// AcceptAll lets every submission through.
func AcceptAll() Interceptor {
	return func(context.Context, *domain.PageView, map[string]any) error {
		return nil
	}
}
