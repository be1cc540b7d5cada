package runner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/funnel/pkg/answers"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/runner"
)

func emailView(prefill map[string]any) *domain.PageView {
	return &domain.PageView{
		Page: domain.Page{ID: "p3"},
		Blocks: []domain.Block{
			{ID: "note", Type: domain.BlockParagraph, Validations: []domain.Validation{{Type: domain.ValidationRequired}}},
			{ID: "email", Type: domain.BlockTextInput, Validations: []domain.Validation{
				{Type: domain.ValidationRequired},
				{Type: domain.ValidationEmail},
			}},
		},
		Answers: prefill,
	}
}

func TestValidationInterceptor(t *testing.T) {
	check := runner.ValidationInterceptor(answers.New())
	ctx := context.Background()

	t.Run("missing answer", func(t *testing.T) {
		err := check(ctx, emailView(nil), map[string]any{})
		errs := answers.Errors(err)
		require.Len(t, errs, 1)
		assert.Equal(t, "email", errs[0].BlockID)
		assert.Equal(t, domain.ValidationRequired, errs[0].Rule)
	})

	t.Run("earlier answer counts", func(t *testing.T) {
		err := check(ctx, emailView(map[string]any{"email": "ada@example.com"}), map[string]any{})
		assert.NoError(t, err)
	})

	t.Run("nil clears earlier answer", func(t *testing.T) {
		err := check(ctx, emailView(map[string]any{"email": "ada@example.com"}), map[string]any{"email": nil})
		assert.Error(t, err)
	})

	t.Run("submission overrides earlier answer", func(t *testing.T) {
		err := check(ctx, emailView(map[string]any{"email": "ada@example.com"}), map[string]any{"email": "nope"})
		errs := answers.Errors(err)
		require.Len(t, errs, 1)
		assert.Equal(t, domain.ValidationEmail, errs[0].Rule)
	})
}

func TestMultiInterceptor(t *testing.T) {
	ctx := context.Background()
	refuse := errors.New("closed for maintenance")
	var calls []string

	record := func(name string, err error) runner.Interceptor {
		return func(context.Context, *domain.PageView, map[string]any) error {
			calls = append(calls, name)
			return err
		}
	}

	chain := runner.MultiInterceptor(record("a", nil), record("b", refuse), record("c", nil))
	assert.ErrorIs(t, chain(ctx, emailView(nil), nil), refuse)
	assert.Equal(t, []string{"a", "b"}, calls)

	assert.NoError(t, runner.AcceptAll()(ctx, emailView(nil), nil))
}
