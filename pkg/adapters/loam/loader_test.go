package loam_test

import (
	"context"
	"testing"

	"github.com/aretw0/loam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/funnel/internal/testutils"
	loamAdapter "github.com/aretw0/funnel/pkg/adapters/loam"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
)

var _ ports.DefinitionLoader = (*loamAdapter.Loader)(nil)

func setupRepo(t *testing.T, files map[string]string) *loamAdapter.Loader {
	t.Helper()
	_, repo := testutils.SetupDefinitionRepo(t, files)
	return loamAdapter.New(loam.NewTypedRepository[loamAdapter.DefinitionMetadata](repo))
}

const quizMarkdown = `---
id: quiz
title: Quick quiz
variables:
  - name: score
    type: number
    default: 0
pages:
  - id: p1
    blocks:
      - id: choice
        type: multiple_choice
  - id: p2
    blocks:
      - id: name
        type: text_input
rules:
  - id: skip
    page_id: p1
    condition:
      op: eq
      vars:
        - type: block
          value: choice
        - type: constant
          value: "no"
    actions:
      - kind: hide
        details:
          target: p2
---
# Welcome

Two quick questions.`

func TestLoader_GetDefinition(t *testing.T) {
	loader := setupRepo(t, map[string]string{"quiz.md": quizMarkdown})

	def, err := loader.GetDefinition(context.Background(), "quiz", "")
	require.NoError(t, err)

	assert.Equal(t, "quiz", def.ID)
	assert.Equal(t, "Quick quiz", def.Title)
	assert.Contains(t, def.Description, "Two quick questions.")
	require.Len(t, def.Pages, 2)
	assert.Equal(t, domain.BlockTextInput, def.Pages[1].Blocks[0].Type)
	require.Len(t, def.Rules, 1)
	require.NotNil(t, def.Rules[0].Condition)
	assert.Equal(t, domain.OperandBlock, def.Rules[0].Condition.Vars[0].Type)
	assert.Equal(t, domain.Hide("p2"), def.Rules[0].Actions[0])
	require.Len(t, def.Variables, 1)
	assert.Equal(t, domain.VariableNumber, def.Variables[0].Type)
}

func TestLoader_DraftsAndListing(t *testing.T) {
	loader := setupRepo(t, map[string]string{
		"quiz.md":                  quizMarkdown,
		"signup.json":              `{"title": "Signup", "pages": [{"id": "email"}]}`,
		"drafts/quiz.json":         `{"id": "quiz", "pages": [{"id": "only"}]}`,
		".funnel/sessions/s1.json": `{"session_id": "s1", "funnel_id": "quiz"}`,
	})
	ctx := context.Background()

	ids, err := loader.ListDefinitions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"quiz", "signup"}, ids)

	draft, err := loader.GetDefinition(ctx, "quiz", domain.VersionDraft)
	require.NoError(t, err)
	assert.Equal(t, domain.VersionDraft, draft.Version)
	require.Len(t, draft.Pages, 1)
	assert.Equal(t, "only", draft.Pages[0].ID)

	signup, err := loader.GetDefinition(ctx, "signup", "")
	require.NoError(t, err)
	assert.Equal(t, "signup", signup.ID, "id defaults to the document name")
}

func TestLoader_NotFound(t *testing.T) {
	loader := setupRepo(t, map[string]string{"quiz.md": quizMarkdown})

	_, err := loader.GetDefinition(context.Background(), "missing", "")
	assert.ErrorIs(t, err, domain.ErrDefinitionNotFound)
}

func TestLoader_RejectsUnknownKeys(t *testing.T) {
	loader := setupRepo(t, map[string]string{
		"bad.json": `{"pages": [{"id": "p1", "blokcs": []}]}`,
	})

	_, err := loader.GetDefinition(context.Background(), "bad", "")
	assert.Error(t, err)
}
