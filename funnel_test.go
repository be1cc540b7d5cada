package funnel_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/internal/testutils"
	"github.com/aretw0/funnel/internal/validator"
	"github.com/aretw0/funnel/pkg/adapters/memory"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/dsl"
)

// quizLoader: p1 (choice) -> p2 (name) -> p3 (email); choosing A hides p2 and sets score.
func quizLoader(t *testing.T) *memory.Loader {
	t.Helper()
	loader, err := dsl.New("quiz").
		Number("score", 0).
		Page("p1").
		Choice("choice", "Pick one", "A", "B").
		When("skip-p2", domain.Compare(domain.OpEq, domain.BlockRef("choice"), domain.Constant("A")),
			domain.Hide("p2"), domain.SetVariable("score", 10)).
		Page("p2").Text("name", "Name").
		Page("p3").Text("email", "Email").
		Done().
		Build()
	require.NoError(t, err)
	return loader
}

func newEngine(t *testing.T, opts ...funnel.Option) *funnel.Engine {
	t.Helper()
	eng, err := funnel.New("", append([]funnel.Option{funnel.WithLoader(quizLoader(t))}, opts...)...)
	require.NoError(t, err)
	return eng
}

func TestTracker_SkipPathAndBack(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()
	defer eng.Close(ctx)

	tr, err := eng.Start(ctx, "quiz", funnel.StartOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, tr.State().SessionID)
	assert.Equal(t, "p1", tr.CurrentPage())

	next, err := tr.SubmitPage(ctx, "p1", map[string]any{"choice": "A"})
	require.NoError(t, err)
	assert.Equal(t, "p3", next)
	score, ok := tr.Variable("score")
	require.True(t, ok)
	assert.EqualValues(t, 10, score)

	back, ok, err := tr.GoBack(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "p1", back)

	view, err := tr.View()
	require.NoError(t, err)
	assert.Equal(t, "A", view.Answers["choice"])
	assert.False(t, view.CanGoBack)

	_, ok, err = tr.GoBack(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// Changing the answer reverts the skip and the score.
	next, err = tr.SubmitPage(ctx, "p1", map[string]any{"choice": "B"})
	require.NoError(t, err)
	assert.Equal(t, "p2", next)
	score, _ = tr.Variable("score")
	assert.EqualValues(t, 0, score)
}

func TestTracker_CompleteRejectsTransitions(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()
	defer eng.Close(ctx)

	tr, err := eng.Start(ctx, "quiz", funnel.StartOptions{SessionID: "s1"})
	require.NoError(t, err)

	_, err = tr.SubmitPage(ctx, "p1", map[string]any{"choice": "A"})
	require.NoError(t, err)
	next, err := tr.SubmitPage(ctx, "p3", map[string]any{"email": "a@b.c"})
	require.NoError(t, err)
	assert.Equal(t, domain.Complete, next)
	assert.Equal(t, domain.StatusComplete, tr.Status())

	history := tr.State().History
	_, err = tr.SubmitPage(ctx, "p3", nil)
	assert.ErrorIs(t, err, domain.ErrSessionComplete)
	_, _, err = tr.GoBack(ctx)
	assert.ErrorIs(t, err, domain.ErrSessionComplete)
	assert.Equal(t, history, tr.State().History)

	_, err = tr.View()
	assert.ErrorIs(t, err, domain.ErrSessionComplete)
}

func TestEngine_DeliversToSinksOnClose(t *testing.T) {
	sink := memory.NewSink()
	eng := newEngine(t, funnel.WithAnalyticsSink(sink), funnel.WithAnswerSink(sink))
	ctx := context.Background()

	tr, err := eng.Start(ctx, "quiz", funnel.StartOptions{SessionID: "s1", VisitorID: "v1"})
	require.NoError(t, err)
	_, err = tr.SubmitPage(ctx, "p1", map[string]any{"choice": "B"})
	require.NoError(t, err)

	closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, eng.Close(closeCtx))

	var types []domain.EventType
	for _, ev := range sink.Events() {
		types = append(types, ev.Type)
		assert.Equal(t, "v1", ev.VisitorID)
	}
	assert.Equal(t, []domain.EventType{
		domain.EventFunnelStarted,
		domain.EventPageViewed,
		domain.EventQuestionAnswered,
		domain.EventPageCompleted,
		domain.EventPageViewed,
	}, types)

	records := sink.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "choice", records[0].BlockID)
	assert.Equal(t, "B", records[0].Value)
}

func TestEngine_Resume(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()
	defer eng.Close(ctx)

	tr, err := eng.Start(ctx, "quiz", funnel.StartOptions{SessionID: "s1"})
	require.NoError(t, err)
	_, err = tr.SubmitPage(ctx, "p1", map[string]any{"choice": "B"})
	require.NoError(t, err)

	store := memory.NewStore()
	require.NoError(t, store.Save(ctx, "s1", tr.State()))
	saved, err := store.Load(ctx, "s1")
	require.NoError(t, err)

	resumed, err := eng.Resume(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, "p2", resumed.CurrentPage())

	next, err := resumed.SubmitPage(ctx, "p2", map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "p3", next)
}

func TestEngine_RejectsInvalidDefinition(t *testing.T) {
	broken := &domain.Definition{
		ID:    "broken",
		Pages: []domain.Page{{ID: "p1"}, {ID: "p1"}},
	}
	warned := dsl.New("warned").
		Page("p1").Text("a", "A").
		When("", nil, domain.JumpTo("ghost")).
		Done().
		Definition()
	loader, err := memory.NewFromDefinitions(broken, warned)
	require.NoError(t, err)
	ctx := context.Background()

	eng, err := funnel.New("", funnel.WithLoader(loader))
	require.NoError(t, err)
	defer eng.Close(ctx)

	var reportErr *validator.ReportError
	_, err = eng.Start(ctx, "broken", funnel.StartOptions{})
	assert.ErrorAs(t, err, &reportErr)

	_, err = eng.Start(ctx, "warned", funnel.StartOptions{})
	assert.NoError(t, err)

	strict, err := funnel.New("", funnel.WithLoader(loader), funnel.WithStrictValidation())
	require.NoError(t, err)
	defer strict.Close(ctx)
	_, err = strict.Start(ctx, "warned", funnel.StartOptions{})
	assert.ErrorAs(t, err, &reportErr)

	_, err = eng.Start(ctx, "missing", funnel.StartOptions{})
	assert.ErrorIs(t, err, domain.ErrDefinitionNotFound)
}

func TestNew_FileLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quiz.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
id: quiz
pages:
  - id: p1
    blocks:
      - {id: name, type: text_input}
`), 0o644))

	eng, err := funnel.New(path)
	require.NoError(t, err)
	ctx := context.Background()
	defer eng.Close(ctx)
	assert.Equal(t, "quiz.yaml", eng.Name)

	tr, err := eng.Start(ctx, "quiz", funnel.StartOptions{})
	require.NoError(t, err)
	next, err := tr.SubmitPage(ctx, "p1", map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, domain.Complete, next)

	_, err = funnel.New("")
	assert.Error(t, err)
}

func TestNew_DirectoryLoader(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{
		"quiz.json":        `{"id": "quiz", "pages": [{"id": "p1", "blocks": [{"id": "name", "type": "text_input"}]}, {"id": "p2"}]}`,
		"drafts/quiz.json": `{"id": "quiz", "pages": [{"id": "only"}]}`,
	})

	eng, err := funnel.New(dir)
	require.NoError(t, err)
	ctx := context.Background()
	defer eng.Close(ctx)

	ids, err := eng.Loader().ListDefinitions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"quiz"}, ids)

	tr, err := eng.Start(ctx, "quiz", funnel.StartOptions{})
	require.NoError(t, err)
	next, err := tr.SubmitPage(ctx, "p1", map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "p2", next)

	draft, err := eng.Start(ctx, "quiz", funnel.StartOptions{Version: domain.VersionDraft})
	require.NoError(t, err)
	assert.Equal(t, "only", draft.CurrentPage())
}
