package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/pkg/adapters/memory"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/dsl"
	"github.com/aretw0/funnel/pkg/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	loader, err := dsl.New("signup").
		Page("p1").
		Choice("plan", "Plan", "basic", "pro").
		When("pro-skips-company", domain.Compare(domain.OpEq, domain.BlockRef("plan"), domain.Constant("pro")),
			domain.Hide("p2")).
		Page("p2").Text("company", "Company").
		Page("p3").Text("email", "Email", dsl.Required(), dsl.Email()).
		Done().
		Build()
	require.NoError(t, err)

	eng, err := funnel.New("", funnel.WithLoader(loader))
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close(context.Background()) })

	return NewServer(eng, session.NewManager(memory.NewStore()), nil)
}

func TestServer_SessionLifecycle(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	step, err := s.handleStart(ctx, req, StartArgs{FunnelID: "signup", SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "p1", step.Next)
	require.NotNil(t, step.View)
	assert.Equal(t, "p1", step.View.Page.ID)

	step, err = s.handleSubmit(ctx, req, SubmitArgs{SessionID: "s1", PageID: "p1", Answers: map[string]any{"plan": "pro"}})
	require.NoError(t, err)
	assert.Equal(t, "p3", step.Next)

	_, err = s.handleSubmit(ctx, req, SubmitArgs{SessionID: "s1", PageID: "p3", Answers: map[string]any{"email": "nope"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")

	step, err = s.handleBack(ctx, req, SessionArgs{SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "p1", step.Next)

	_, err = s.handleSubmit(ctx, req, SubmitArgs{SessionID: "s1", PageID: "p1", Answers: map[string]any{"plan": "pro"}})
	require.NoError(t, err)
	step, err = s.handleSubmit(ctx, req, SubmitArgs{SessionID: "s1", PageID: "p3", Answers: map[string]any{"email": "ada@example.com"}})
	require.NoError(t, err)
	assert.Equal(t, domain.Complete, step.Next)
	assert.Nil(t, step.View)

	step, err = s.handleGet(ctx, req, SessionArgs{SessionID: "s1"})
	require.NoError(t, err)
	assert.True(t, step.State.IsComplete())
	assert.Equal(t, []string{"p1", "p3"}, step.State.History)
}

func TestServer_StartIsIdempotent(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	first, err := s.handleStart(ctx, req, StartArgs{FunnelID: "signup"})
	require.NoError(t, err)
	require.NotEmpty(t, first.State.SessionID)

	_, err = s.handleSubmit(ctx, req, SubmitArgs{SessionID: first.State.SessionID, PageID: "p1", Answers: map[string]any{"plan": "basic"}})
	require.NoError(t, err)

	again, err := s.handleStart(ctx, req, StartArgs{FunnelID: "signup", SessionID: first.State.SessionID})
	require.NoError(t, err)
	assert.Equal(t, "p2", again.Next)
}

func TestServer_Errors(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	_, err := s.handleStart(ctx, req, StartArgs{})
	assert.Error(t, err)

	_, err = s.handleStart(ctx, req, StartArgs{FunnelID: "missing"})
	assert.ErrorIs(t, err, domain.ErrDefinitionNotFound)

	_, err = s.handleGet(ctx, req, SessionArgs{SessionID: "nope"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = s.handleStart(ctx, req, StartArgs{FunnelID: "signup", SessionID: "s1"})
	require.NoError(t, err)
	_, err = s.handleSubmit(ctx, req, SubmitArgs{SessionID: "s1", PageID: "p3", Answers: map[string]any{}})
	assert.ErrorIs(t, err, domain.ErrPageMismatch)

	_, err = s.handleSubmit(ctx, req, SubmitArgs{SessionID: "s1", PageID: "p1", Answers: map[string]any{"plan": "a\xffb"}})
	assert.Error(t, err)
}

func TestServer_ListAndGraph(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleListFunnels(ctx, mcp.CallToolRequest{})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.JSONEq(t, `["signup"]`, text.Text)

	out, err := s.graph(ctx, GraphArgs{FunnelID: "signup"})
	require.NoError(t, err)
	assert.Contains(t, out, "p1 --> p2")

	_, err = s.handleStart(ctx, mcp.CallToolRequest{}, StartArgs{FunnelID: "signup", SessionID: "s1"})
	require.NoError(t, err)
	_, err = s.handleSubmit(ctx, mcp.CallToolRequest{}, SubmitArgs{SessionID: "s1", PageID: "p1", Answers: map[string]any{"plan": "pro"}})
	require.NoError(t, err)

	out, err = s.graph(ctx, GraphArgs{FunnelID: "signup", SessionID: "s1"})
	require.NoError(t, err)
	assert.Contains(t, out, "class p2 hidden;")
	assert.Contains(t, out, "class p3 current;")

	raw, err := s.definitions(ctx)
	require.NoError(t, err)
	var defs []domain.Definition
	require.NoError(t, json.Unmarshal(raw, &defs))
	require.Len(t, defs, 1)
	assert.Equal(t, "signup", defs[0].ID)
}
