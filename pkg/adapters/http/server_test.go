package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/funnel"
	funnelhttp "github.com/aretw0/funnel/pkg/adapters/http"
	"github.com/aretw0/funnel/pkg/adapters/memory"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/dsl"
	"github.com/aretw0/funnel/pkg/runner"
	"github.com/aretw0/funnel/pkg/session"
)

func newServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()
	loader, err := dsl.New("signup").
		Page("p1").
		Choice("plan", "Pick a plan", "basic", "pro").
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

	store := memory.NewStore()
	srv := httptest.NewServer(funnelhttp.NewServer(eng, session.NewManager(store)).Routes())
	t.Cleanup(srv.Close)
	return srv, store
}

func post(t *testing.T, url string, body any) (int, []byte) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, buf.Bytes()
}

func decodeStep(t *testing.T, raw []byte) runner.Step {
	t.Helper()
	var step runner.Step
	require.NoError(t, json.Unmarshal(raw, &step))
	return step
}

func TestServer_SessionLifecycle(t *testing.T) {
	srv, store := newServer(t)

	code, raw := post(t, srv.URL+"/funnels/signup/sessions", funnelhttp.StartRequest{SessionID: "s1"})
	require.Equal(t, http.StatusCreated, code, string(raw))
	step := decodeStep(t, raw)
	assert.Equal(t, "p1", step.View.Page.ID)

	code, _ = post(t, srv.URL+"/funnels/signup/sessions", funnelhttp.StartRequest{SessionID: "s1"})
	assert.Equal(t, http.StatusOK, code)

	code, raw = post(t, srv.URL+"/sessions/s1/pages/p1", funnelhttp.SubmitRequest{Answers: map[string]any{"plan": "pro"}})
	require.Equal(t, http.StatusOK, code, string(raw))
	step = decodeStep(t, raw)
	assert.Equal(t, "p3", step.Next)
	assert.Equal(t, "pro", step.Diff.Answers["plan"])

	code, raw = post(t, srv.URL+"/sessions/s1/pages/p3", funnelhttp.SubmitRequest{Answers: map[string]any{"email": "nope"}})
	require.Equal(t, http.StatusUnprocessableEntity, code)
	var failure funnelhttp.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &failure))
	assert.Equal(t, map[string][]string{"email": {"must be a valid email address"}}, failure.Errors)

	code, _ = post(t, srv.URL+"/sessions/s1/pages/p1", funnelhttp.SubmitRequest{})
	assert.Equal(t, http.StatusConflict, code)

	code, raw = post(t, srv.URL+"/sessions/s1/back", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "p1", decodeStep(t, raw).View.Page.ID)

	post(t, srv.URL+"/sessions/s1/pages/p1", funnelhttp.SubmitRequest{Answers: map[string]any{"plan": "pro"}})
	code, raw = post(t, srv.URL+"/sessions/s1/pages/p3", funnelhttp.SubmitRequest{Answers: map[string]any{"email": "ada@example.com"}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, domain.Complete, decodeStep(t, raw).Next)

	saved, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusComplete, saved.Status)

	resp, err := http.Get(srv.URL + "/sessions/s1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	code, _ = post(t, srv.URL+"/sessions/s1/back", nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestServer_NotFound(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/sessions/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	code, _ := post(t, srv.URL+"/funnels/other/sessions", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServer_GeneratesSessionID(t *testing.T) {
	srv, _ := newServer(t)

	code, raw := post(t, srv.URL+"/funnels/signup/sessions", funnelhttp.StartRequest{})
	require.Equal(t, http.StatusCreated, code)
	assert.NotEmpty(t, decodeStep(t, raw).State.SessionID)
}

func TestServer_EventsStreamDiffs(t *testing.T) {
	srv, _ := newServer(t)
	post(t, srv.URL+"/funnels/signup/sessions", funnelhttp.StartRequest{SessionID: "s1"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sessions/s1/events?watch=answers", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewReader(resp.Body)
	first, err := lines.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", first)

	post(t, srv.URL+"/sessions/s1/pages/p1", funnelhttp.SubmitRequest{Answers: map[string]any{"plan": "basic"}})

	for {
		line, err := lines.ReadString('\n')
		require.NoError(t, err)
		if data, ok := strings.CutPrefix(line, "data: "); ok && data != "connected\n" {
			var diff domain.StateDiff
			require.NoError(t, json.Unmarshal([]byte(data), &diff))
			assert.Equal(t, "basic", diff.Answers["plan"])
			assert.Equal(t, "p2", *diff.CurrentPageID)
			return
		}
	}
}
