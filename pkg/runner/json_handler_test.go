package runner_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/runner"
)

func decodeLines(t *testing.T, out *bytes.Buffer) []runner.Message {
	t.Helper()
	var msgs []runner.Message
	dec := json.NewDecoder(out)
	for {
		var m runner.Message
		err := dec.Decode(&m)
		if err == io.EOF {
			return msgs
		}
		require.NoError(t, err)
		msgs = append(msgs, m)
	}
}

func TestJSONHandler_Collect(t *testing.T) {
	in := strings.Join([]string{
		"",
		"not json",
		`{"action": "dance"}`,
		`{"answers": {"color": "red", "score": 3}}`,
		`{"action": "back"}`,
	}, "\n")
	out := &bytes.Buffer{}
	h := runner.NewJSONHandler(strings.NewReader(in), out)
	ctx := context.Background()

	cmd, err := h.Collect(ctx, surveyView())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"color": "red", "score": 3.0}, cmd.Answers)

	cmd, err = h.Collect(ctx, surveyView())
	require.NoError(t, err)
	assert.True(t, cmd.Back)

	_, err = h.Collect(ctx, surveyView())
	assert.ErrorIs(t, err, io.EOF)

	msgs := decodeLines(t, out)
	require.Len(t, msgs, 2)
	assert.Equal(t, runner.MessageSystem, msgs[0].Type)
	assert.Contains(t, msgs[0].Message, "invalid request")
	assert.Equal(t, `unknown action "dance"`, msgs[1].Message)
}

func TestJSONHandler_StripsControlCharacters(t *testing.T) {
	out := &bytes.Buffer{}
	h := runner.NewJSONHandler(strings.NewReader("{\"answers\": {\"name\": \"a\x1b[2Jb\"}}\n"), out)

	cmd, err := h.Collect(context.Background(), surveyView())
	require.NoError(t, err)
	assert.Equal(t, "a[2Jb", cmd.Answers["name"])
	assert.Empty(t, out.String())
}

func TestJSONHandler_Output(t *testing.T) {
	out := &bytes.Buffer{}
	h := runner.NewJSONHandler(strings.NewReader(""), out)
	ctx := context.Background()

	page := "survey"
	require.NoError(t, h.Start(ctx, &domain.Definition{ID: "quiz", Title: "Quiz"}))
	require.NoError(t, h.Render(ctx, surveyView(), &domain.StateDiff{CurrentPageID: &page}))
	require.NoError(t, h.Complete(ctx, &domain.State{Status: domain.StatusComplete}, nil))

	msgs := decodeLines(t, out)
	require.Len(t, msgs, 3)
	assert.Equal(t, "quiz", msgs[0].FunnelID)
	assert.Equal(t, "survey", msgs[1].View.Page.ID)
	assert.Equal(t, 2, msgs[1].View.Position)
	assert.Equal(t, "survey", *msgs[1].Diff.CurrentPageID)
	assert.Equal(t, domain.StatusComplete, msgs[2].State.Status)
}
