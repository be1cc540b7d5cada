package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/observability"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnPageEnter(ctx, &domain.PageEvent{FunnelID: "quiz", PageID: "p1"})
	hooks.OnPageEnter(ctx, &domain.PageEvent{FunnelID: "quiz", PageID: "p1"})
	hooks.OnPageLeave(ctx, &domain.PageEvent{FunnelID: "quiz", PageID: "p1", Duration: 3 * time.Second})
	hooks.OnSessionComplete(ctx, &domain.State{FunnelID: "quiz"})
	hooks.OnDiagnostic(ctx, domain.Diagnostic{Kind: domain.DiagnosticExpression})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PageViews.WithLabelValues("quiz", "p1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsCompleted.WithLabelValues("quiz")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Diagnostics.WithLabelValues("expression_failed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.PageDuration))

	expected := `
# HELP funnel_sessions_completed_total Total number of sessions that reached the end of a funnel
# TYPE funnel_sessions_completed_total counter
funnel_sessions_completed_total{funnel_id="quiz"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "funnel_sessions_completed_total"))
}

func TestCombine(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{
		OnPageEnter: func(context.Context, *domain.PageEvent) { calls = append(calls, "a") },
	}
	b := domain.LifecycleHooks{
		OnPageEnter:  func(context.Context, *domain.PageEvent) { calls = append(calls, "b") },
		OnDiagnostic: func(context.Context, domain.Diagnostic) { calls = append(calls, "diag") },
	}

	hooks := observability.Combine(a, domain.LifecycleHooks{}, b)
	hooks.OnPageEnter(context.Background(), &domain.PageEvent{})
	hooks.OnDiagnostic(context.Background(), domain.Diagnostic{})

	assert.Equal(t, []string{"a", "b", "diag"}, calls)
	assert.Nil(t, hooks.OnPageLeave)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	hooks := observability.LoggingHooks(logger)
	hooks.OnPageEnter(context.Background(), &domain.PageEvent{FunnelID: "quiz", PageID: "p2"})
	hooks.OnSessionComplete(context.Background(), &domain.State{FunnelID: "quiz", History: []string{"p1", "p2"}})

	out := buf.String()
	assert.Contains(t, out, "page_enter")
	assert.Contains(t, out, "page_id=p2")
	assert.Contains(t, out, "pages=2")
}
