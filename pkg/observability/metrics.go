package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/funnel/pkg/domain"
)

// Metrics holds the Prometheus collectors updated by the engine hooks.
type Metrics struct {
	PageViews         *prometheus.CounterVec
	PageDuration      *prometheus.HistogramVec
	SessionsCompleted *prometheus.CounterVec
	Diagnostics       *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PageViews: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funnel_page_views_total",
				Help: "Total number of pages entered",
			},
			[]string{"funnel_id", "page_id"},
		),
		PageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "funnel_page_duration_seconds",
				Help:    "Time spent on a page before leaving it",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"funnel_id", "page_id"},
		),
		SessionsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funnel_sessions_completed_total",
				Help: "Total number of sessions that reached the end of a funnel",
			},
			[]string{"funnel_id"},
		),
		Diagnostics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funnel_rule_diagnostics_total",
				Help: "Rule evaluation anomalies degraded to a safe default",
			},
			[]string{"kind"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.PageViews, m.PageDuration, m.SessionsCompleted, m.Diagnostics)
	}
	return m
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPageEnter: func(_ context.Context, e *domain.PageEvent) {
			m.PageViews.WithLabelValues(e.FunnelID, e.PageID).Inc()
		},
		OnPageLeave: func(_ context.Context, e *domain.PageEvent) {
			m.PageDuration.WithLabelValues(e.FunnelID, e.PageID).Observe(e.Duration.Seconds())
		},
		OnSessionComplete: func(_ context.Context, s *domain.State) {
			m.SessionsCompleted.WithLabelValues(s.FunnelID).Inc()
		},
		OnDiagnostic: func(_ context.Context, d domain.Diagnostic) {
			m.Diagnostics.WithLabelValues(string(d.Kind)).Inc()
		},
	}
}
