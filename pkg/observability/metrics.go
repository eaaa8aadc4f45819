package observability

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aretw0/remoteui/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "remoteui"

// UnknownAction labels actions no handler claimed.
const UnknownAction = "unknown"

// Metrics collects counters and latency histograms for the server.
type Metrics struct {
	registry *prometheus.Registry

	Actions        *prometheus.CounterVec
	Renders        *prometheus.CounterVec
	RenderDuration *prometheus.HistogramVec
	Reloads        *prometheus.CounterVec
	ReloadDuration prometheus.Histogram
}

// NewMetrics registers every collector on a fresh registry, together with
// the Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "actions_total",
			Help:      "Actions received, by name and whether a handler claimed them.",
		}, []string{"action", "handled", "status"}),
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "renders_total",
			Help:      "Component trees produced, by route and whether the fallback tree was served.",
		}, []string{"route", "degraded"}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent producing a component tree.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		Reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "reloads_total",
			Help:      "Reload attempts, by trigger and result.",
		}, []string{"trigger", "result"}),
		ReloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "reload_duration_seconds",
			Help:      "Time spent loading and probing new bindings.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.Actions,
		m.Renders,
		m.RenderDuration,
		m.Reloads,
		m.ReloadDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAction: func(_ context.Context, e *domain.ActionEvent) {
			name := e.Action
			if !e.Handled {
				name = UnknownAction
			}
			status := "ok"
			if e.Error != "" {
				status = "error"
			}
			m.Actions.WithLabelValues(name, strconv.FormatBool(e.Handled), status).Inc()
		},
		OnRender: func(_ context.Context, e *domain.RenderEvent) {
			m.Renders.WithLabelValues(e.Route, strconv.FormatBool(e.Degraded)).Inc()
			m.RenderDuration.WithLabelValues(e.Route).Observe(e.Duration.Seconds())
		},
		OnReload: func(_ context.Context, e *domain.ReloadEvent) {
			result := "ok"
			if !e.OK() {
				result = "error"
			}
			m.Reloads.WithLabelValues(e.Trigger, result).Inc()
			m.ReloadDuration.Observe(e.Duration.Seconds())
		},
	}
}
