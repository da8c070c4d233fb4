// Package metrics exposes Prometheus metrics for reconciliation passes.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "mole"

// Rule outcomes.
const (
	OutcomeApplied = "applied"
	OutcomePlanned = "planned"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Metrics holds all Prometheus metrics. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	rulePasses   *prometheus.CounterVec
	actions      *prometheus.CounterVec
	ruleDuration *prometheus.HistogramVec
	lastPass     prometheus.Gauge
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rulePasses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rule_passes_total",
				Help:      "Total number of rule evaluations by outcome",
			},
			[]string{"rule", "outcome"},
		),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "Total number of task actions sent to the remote",
			},
			[]string{"rule", "action", "status"},
		),
		ruleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rule_duration_seconds",
				Help:      "Time to evaluate and apply one rule",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"rule"},
		),
		lastPass: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_pass_timestamp_seconds",
				Help:      "Unix time of the last completed reconciliation pass",
			},
		),
	}

	m.registry.MustRegister(
		m.rulePasses,
		m.actions,
		m.ruleDuration,
		m.lastPass,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the metrics live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRule records one rule evaluation.
func (m *Metrics) ObserveRule(rule, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.rulePasses.WithLabelValues(rule, outcome).Inc()
	m.ruleDuration.WithLabelValues(rule).Observe(took.Seconds())
}

// ObserveActions records applied and failed actions of one kind.
func (m *Metrics) ObserveActions(rule, action string, ok, failed int) {
	if m == nil {
		return
	}
	if ok > 0 {
		m.actions.WithLabelValues(rule, action, "ok").Add(float64(ok))
	}
	if failed > 0 {
		m.actions.WithLabelValues(rule, action, "failed").Add(float64(failed))
	}
}

// PassCompleted records the end of a full pass.
func (m *Metrics) PassCompleted(at time.Time) {
	if m == nil {
		return
	}
	m.lastPass.Set(float64(at.Unix()))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, m *Metrics, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		log.Info("metrics server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
