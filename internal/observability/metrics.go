// Package observability exposes Prometheus collectors for workflow runs and
// the HTTP surface.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "agentqa"

// Metrics implements workflow.Recorder and records HTTP traffic.
type Metrics struct {
	registry *prometheus.Registry

	stepDuration       *prometheus.HistogramVec
	runs               *prometheus.CounterVec
	runDuration        prometheus.Histogram
	iterations         prometheus.Histogram
	scores             prometheus.Histogram
	searchDegraded     prometheus.Counter
	scoreParseFailures prometheus.Counter
	runsActive         prometheus.Gauge

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewMetrics registers all collectors on a fresh registry. Go runtime and
// process collectors are included when withRuntime is set.
func NewMetrics(withRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	m := &Metrics{
		registry: reg,
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "step_duration_seconds",
			Help:      "Duration of each workflow step.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step", "outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "runs_total",
			Help:      "Completed workflow runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "run_duration_seconds",
			Help:      "End-to-end duration of workflow runs.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}),
		iterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "iterations",
			Help:      "Generate/evaluate cycles per run.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "final_score",
			Help:      "Score of the last evaluated answer per run.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		searchDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "search_degraded_total",
			Help:      "Runs that fell back to the no-search context.",
		}),
		scoreParseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "score_parse_failures_total",
			Help:      "Scoring replies that did not start with an integer.",
		}),
		runsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "background_runs_active",
			Help:      "Dispatched runs that have not finished yet.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		m.stepDuration, m.runs, m.runDuration, m.iterations, m.scores,
		m.searchDegraded, m.scoreParseFailures, m.runsActive,
		m.httpRequests, m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// StepCompleted observes the duration of one workflow step.
func (m *Metrics) StepCompleted(step, outcome string, d time.Duration) {
	m.stepDuration.WithLabelValues(step, outcome).Observe(d.Seconds())
}

// RunCompleted counts a finished run and observes its duration, iterations and score.
func (m *Metrics) RunCompleted(outcome string, iterations, score int, d time.Duration) {
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(d.Seconds())
	m.iterations.Observe(float64(iterations))
	m.scores.Observe(float64(score))
}

// SearchDegraded counts a run that used the fallback context.
func (m *Metrics) SearchDegraded() { m.searchDegraded.Inc() }

// ScoreParseFailed counts a scoring reply without a leading integer.
func (m *Metrics) ScoreParseFailed() { m.scoreParseFailures.Inc() }

// RunStarted marks a background run as active.
func (m *Metrics) RunStarted() { m.runsActive.Inc() }

// RunFinished marks a background run as done.
func (m *Metrics) RunFinished() { m.runsActive.Dec() }

// Middleware records request counts and latency keyed by the matched route
// pattern, so path parameters do not explode label cardinality.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// Render now so the recorded status is the one the client gets.
				c.Error(err)
			}

			status := c.Response().Status
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.httpRequests.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Inc()
			m.httpDuration.WithLabelValues(c.Request().Method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
