package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the planner's Prometheus metrics on a private registry.
type Registry struct {
	reg *prometheus.Registry

	Plans        *prometheus.CounterVec
	PlanDuration *prometheus.HistogramVec
	Candidates   prometheus.Histogram
	CacheHits    *prometheus.CounterVec
	CacheMisses  *prometheus.CounterVec
	Refreshes    *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		Plans: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fpl_planner_plans_total",
				Help: "Plans produced by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),

		PlanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fpl_planner_plan_duration_seconds",
				Help:    "Time to compute a plan in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"kind"},
		),

		Candidates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fpl_planner_transfer_candidates",
				Help:    "Transfer candidates considered per plan",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),

		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fpl_planner_cache_hits_total",
				Help: "Plan cache hits by kind",
			},
			[]string{"kind"},
		),

		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fpl_planner_cache_misses_total",
				Help: "Plan cache misses by kind",
			},
			[]string{"kind"},
		),

		Refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fpl_planner_snapshot_refreshes_total",
				Help: "Snapshot refresh runs by outcome",
			},
			[]string{"outcome"},
		),
	}
	r.reg.MustRegister(r.Plans, r.PlanDuration, r.Candidates, r.CacheHits, r.CacheMisses, r.Refreshes)
	return r
}

// ObservePlan records one planning call.
func (r *Registry) ObservePlan(kind string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.Plans.WithLabelValues(kind, outcome).Inc()
	r.PlanDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// ObserveCache records a plan cache lookup.
func (r *Registry) ObserveCache(kind string, hit bool) {
	if hit {
		r.CacheHits.WithLabelValues(kind).Inc()
		return
	}
	r.CacheMisses.WithLabelValues(kind).Inc()
}

// ObserveRefresh records a snapshot refresh run.
func (r *Registry) ObserveRefresh(err error) {
	if err != nil {
		r.Refreshes.WithLabelValues("error").Inc()
		return
	}
	r.Refreshes.WithLabelValues("ok").Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
