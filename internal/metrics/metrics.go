// Package metrics exposes solver activity to Prometheus.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Solve outcomes
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid"
	OutcomeCanceled = "canceled"
	OutcomeError    = "error"
)

var (
	SolvesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tourplan_solves_total", Help: "Solves by outcome"},
		[]string{"outcome"},
	)
	SolveDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tourplan_solve_duration_seconds",
		Help:    "Wall time of successful solves",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 12),
	})
	StatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tourplan_dp_states_total",
		Help: "DP states evaluated",
	})
	SolveNodes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tourplan_solve_nodes",
		Help:    "Node count per solve, depot included",
		Buckets: prometheus.LinearBuckets(2, 2, 16),
	})
	SolveLayer = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tourplan_solve_layer",
		Help: "Subset size of the last finished DP layer",
	})
	LayerStatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tourplan_layer_states_total", Help: "DP states evaluated per subset size"},
		[]string{"size"},
	)
	MatrixBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tourplan_matrix_builds_total", Help: "Cost matrix builds by provider"},
		[]string{"provider"},
	)
)

// Init registers all collectors on a fresh registry
func Init(logger zerolog.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		SolvesTotal, SolveDurationSeconds, StatesTotal, SolveNodes, SolveLayer, LayerStatesTotal, MatrixBuildsTotal,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		_ = reg.Register(c)
	}
	logger.Debug().Msg("Prometheus metrics initialized")
	return reg
}

// ObserveLayer records a finished DP layer. It matches the solver's layer
// hook signature.
func ObserveLayer(size, states int) {
	SolveLayer.Set(float64(size))
	LayerStatesTotal.WithLabelValues(strconv.Itoa(size)).Add(float64(states))
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
