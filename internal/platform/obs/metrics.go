package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "route_planner_operation_duration_seconds",
		Help:    "Duration of timed operations by name and outcome",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "outcome"})

	OptimizerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "route_planner_optimizer_requests_total",
		Help: "Calls to the external optimizer by mode and outcome",
	}, []string{"mode", "outcome"})

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "route_planner_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})

	StaleResponses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "route_planner_stale_responses_total",
		Help: "Optimizer responses discarded because a newer request superseded them",
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "route_planner_active_sessions",
		Help: "Open planning sessions",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "route_planner_http_requests_total",
		Help: "HTTP requests by method and status",
	}, []string{"method", "status"})
)
