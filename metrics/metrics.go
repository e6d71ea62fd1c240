// Package metrics provides Prometheus observability metrics for the
// transformation waterfall engine: business-level pool and cascade
// visibility plus operational parse/run health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for our application
var Registry = prometheus.NewRegistry()

// factory allows us to register metrics to our custom Registry directly
var factory = promauto.With(Registry)

// =============================================================================
// CRITICAL METRICS - Business Impact Visibility
// =============================================================================

// PoolCeilingFTE tracks each opportunity pool's computed ceiling.
var PoolCeilingFTE = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "waterfall",
	Name:      "pool_ceiling_fte",
	Help:      "Opportunity pool ceiling in FTE, by lever",
}, []string{"lever"})

// PoolConsumedFTE tracks how much of each pool the cascade consumed.
var PoolConsumedFTE = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "waterfall",
	Name:      "pool_consumed_fte",
	Help:      "Pool capacity consumed by the cascade in FTE, by lever",
}, []string{"lever"})

// TotalReductionFTE tracks the final-year net FTE reduction.
var TotalReductionFTE = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "waterfall",
	Name:      "total_reduction_fte",
	Help:      "Net FTE reduction in the final horizon year",
})

// TotalNPV tracks the program NPV.
var TotalNPV = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "waterfall",
	Name:      "total_npv_dollars",
	Help:      "Net present value of the program savings",
})

// TotalInvestment tracks the sized program investment.
var TotalInvestment = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "waterfall",
	Name:      "total_investment_dollars",
	Help:      "Total sized investment including change management, training and contingency",
})

// InitiativesPoolCapped counts initiatives clipped by pool exhaustion.
var InitiativesPoolCapped = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "waterfall",
	Name:      "initiatives_pool_capped_total",
	Help:      "Count of initiatives whose benefit was reduced by pool exhaustion",
})

// InitiativesSafetyCapped counts initiatives clipped by safety caps.
var InitiativesSafetyCapped = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "waterfall",
	Name:      "initiatives_safety_capped_total",
	Help:      "Count of initiatives whose benefit was reduced by per-initiative or per-role caps",
})

// DegradedRunsTotal counts runs that took at least one fallback path.
var DegradedRunsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "waterfall",
	Name:      "degraded_runs_total",
	Help:      "Count of runs that completed with one or more degraded fallbacks",
})

// =============================================================================
// IMPORTANT METRICS - Operational Health
// =============================================================================

// ParserErrorsTotal tracks parse errors by error type.
var ParserErrorsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "parser",
	Name:      "errors_total",
	Help:      "Total parse errors by error type",
}, []string{"error_type"})

// ParserRecordsTotal tracks total records successfully parsed.
var ParserRecordsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "parser",
	Name:      "records_total",
	Help:      "Total input records successfully parsed",
})

// RunDurationSeconds tracks time to execute one full cascade.
var RunDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "waterfall",
	Name:      "run_duration_seconds",
	Help:      "Time taken to execute one full waterfall run",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
})

// QueuesProcessed tracks the queue count per run.
var QueuesProcessed = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "waterfall",
	Name:      "queues_processed",
	Help:      "Number of queues processed per run",
	Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
})

// =============================================================================
// Helper Functions
// =============================================================================

// ResetRunGauges resets all run-scoped gauges before a new run.
func ResetRunGauges() {
	PoolCeilingFTE.Reset()
	PoolConsumedFTE.Reset()
	TotalReductionFTE.Set(0)
	TotalNPV.Set(0)
	TotalInvestment.Set(0)
}
