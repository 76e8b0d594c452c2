package telemetry

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// #region metrics
var (
	// ProofsTotal counts decoded proofs by breeding validity.
	ProofsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "breeder_proofs_total",
		Help: "Proofs produced, by breeding validity",
	}, []string{"valid"})

	// BackendErrors counts failed backend executions.
	BackendErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "breeder_backend_errors_total",
		Help: "Prover backend executions that failed",
	})

	// ProveDuration tracks end-to-end Prove latency.
	ProveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "breeder_prove_duration_seconds",
		Help:    "Time spent in Prove, including the backend call",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 0.1ms to ~26s
	})

	// Mutations tracks the disclosed mutation count per proof.
	Mutations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "breeder_mutation_count",
		Help:    "Significant mutations disclosed per proof",
		Buckets: prometheus.LinearBuckets(0, 1, 9),
	})
)

// ObserveProof records the public counters of one proof.
func ObserveProof(valid bool, mutations uint8) {
	ProofsTotal.WithLabelValues(strconv.FormatBool(valid)).Inc()
	Mutations.Observe(float64(mutations))
}

// #endregion metrics
