// File path: internal/common/telemetry/telemetry.go
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	processUnitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bwmigrate_process_units_total",
			Help: "Process units finished, by terminal state",
		},
		[]string{"state"},
	)

	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bwmigrate_process_unit_duration_seconds",
			Help:    "Duration of process unit stages in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 4, 8),
		},
		[]string{"stage"},
	)

	knowledgeEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bwmigrate_knowledge_entries_total",
			Help: "Knowledge entries indexed, by backend",
		},
		[]string{"backend"},
	)

	knowledgeQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bwmigrate_knowledge_queries_total",
			Help: "Knowledge index queries, by backend that answered",
		},
		[]string{"backend"},
	)

	embeddingDegradations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bwmigrate_embedding_degradations_total",
			Help: "Times the knowledge index fell back to lexical scoring",
		},
	)
)

// RecordUnit counts a process unit reaching a terminal state.
func RecordUnit(state string) {
	processUnitsTotal.WithLabelValues(state).Inc()
}

// ObserveStage records how long a unit spent in one stage.
func ObserveStage(stage string, elapsed time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func RecordKnowledgeEntries(backend string, count int) {
	if count <= 0 {
		return
	}
	knowledgeEntriesTotal.WithLabelValues(backend).Add(float64(count))
}

func RecordKnowledgeQuery(backend string) {
	knowledgeQueriesTotal.WithLabelValues(backend).Inc()
}

func RecordEmbeddingDegradation() {
	embeddingDegradations.Inc()
}
