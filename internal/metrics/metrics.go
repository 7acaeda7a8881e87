// Package metrics holds the Prometheus collectors of the qdex API.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "qdex"

var registerOnce sync.Once

// Register adds the embedding, write and search collectors to the default
// registry. HTTP collectors register themselves on import. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingCacheTotal,
			QuestionsWrittenTotal,
			SearchFanoutIndices,
		)
	})
}

// Write and query shape metrics.
var (
	QuestionsWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_written_total",
			Help:      "Question records written, by session index",
		},
		[]string{"index"},
	)

	SearchFanoutIndices = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "fanout_indices",
			Help:      "Number of session indices a single search fans out to",
			Buckets:   []float64{1, 2, 3, 4, 6, 8, 12, 16},
		},
	)
)
