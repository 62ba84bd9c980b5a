package metrics

import "github.com/prometheus/client_golang/prometheus"

// Text query embedding metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vsetbrowse",
			Name:      "embedding_requests_total",
			Help:      "Text query embedding calls by outcome",
		},
		[]string{"provider", "model", "status"}, // status: "success" / "error"
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vsetbrowse",
			Name:      "embedding_request_duration_seconds",
			Help:      "Latency of text query embedding calls",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vsetbrowse",
			Name:      "embedding_cache_total",
			Help:      "Query vector cache lookups",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var embeddingMetricsRegistered bool

// EmbeddingCollectors returns the text query embedding collectors.
func EmbeddingCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		EmbeddingRequestsTotal,
		EmbeddingRequestDuration,
		EmbeddingCacheTotal,
	}
}

// RegisterEmbeddingMetrics registers the embedding collectors on the default registry.
func RegisterEmbeddingMetrics() {
	if embeddingMetricsRegistered {
		return
	}
	prometheus.MustRegister(EmbeddingCollectors()...)
	embeddingMetricsRegistered = true
}
