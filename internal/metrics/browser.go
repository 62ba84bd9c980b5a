package metrics

import "github.com/prometheus/client_golang/prometheus"

// Attribute cache Prometheus metrics.
var (
	AttributeFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vsetbrowse",
			Name:      "attribute_fetch_total",
			Help:      "Bulk attribute fetches by outcome",
		},
		[]string{"status"}, // "success" / "error" / "invalid" / "discarded"
	)

	AttributeFetchElements = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vsetbrowse",
			Name:      "attribute_fetch_elements",
			Help:      "Number of elements per bulk attribute fetch",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	AttributeParseErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vsetbrowse",
			Name:      "attribute_parse_errors_total",
			Help:      "Attribute payloads that could not be parsed",
		},
	)

	PreferenceErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vsetbrowse",
			Name:      "preference_errors_total",
			Help:      "Failed column visibility preference reads and writes",
		},
		[]string{"op"}, // "get" / "set"
	)
)

var browserMetricsRegistered bool

// BrowserCollectors returns the attribute cache and preference collectors
// for registration on a caller-owned registry.
func BrowserCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		AttributeFetchTotal,
		AttributeFetchElements,
		AttributeParseErrorsTotal,
		PreferenceErrorsTotal,
	}
}

// RegisterBrowserMetrics registers the attribute cache and preference metrics. Must be called once from main.
func RegisterBrowserMetrics() {
	if browserMetricsRegistered {
		return
	}
	prometheus.MustRegister(BrowserCollectors()...)
	browserMetricsRegistered = true
}
