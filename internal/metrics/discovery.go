package metrics

import "github.com/prometheus/client_golang/prometheus"

// Discovery Prometheus metrics.
var (
	DiscoveryQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "showroomdex",
			Name:      "discovery_queries_total",
			Help:      "Total discovery queries by operation and execution mode",
		},
		[]string{"operation", "mode"},
	)

	DiscoveryFanoutPrefixes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "showroomdex",
			Name:      "discovery_fanout_prefixes",
			Help:      "Geohash prefixes scanned per request",
			Buckets:   []float64{1, 2, 3, 5, 9},
		},
		[]string{"operation"},
	)

	DiscoveryIndexNotReadyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "showroomdex",
			Name:      "discovery_index_not_ready_total",
			Help:      "Queries rejected because the backing index is missing or building",
		},
		[]string{"collection"},
	)

	DiscoveryJurisdictionExcludedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "showroomdex",
			Name:      "discovery_jurisdiction_excluded_total",
			Help:      "Records removed by the jurisdiction post-filter or count correction",
		},
		[]string{"operation"},
	)
)

var discoveryMetricsRegistered bool

// RegisterDiscoveryMetrics registers Prometheus discovery metrics. Must be called once from main.
func RegisterDiscoveryMetrics() {
	if discoveryMetricsRegistered {
		return
	}
	prometheus.MustRegister(DiscoveryQueriesTotal)
	prometheus.MustRegister(DiscoveryFanoutPrefixes)
	prometheus.MustRegister(DiscoveryIndexNotReadyTotal)
	prometheus.MustRegister(DiscoveryJurisdictionExcludedTotal)
	discoveryMetricsRegistered = true
}
