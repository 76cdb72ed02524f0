package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// CacheLookupsTotal counts result cache lookups by outcome ("hit"/"miss").
	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchd",
			Name:      "cache_lookups_total",
			Help:      "Total number of result cache lookups by outcome",
		},
		[]string{"result"},
	)

	// CacheInvalidatedKeysTotal counts cache keys dropped by write invalidation.
	CacheInvalidatedKeysTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "searchd",
			Name:      "cache_invalidated_keys_total",
			Help:      "Total number of cache keys removed by invalidation",
		},
	)

	// SearchErrorsTotal counts failed primary searches.
	SearchErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "searchd",
			Name:      "search_errors_total",
			Help:      "Total number of failed search requests",
		},
	)
)

func init() {
	prometheus.MustRegister(CacheLookupsTotal)
	prometheus.MustRegister(CacheInvalidatedKeysTotal)
	prometheus.MustRegister(SearchErrorsTotal)
}
