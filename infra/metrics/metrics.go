package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marketview"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	coingeckoRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coingecko",
			Name:      "requests_total",
			Help:      "Total number of requests sent to the CoinGecko API.",
		},
		[]string{"endpoint", "result"},
	)

	detailCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detail_cache",
			Name:      "lookups_total",
			Help:      "Detail cache lookups by outcome.",
		},
		[]string{"result"},
	)

	marketRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "refresh_total",
			Help:      "Market list refresh attempts by trigger and outcome.",
		},
		[]string{"trigger", "result"},
	)
)

func init() {
	Registry.MustRegister(
		coingeckoRequests,
		detailCacheLookups,
		marketRefreshes,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func ObserveRequest(endpoint, result string) {
	coingeckoRequests.WithLabelValues(endpoint, result).Inc()
}

func ObserveCacheLookup(result string) {
	detailCacheLookups.WithLabelValues(result).Inc()
}

func ObserveRefresh(trigger, result string) {
	marketRefreshes.WithLabelValues(trigger, result).Inc()
}
