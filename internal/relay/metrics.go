package relay

import "github.com/prometheus/client_golang/prometheus"

var (
	upstreamAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "intellisearch",
			Subsystem: "upstream",
			Name:      "attempts_total",
			Help:      "Upstream inference attempts by provider and outcome kind",
		},
		[]string{"provider", "outcome"},
	)

	upstreamRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "intellisearch",
			Subsystem: "upstream",
			Name:      "retries_total",
			Help:      "Upstream retries scheduled, by triggering kind",
		},
		[]string{"provider", "reason"},
	)

	upstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "intellisearch",
			Subsystem: "upstream",
			Name:      "attempt_duration_seconds",
			Help:      "Duration of single upstream attempts in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"provider"},
	)

	searchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "intellisearch",
			Subsystem: "relay",
			Name:      "searches_total",
			Help:      "Searches by prompt profile and result kind",
		},
		[]string{"profile", "result"},
	)
)

func init() {
	prometheus.MustRegister(upstreamAttemptsTotal, upstreamRetriesTotal, upstreamDuration, searchesTotal)
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return string(KindOf(err))
}
