// Package metrics provides Prometheus instrumentation for raqib. It exposes
// counters for message and enforcement throughput, a gauge for the lexicon
// size, and a histogram for moderation check latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MessagesTotal counts checked messages, labeled by verdict result:
	// "clean", "lexicon", "classifier", "cache", "fail-open", "fail-closed".
	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "raqib_messages_total",
		Help: "Total number of messages checked",
	}, []string{"result"})

	// DeletesTotal counts delete attempts, labeled by outcome: "ok", "error".
	DeletesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "raqib_deletes_total",
		Help: "Total number of message delete attempts",
	}, []string{"outcome"})

	// WarnsTotal counts warning messages sent, labeled by outcome.
	WarnsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "raqib_warns_total",
		Help: "Total number of warning messages sent",
	}, []string{"outcome"})

	// ClassifierErrors counts remote classifier failures (the fail-policy path).
	ClassifierErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "raqib_classifier_errors_total",
		Help: "Total number of remote classifier failures",
	})

	// LexiconTerms tracks the current number of lexicon terms.
	LexiconTerms = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "raqib_lexicon_terms",
		Help: "Current number of lexicon terms",
	})

	// CheckDuration records end-to-end moderation check latency in seconds.
	CheckDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "raqib_check_duration_seconds",
		Help:    "Moderation check latency in seconds",
		Buckets: []float64{.001, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	})
)

func init() {
	prometheus.MustRegister(
		MessagesTotal,
		DeletesTotal,
		WarnsTotal,
		ClassifierErrors,
		LexiconTerms,
		CheckDuration,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
