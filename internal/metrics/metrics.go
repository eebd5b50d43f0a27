// Package metrics exposes Prometheus collectors for scoring runs.
package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "lead_scorer"

// Provider call outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Fallback reasons.
const (
	FallbackDisabled        = "disabled"
	FallbackNoProvider      = "no_provider"
	FallbackAmbiguousOutput = "ambiguous_output"
	FallbackProvidersFailed = "providers_failed"
)

// Registry holds every collector of this package and is what Push sends.
var Registry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide metrics registry

var (
	providerCalls = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "LLM provider calls by provider and outcome.",
		},
		[]string{"provider", "outcome", "kind"},
	)

	providerLatency = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_call_duration_seconds",
			Help:      "Duration of LLM provider calls.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	fallbacks = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intent_fallbacks_total",
			Help:      "Deterministic fallback classifications by reason.",
		},
		[]string{"reason"},
	)

	leadsScored = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leads_scored_total",
			Help:      "Leads scored by resulting intent.",
		},
		[]string{"intent"},
	)

	runDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of scoring runs.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"status"},
	)
)

// RecordProviderCall counts a provider call. kind is empty for successes.
func RecordProviderCall(provider, outcome, kind string, d time.Duration) {
	providerCalls.WithLabelValues(provider, outcome, kind).Inc()
	providerLatency.WithLabelValues(provider).Observe(d.Seconds())
}

// RecordFallback counts a deterministic fallback classification.
func RecordFallback(reason string) {
	fallbacks.WithLabelValues(reason).Inc()
}

// RecordLeadScored counts a persisted score result.
func RecordLeadScored(intent string) {
	leadsScored.WithLabelValues(intent).Inc()
}

// ObserveRun records how long a scoring run took.
func ObserveRun(status string, d time.Duration) {
	runDuration.WithLabelValues(status).Observe(d.Seconds())
}

// Push sends the registry to a Prometheus Pushgateway under the given job.
func Push(ctx context.Context, url, job string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}
	if job = strings.TrimSpace(job); job == "" {
		job = "lead_scorer"
	}

	if err := push.New(url, job).Gatherer(Registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
