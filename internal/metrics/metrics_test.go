package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordProviderCall(t *testing.T) {
	before := testutil.ToFloat64(providerCalls.WithLabelValues("gemini", OutcomeFailure, "AuthError"))

	RecordProviderCall("gemini", OutcomeFailure, "AuthError", 20*time.Millisecond)

	after := testutil.ToFloat64(providerCalls.WithLabelValues("gemini", OutcomeFailure, "AuthError"))
	if after-before != 1 {
		t.Fatalf("expected counter to grow by 1, got %v -> %v", before, after)
	}
}

func TestRecordFallbackAndLeads(t *testing.T) {
	before := testutil.ToFloat64(fallbacks.WithLabelValues(FallbackDisabled))
	RecordFallback(FallbackDisabled)
	if got := testutil.ToFloat64(fallbacks.WithLabelValues(FallbackDisabled)); got-before != 1 {
		t.Fatalf("expected fallback counter to grow by 1, got %v", got-before)
	}

	before = testutil.ToFloat64(leadsScored.WithLabelValues("High"))
	RecordLeadScored("High")
	if got := testutil.ToFloat64(leadsScored.WithLabelValues("High")); got-before != 1 {
		t.Fatalf("expected leads counter to grow by 1, got %v", got-before)
	}
}

func TestPushWithoutURLIsNoop(t *testing.T) {
	if err := Push(context.Background(), "  ", "job"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
