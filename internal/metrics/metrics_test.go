package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordSuggestionCountsOutcome(t *testing.T) {
	before := testutil.ToFloat64(SuggestionRequests.WithLabelValues(OutcomeStale))
	RecordSuggestion(OutcomeStale, 900*time.Millisecond)
	after := testutil.ToFloat64(SuggestionRequests.WithLabelValues(OutcomeStale))
	if after-before != 1 {
		t.Fatalf("expected stale counter to grow by 1, got %v", after-before)
	}
}

func TestRecordEventByKind(t *testing.T) {
	before := testutil.ToFloat64(TrackedEvents.WithLabelValues("search"))
	RecordEvent("search")
	RecordEvent("search")
	if got := testutil.ToFloat64(TrackedEvents.WithLabelValues("search")) - before; got != 2 {
		t.Fatalf("expected 2 search events, got %v", got)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	tests := []struct {
		method string
		route  string
		status string
	}{
		{"GET", "/api/v1/products", "200"},
		{"POST", "/api/v1/me/suggestions/refresh", "503"},
		{"POST", "/api/v1/auth/login", "429"},
	}
	for _, tt := range tests {
		before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues(tt.method, tt.route, tt.status))
		RecordAPIRequest(tt.method, tt.route, tt.status, 5*time.Millisecond)
		if got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues(tt.method, tt.route, tt.status)) - before; got != 1 {
			t.Fatalf("%s %s: expected +1, got %v", tt.method, tt.route, got)
		}
	}
}
