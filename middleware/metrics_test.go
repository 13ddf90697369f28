// ABOUTME: Tests for route instrumentation middleware
// ABOUTME: Verifies request counters are labeled by route and status

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrument_CountsByRouteAndStatus(t *testing.T) {
	route := "GET /api/v1/test-instrument"
	before := testutil.ToFloat64(httpRequests.WithLabelValues(route, http.MethodGet, "404"))

	handler := Instrument(route)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 3; i++ {
		handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/test-instrument", nil))
	}

	after := testutil.ToFloat64(httpRequests.WithLabelValues(route, http.MethodGet, "404"))
	if after-before != 3 {
		t.Errorf("Expected 3 counted requests, got %v", after-before)
	}
}

func TestInstrument_ReusesLoggingWriter(t *testing.T) {
	route := "POST /api/v1/test-chain"
	before := testutil.ToFloat64(httpRequests.WithLabelValues(route, http.MethodPost, "201"))

	handler := Chain(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}, LogRequest, Instrument(route))

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/v1/test-chain", nil))

	if rec.Code != http.StatusCreated {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusCreated)
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues(route, http.MethodPost, "201"))
	if after-before != 1 {
		t.Errorf("Expected 1 counted request, got %v", after-before)
	}
}
