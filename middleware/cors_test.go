// ABOUTME: Tests for CORS middleware functionality
// ABOUTME: Verifies origin allow-listing and OPTIONS preflight handling

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORSWithConfig_AllowedOriginEchoed(t *testing.T) {
	allowedOrigins := []string{"https://example.com", "http://localhost:5173"}
	handler := CORSWithConfig(allowedOrigins)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "https://example.com")
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, PUT, DELETE, OPTIONS" {
		t.Errorf("Access-Control-Allow-Methods = %q, want %q", got, "GET, POST, PUT, DELETE, OPTIONS")
	}
	if got := rec.Header().Get("Access-Control-Expose-Headers"); got != "X-Request-ID, X-Cache, Content-Disposition" {
		t.Errorf("Access-Control-Expose-Headers = %q", got)
	}
	if got := rec.Header().Get("Vary"); got != "Origin" {
		t.Errorf("Vary = %q, want %q", got, "Origin")
	}
}

func TestCORSWithConfig_DisallowedOriginNoHeaders(t *testing.T) {
	allowedOrigins := []string{"https://example.com"}
	handler := CORSWithConfig(allowedOrigins)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.Header.Set("Origin", "https://evil.com")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin should be empty for disallowed origin, got %q", got)
	}
}

func TestCORSWithConfig_SameOriginNoHeader(t *testing.T) {
	allowedOrigins := []string{"https://example.com"}
	handler := CORSWithConfig(allowedOrigins)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Same-origin requests don't include Origin header
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	// Should still work but no CORS headers needed
	if rec.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestCORSWithConfig_PreflightAllowedOrigin(t *testing.T) {
	allowedOrigins := []string{"https://example.com"}
	handlerCalled := false
	handler := CORSWithConfig(allowedOrigins)(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/test", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if handlerCalled {
		t.Error("Handler should not be called for OPTIONS preflight")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "https://example.com")
	}
}

func TestCORSWithConfig_PreflightDisallowedOrigin(t *testing.T) {
	allowedOrigins := []string{"https://example.com"}
	handler := CORSWithConfig(allowedOrigins)(func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodOptions, "/api/test", nil)
	req.Header.Set("Origin", "https://evil.com")
	rec := httptest.NewRecorder()
	handler(rec, req)

	// Preflight should complete but without CORS headers
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin should be empty for disallowed origin, got %q", got)
	}
}

func TestCORSWithConfig_MultipleAllowedOrigins(t *testing.T) {
	allowedOrigins := []string{"https://prod.example.com", "http://localhost:5173", "https://staging.example.com"}

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://prod.example.com", true},
		{"http://localhost:5173", true},
		{"https://staging.example.com", true},
		{"https://evil.com", false},
		{"http://localhost:3000", false}, // Different port
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			handler := CORSWithConfig(allowedOrigins)(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			handler(rec, req)

			got := rec.Header().Get("Access-Control-Allow-Origin")
			if tt.allowed && got != tt.origin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.origin)
			}
			if !tt.allowed && got != "" {
				t.Errorf("Access-Control-Allow-Origin should be empty, got %q", got)
			}
		})
	}
}

func TestCORSWithConfig_EmptyAllowedOrigins(t *testing.T) {
	// With no allowed origins, all cross-origin requests should be rejected
	handler := CORSWithConfig(nil)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin should be empty with no allowed origins, got %q", got)
	}
}

func TestCORSWithConfig_ExportDownloadHeadersReadable(t *testing.T) {
	called := false
	handler := CORSWithConfig([]string{"http://localhost:5173"})(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Header().Set("X-Cache", "HIT")
		w.Header().Set("Content-Disposition", `attachment; filename="sqlnova-plan.xlsx"`)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/migration/export", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if !called {
		t.Fatal("Expected POST to reach the export handler")
	}
	if got := rec.Header().Get("Content-Disposition"); got == "" {
		t.Error("Expected Content-Disposition from the handler to be kept")
	}
	if got := rec.Header().Get("Access-Control-Expose-Headers"); got != "X-Request-ID, X-Cache, Content-Disposition" {
		t.Errorf("Access-Control-Expose-Headers = %q", got)
	}
}
