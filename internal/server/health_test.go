package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthChecker_Liveness(t *testing.T) {
	h := NewHealthChecker(nil)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("liveness status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want %q", resp.Status, "ok")
	}
}

func TestHealthChecker_Readiness(t *testing.T) {
	h := NewHealthChecker(nil)

	t.Run("ready by default", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/readyz", nil)
		w := httptest.NewRecorder()
		h.ReadinessHandler().ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("readiness status = %d, want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("not ready after SetReady(false)", func(t *testing.T) {
		h.SetReady(false)
		defer h.SetReady(true)

		req := httptest.NewRequest("GET", "/readyz", nil)
		w := httptest.NewRecorder()
		h.ReadinessHandler().ServeHTTP(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("readiness status = %d, want %d", w.Code, http.StatusServiceUnavailable)
		}

		var resp HealthResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Checks["ready"] != "not ready" {
			t.Errorf("ready check = %q, want %q", resp.Checks["ready"], "not ready")
		}
	})
}

func TestHealthChecker_DetailedIncludesUptime(t *testing.T) {
	h := NewHealthChecker(nil)

	req := httptest.NewRequest("GET", "/healthz/detailed", nil)
	w := httptest.NewRecorder()
	h.DetailedHealthHandler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("detailed status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Uptime == "" {
		t.Error("expected uptime in detailed response")
	}
}

func TestHealthChecker_RegisterHealthEndpoints(t *testing.T) {
	h := NewHealthChecker(nil)
	mux := http.NewServeMux()
	h.RegisterHealthEndpoints(mux)

	for _, path := range []string{"/healthz", "/readyz", "/healthz/detailed"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("%s status = %d, want %d", path, w.Code, http.StatusOK)
		}
	}
}
