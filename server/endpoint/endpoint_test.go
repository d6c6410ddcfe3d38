package endpoint_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/vidscribe/component"
	"github.com/kbukum/vidscribe/server/endpoint"
)

func serve(t *testing.T, h gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/", h)
	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, httptest.NewRequest("GET", "/", http.NoBody))
	return rr
}

func checker(statuses ...component.HealthStatus) endpoint.HealthChecker {
	return func(context.Context) []component.Health {
		out := make([]component.Health, len(statuses))
		for i, s := range statuses {
			out[i] = component.Health{Name: string(s), Status: s}
		}
		return out
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name     string
		checker  endpoint.HealthChecker
		wantCode int
		want     component.HealthStatus
	}{
		{"no checker", nil, http.StatusOK, component.StatusHealthy},
		{"healthy", checker(component.StatusHealthy), http.StatusOK, component.StatusHealthy},
		{"degraded", checker(component.StatusHealthy, component.StatusDegraded), http.StatusOK, component.StatusDegraded},
		{"unhealthy", checker(component.StatusDegraded, component.StatusUnhealthy), http.StatusServiceUnavailable, component.StatusUnhealthy},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := serve(t, endpoint.Health("vidscribe", tc.checker))
			if rr.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rr.Code)
			}
			var body endpoint.HealthResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid body: %v", err)
			}
			if body.Status != tc.want || body.Service != "vidscribe" {
				t.Fatalf("unexpected body %+v", body)
			}
		})
	}
}

func TestReadiness(t *testing.T) {
	if rr := serve(t, endpoint.Readiness(checker(component.StatusDegraded))); rr.Code != http.StatusOK {
		t.Fatalf("degraded should be ready, got %d", rr.Code)
	}
	if rr := serve(t, endpoint.Readiness(checker(component.StatusUnhealthy))); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("unhealthy should not be ready, got %d", rr.Code)
	}
}

func TestInfo(t *testing.T) {
	rr := serve(t, endpoint.Info("vidscribe"))
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body["service"] != "vidscribe" || body["version"] == "" {
		t.Fatalf("unexpected info %v", body)
	}
}

func TestLiveness(t *testing.T) {
	if rr := serve(t, endpoint.Liveness()); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
