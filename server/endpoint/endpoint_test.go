package endpoint

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/chatstream/observability"
	"github.com/kbukum/chatstream/version"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func checker(name string, status observability.HealthStatus) observability.HealthChecker {
	return observability.HealthCheckerFunc(func(context.Context) observability.Health {
		return observability.Health{Name: name, Status: status}
	})
}

func serve(t *testing.T, path string, h gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	r.GET(path, h)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, http.NoBody))
	return rr
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name     string
		checkers []observability.HealthChecker
		want     int
		status   observability.HealthStatus
	}{
		{"no checkers", nil, http.StatusOK, observability.HealthStatusUp},
		{"degraded", []observability.HealthChecker{checker("engine", observability.HealthStatusDegraded)}, http.StatusOK, observability.HealthStatusDegraded},
		{"down", []observability.HealthChecker{
			checker("engine", observability.HealthStatusUp),
			checker("sse", observability.HealthStatusDown),
		}, http.StatusServiceUnavailable, observability.HealthStatusDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(t, "/health", Health("chatd", tt.checkers...))
			if rr.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rr.Code)
			}
			var sh observability.ServiceHealth
			if err := json.Unmarshal(rr.Body.Bytes(), &sh); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if sh.Status != tt.status || sh.Service != "chatd" || len(sh.Components) != len(tt.checkers) {
				t.Errorf("unexpected body %+v", sh)
			}
		})
	}
}

func TestReadiness(t *testing.T) {
	rr := serve(t, "/ready", Readiness("chatd", checker("sse", observability.HealthStatusDown)))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rr.Code)
	}
	rr = serve(t, "/ready", Readiness("chatd", checker("engine", observability.HealthStatusDegraded)))
	if rr.Code != http.StatusOK {
		t.Errorf("degraded should still be ready, got %d", rr.Code)
	}
}

func TestLiveness(t *testing.T) {
	rr := serve(t, "/alive", Liveness("chatd"))
	var body map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	if rr.Code != http.StatusOK || body["status"] != "alive" {
		t.Errorf("unexpected response %d %v", rr.Code, body)
	}
}

func TestVersion(t *testing.T) {
	rr := serve(t, "/version", Version())
	var info version.Info
	if err := json.Unmarshal(rr.Body.Bytes(), &info); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if info.Version != version.Version || info.GoVersion == "" {
		t.Errorf("unexpected version info %+v", info)
	}
}
