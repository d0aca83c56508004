package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/John-Robertt/bgpfilter-go/internal/model"
	"github.com/John-Robertt/bgpfilter-go/internal/store"
)

func TestMetrics_CountsRequestsAndErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewHandler(testOptions(Options{
		Registry: reg,
		Store:    store.New(store.SampleRules(model.SchemaChain)...),
	}))

	// 1) ok request
	if rr := do(t, h, http.MethodGet, "/healthz", nil); rr.Code != http.StatusOK {
		t.Fatalf("healthz status=%d body=%q", rr.Code, rr.Body.String())
	}

	// 2) error request
	rr := do(t, h, http.MethodPost, "/api/rules", map[string]any{"group": "bgp-in", "prefix": "10.0.0.0/33"})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("add status=%d body=%q", rr.Code, rr.Body.String())
	}

	// 3) import counter
	rr = do(t, h, http.MethodPost, "/api/import", map[string]any{
		"text": `/routing/filter/rule add chain=bgp-in prefix=192.0.2.0/24 action=accept`,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("import status=%d body=%q", rr.Code, rr.Body.String())
	}

	// 4) metrics snapshot (the /metrics request itself isn't counted inside its own response).
	rr = do(t, h, http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status=%d body=%q", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{
		`bgpfilter_http_requests_total{pattern="GET /healthz",status="200"} 1`,
		`bgpfilter_http_requests_total{pattern="POST /api/rules",status="422"} 1`,
		`bgpfilter_app_errors_total{code="RULE_VALIDATE_ERROR",stage="validate_rule"} 1`,
		"bgpfilter_imported_rules_total 1\n",
		"bgpfilter_rules 4\n",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics body missing %q, got:\n%s", want, body)
		}
	}
}

func TestObservability_AccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := NewHandler(testOptions(Options{Logger: zap.New(core)}))

	do(t, h, http.MethodGet, "/healthz", nil)
	do(t, h, http.MethodGet, "/api/stats?token=secret", nil)

	entries := logs.FilterMessage("http").All()
	if len(entries) != 1 {
		t.Fatalf("access log entries=%d, want=1 (healthz is not logged)", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["pattern"] != "GET /api/stats" {
		t.Fatalf("pattern=%v", fields["pattern"])
	}
	if fields["status"] != int64(http.StatusOK) {
		t.Fatalf("status=%v", fields["status"])
	}
	if fields["path"] != "/api/stats" {
		t.Fatalf("path=%v, query must not be logged", fields["path"])
	}
	if id, _ := fields["req"].(string); id == "" {
		t.Fatalf("access log has no request id")
	}
}

func TestObservability_RequestID(t *testing.T) {
	h := NewHandler(testOptions(Options{}))

	rr := do(t, h, http.MethodGet, "/api/stats", nil)
	minted := rr.Header().Get("X-Request-Id")
	if minted == "" {
		t.Fatalf("response has no X-Request-Id")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	echoed := httptest.NewRecorder()
	h.ServeHTTP(echoed, req)
	if got := echoed.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Fatalf("X-Request-Id=%q, want=%q", got, "abc-123")
	}
}
