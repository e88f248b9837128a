package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
)

func TestNormalizePathCollapsesCaseIDs(t *testing.T) {
	cases := map[string]string{
		"/v1/cases":                       "/v1/cases",
		"/v1/cases/":                      "/v1/cases/",
		"/v1/cases/abc":                   "/v1/cases/{case_id}",
		"/v1/cases/abc/clause/answer":     "/v1/cases/{case_id}/clause/answer",
		"/v1/catalog":                     "/v1/catalog",
		"/v1/cases/abc/export?format=txt": "/v1/cases/{case_id}/export?format=txt",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMiddlewareCountsRequests(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/cases/1", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/cases/2", nil))

	got := testutil.ToFloat64(m.requestTotal.WithLabelValues("api", http.MethodGet, "/v1/cases/{case_id}", "404"))
	if got != 2 {
		t.Fatalf("expected 2 requests, got %v", got)
	}
}

func TestPipelineObserverCounters(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	m.StageEntered(domain.StageResearch)
	m.AgentFinished("review", true)
	m.AgentFinished("review", false)
	m.ClauseFinished(domain.DecisionSkip)
	m.ObserveModelCall("ollama", time.Second, errors.New("boom"))
	m.BreakerStateChanged("model.ollama", "closed", "open")

	if v := testutil.ToFloat64(m.stageEnteredTotal.WithLabelValues("api", "research")); v != 1 {
		t.Fatalf("stage counter = %v", v)
	}
	if v := testutil.ToFloat64(m.agentRunsTotal.WithLabelValues("api", "review", "degraded")); v != 1 {
		t.Fatalf("degraded counter = %v", v)
	}
	if v := testutil.ToFloat64(m.clauseFinishedTotal.WithLabelValues("api", "skip")); v != 1 {
		t.Fatalf("finished counter = %v", v)
	}
	if v := testutil.ToFloat64(m.modelCallsTotal.WithLabelValues("api", "ollama", "error")); v != 1 {
		t.Fatalf("model call counter = %v", v)
	}
	if v := testutil.ToFloat64(m.breakerTransitions.WithLabelValues("api", "model.ollama", "open")); v != 1 {
		t.Fatalf("breaker counter = %v", v)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "nca_pipeline_stage_entered_total") {
		t.Fatalf("expected exposition to include stage counter")
	}
}

func TestWorkerMetricsExportLifecycle(t *testing.T) {
	m := NewWorkerMetrics("worker")
	m.StartExport()
	if v := testutil.ToFloat64(m.exportInFlight); v != 1 {
		t.Fatalf("in flight = %v", v)
	}
	m.FinishExport(10*time.Millisecond, nil)
	m.ObserveEventLag(-time.Second)
	if v := testutil.ToFloat64(m.exportInFlight); v != 0 {
		t.Fatalf("in flight after finish = %v", v)
	}
	if v := testutil.ToFloat64(m.exportTotal.WithLabelValues("worker", "success")); v != 1 {
		t.Fatalf("export total = %v", v)
	}
}
