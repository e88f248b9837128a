package metrics

import (
	"time"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/ports"
)

var _ ports.PipelineObserver = (*HTTPServerMetrics)(nil)

func (m *HTTPServerMetrics) StageEntered(stage domain.Stage) {
	m.stageEnteredTotal.WithLabelValues(m.service, stage.String()).Inc()
}

func (m *HTTPServerMetrics) AgentFinished(agent string, degraded bool) {
	outcome := "ok"
	if degraded {
		outcome = "degraded"
	}
	m.agentRunsTotal.WithLabelValues(m.service, agent, outcome).Inc()
}

func (m *HTTPServerMetrics) ClauseFinished(decision domain.Decision) {
	label := string(decision)
	if label == "" {
		label = "unknown"
	}
	m.clauseFinishedTotal.WithLabelValues(m.service, label).Inc()
}

// ObserveModelCall records one guarded model invocation.
func (m *HTTPServerMetrics) ObserveModelCall(provider string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.modelCallsTotal.WithLabelValues(m.service, provider, status).Inc()
	m.modelCallDuration.WithLabelValues(m.service, provider).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) BreakerStateChanged(operation, _, to string) {
	m.breakerTransitions.WithLabelValues(m.service, operation, to).Inc()
}
