// Package agent implements the model-backed steps of a clause run.
package agent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/extract"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/ports"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/template"
)

// Limits bound how much of the corpus each agent sees. A zero bound takes
// the default; the generator has none and sees the whole corpus when zero.
type Limits struct {
	Applicability int
	Research      int
	Search        int
	Intake        int
	Generation    int
}

// DefaultOtherOption is the free-text escape offered with question options
// when the knowledge file names none.
const DefaultOtherOption = "Anders"

func DefaultLimits() Limits {
	return Limits{
		Applicability: 5000,
		Research:      10000,
		Search:        12000,
		Intake:        10000,
	}
}

type Agents struct {
	model     ports.ModelInvoker
	knowledge domain.Knowledge
	templates *template.Processor
	limits    Limits
}

var _ ports.ClauseAgents = (*Agents)(nil)

func New(model ports.ModelInvoker, knowledge domain.Knowledge, limits Limits) *Agents {
	if knowledge.MaxOptions <= 0 {
		knowledge.MaxOptions = 4
	}
	if strings.TrimSpace(knowledge.OtherOption) == "" {
		knowledge.OtherOption = DefaultOtherOption
	}
	defaults := DefaultLimits()
	if limits.Applicability <= 0 {
		limits.Applicability = defaults.Applicability
	}
	if limits.Research <= 0 {
		limits.Research = defaults.Research
	}
	if limits.Search <= 0 {
		limits.Search = defaults.Search
	}
	if limits.Intake <= 0 {
		limits.Intake = defaults.Intake
	}
	return &Agents{
		model:     model,
		knowledge: knowledge,
		templates: template.NewProcessor(knowledge.Blocks),
		limits:    limits,
	}
}

// OtherOption is the option label that asks the operator for free text.
func (a *Agents) OtherOption() string {
	return a.knowledge.OtherOption
}

// invoke calls the model and reports a degradation notice instead of an error.
func (a *Agents) invoke(ctx context.Context, agent, instruction string) (string, string) {
	raw, err := a.model.Invoke(ctx, instruction)
	if err != nil {
		slog.Warn("agent_model_failed", "agent", agent, "error", err)
		return "", agent + ": taalmodel niet beschikbaar (" + err.Error() + ")"
	}
	return raw, ""
}

// decode invokes the model and parses its structured answer into out.
func (a *Agents) decode(ctx context.Context, agent, instruction string, out any) string {
	raw, notice := a.invoke(ctx, agent, instruction)
	if notice != "" {
		return notice
	}
	if err := extract.Decode(raw, out); err != nil {
		slog.Warn("agent_extraction_failed", "agent", agent, "error", err, "response_chars", len(raw))
		return agent + ": antwoord van het taalmodel kon niet gelezen worden"
	}
	return ""
}
