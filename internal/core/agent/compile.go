package agent

import (
	"context"
	"fmt"
	"sort"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/prompt"
)

// Compile merges research findings with the answers recorded for the
// clause. Without answers the research findings are taken as they are and
// the model is not consulted. Operator answers always win over research
// and negative operator answers become excluded conditions.
func (a *Agents) Compile(ctx context.Context, research domain.ResearchResult, answers []domain.FactEntry) domain.CompiledFacts {
	if len(answers) == 0 {
		return domain.CompiledFacts{
			Facts:              researchFacts(research),
			ExcludedConditions: []string{},
			Notes:              "Alle informatie afkomstig uit het onderzoek",
			Ready:              true,
		}
	}

	excluded := a.negativeConditions(answers)

	var out domain.CompiledFacts
	if notice := a.decode(ctx, "compiler", a.compilePrompt(research, answers, excluded), &out); notice != "" {
		out = domain.EmptyCompiled(notice)
	}
	if out.Facts == nil {
		out.Facts = map[string]domain.CompiledFact{}
	}

	for key, fact := range researchFacts(research) {
		if _, ok := out.Facts[key]; !ok {
			out.Facts[key] = fact
		}
	}
	for _, e := range answers {
		out.Facts[e.Key.Name] = domain.CompiledFact{
			Value:      domain.LooseString(e.Fact.Value),
			Source:     e.Fact.Provenance,
			Confidence: answerConfidence(e.Fact),
		}
	}

	conditions := nonNil(out.ExcludedConditions)
	for _, cond := range excluded {
		conditions = appendUnique(conditions, cond)
	}
	out.ExcludedConditions = conditions
	return out
}

func researchFacts(research domain.ResearchResult) map[string]domain.CompiledFact {
	out := make(map[string]domain.CompiledFact, len(research.FoundInformation))
	for key, f := range research.FoundInformation {
		if !f.Value.Known() {
			continue
		}
		confidence := f.Confidence
		if confidence == "" {
			confidence = domain.ConfidenceHigh
		}
		out[key] = domain.CompiledFact{Value: f.Value, Source: domain.ProvenanceResearch, Confidence: confidence}
	}
	return out
}

func answerConfidence(f domain.Fact) domain.Confidence {
	if f.Confidence != "" {
		return f.Confidence
	}
	return domain.ConfidenceHigh
}

// negativeConditions applies the configured negative-confirmation topics to
// the operator's own answers.
func (a *Agents) negativeConditions(answers []domain.FactEntry) []string {
	var out []string
	for _, e := range answers {
		if e.Fact.Provenance != domain.ProvenanceUser {
			continue
		}
		for _, cond := range a.knowledge.ExcludedConditions(e.Fact.Question, e.Fact.Value) {
			out = appendUnique(out, cond)
		}
	}
	sort.Strings(out)
	return out
}

type answerView struct {
	Question    string            `json:"question,omitempty"`
	Answer      string            `json:"answer"`
	MissingInfo string            `json:"missing_info"`
	ClauseType  string            `json:"clause_type"`
	Source      domain.Provenance `json:"source"`
}

func (a *Agents) compilePrompt(research domain.ResearchResult, answers []domain.FactEntry, excluded []string) string {
	views := make(map[string]answerView, len(answers))
	for _, e := range answers {
		views[e.Key.Clause+"_"+e.Key.Name] = answerView{
			Question:    e.Fact.Question,
			Answer:      e.Fact.Value,
			MissingInfo: e.Key.Name,
			ClauseType:  e.Key.Clause,
			Source:      e.Fact.Provenance,
		}
	}
	decisions := make(map[string]bool, len(excluded))
	for _, cond := range excluded {
		decisions[cond] = false
	}

	return fmt.Sprintf(`You are a legal information compiler. Create a complete information set by combining:

RESEARCH FINDINGS:
%s

USER PROVIDED INFORMATION:
%s

USER DECISIONS (extracted):
%s

CRITICAL INSTRUCTION:
- When the user explicitly confirms something is NOT present (e.g., "Nee, geen beding van aanwas"), this OVERRIDES any other information
- Include explicit negative confirmations in the complete_information set
- Flag conditions that should NOT be included in the final clause

Merge research findings with user input, prioritizing user input when there are conflicts.

Respond in JSON format (IN DUTCH):
{
    "complete_information": {
        "key": {"value": "waarde", "source": "research/user/combined", "confidence": "HIGH/MEDIUM/LOW"}
    },
    "excluded_conditions": ["lijst van condities die NIET toegepast moeten worden"],
    "compilation_notes": "notities over de samenstelling",
    "ready_for_generation": true
}`,
		prompt.JSON(research.FoundInformation),
		prompt.JSON(views),
		prompt.JSON(decisions),
	)
}
