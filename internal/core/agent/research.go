package agent

import (
	"context"
	"fmt"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/prompt"
)

// Research determines the applicable scenario and what the corpus does and
// does not say about the clause.
func (a *Agents) Research(ctx context.Context, task domain.ClauseTask, c *domain.Case) domain.ResearchResult {
	var out domain.ResearchResult
	if notice := a.decode(ctx, "research", a.researchPrompt(task, c), &out); notice != "" {
		return domain.EmptyResearch(notice)
	}
	if out.ApplicableScenario == "" {
		out.ApplicableScenario = "Unknown"
	}
	if out.RequiredInformation == nil {
		out.RequiredInformation = []domain.RequiredItem{}
	}
	if out.FoundInformation == nil {
		out.FoundInformation = map[string]domain.FoundFact{}
	}
	if out.MissingInformation == nil {
		out.MissingInformation = []domain.MissingItem{}
	}
	return out
}

func (a *Agents) researchPrompt(task domain.ClauseTask, c *domain.Case) string {
	return fmt.Sprintf(`You are a legal research agent. Your task is to:
1. Analyze what information is needed to properly answer the given prompt
2. Search for this information in the provided documents
3. Extract all relevant information found
4. DETERMINE WHICH SCENARIO APPLIES based on the found information

CLAUSE TYPE: %s

PROMPT TO ANSWER:
%s

SOURCE DOCUMENTS:
%s

IMPORTANT: If the prompt contains conditional blocks (like [BLOCK ALLEN_AANWEZIG] vs [BLOCK MET_VERTEGENWOORDIGING]),
determine which scenario applies based on the actual situation in the documents.

Respond in JSON format (IN DUTCH/NEDERLANDS):
{
    "applicable_scenario": "welk scenario van toepassing is (bijv. 'allen aanwezig' of 'met vertegenwoordiging')",
    "required_information": [
        {"item": "beschrijving van benodigde informatie", "importance": "CRITICAL/HIGH/MEDIUM", "typical_location": "waar dit normaal te vinden is"}
    ],
    "found_information": {
        "item_key": {"value": "gevonden waarde", "source_quote": "exacte quote uit document", "confidence": "HIGH/MEDIUM/LOW"}
    },
    "missing_information": [
        {"item": "ontbrekende informatie", "searched_terms": ["zoektermen gebruikt"], "required_for": "waarom dit nodig is"}
    ],
    "research_summary": "samenvatting van het onderzoek"
}`,
		task.TypeKey(),
		prompt.Escape(task.Instruction),
		prompt.Escape(prompt.Bound(c.Corpus, a.limits.Research)),
	)
}
