package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/prompt"
)

// Review re-derives which facts are really missing and phrases questions
// for them. The model answer is re-checked against the research values.
func (a *Agents) Review(ctx context.Context, task domain.ClauseTask, research domain.ResearchResult) domain.ReviewResult {
	var out domain.ReviewResult
	if notice := a.decode(ctx, "review", a.reviewPrompt(task, research), &out); notice != "" {
		out = domain.EmptyReview(notice)
	}
	return a.revalidate(out, research)
}

func (a *Agents) revalidate(out domain.ReviewResult, research domain.ResearchResult) domain.ReviewResult {
	if out.ApplicableScenario == "" {
		out.ApplicableScenario = research.ApplicableScenario
	}
	found := make(map[string]string)
	for key, fact := range research.FoundInformation {
		if fact.Value.Known() {
			found[normalizeKey(key)] = key
		}
	}

	alreadyFound := nonNil(out.AlreadyFound)
	critical := make([]string, 0, len(out.CriticalMissing))
	seen := make(map[string]struct{})
	for _, item := range out.CriticalMissing {
		if key, ok := found[normalizeKey(item)]; ok {
			alreadyFound = appendUnique(alreadyFound, key)
			continue
		}
		if _, dup := seen[normalizeKey(item)]; dup || strings.TrimSpace(item) == "" {
			continue
		}
		seen[normalizeKey(item)] = struct{}{}
		critical = append(critical, item)
	}

	questions := make([]domain.QuestionSpec, 0, len(out.Questions))
	asked := make(map[string]struct{})
	for _, q := range out.Questions {
		if strings.TrimSpace(q.MissingInfo) == "" || strings.TrimSpace(q.Question) == "" {
			continue
		}
		if _, ok := found[normalizeKey(q.MissingInfo)]; ok {
			continue
		}
		q.Options = a.normalizeOptions(q.Options)
		asked[normalizeKey(q.MissingInfo)] = struct{}{}
		questions = append(questions, q)
	}

	// Values the research reported as null are missing even if the model
	// forgot to list them.
	for key, fact := range research.FoundInformation {
		if fact.Value.Known() {
			continue
		}
		norm := normalizeKey(key)
		if _, ok := seen[norm]; !ok {
			seen[norm] = struct{}{}
			critical = append(critical, key)
		}
		if _, ok := asked[norm]; !ok {
			asked[norm] = struct{}{}
			questions = append(questions, domain.QuestionSpec{
				MissingInfo: key,
				Question:    fmt.Sprintf("Wat is de waarde voor %q?", strings.ReplaceAll(key, "_", " ")),
				Importance:  "HIGH",
			})
		}
	}

	out.AlreadyFound = alreadyFound
	out.CriticalMissing = critical
	out.Questions = questions
	out.CanProceedWithout = nonNil(out.CanProceedWithout)
	out.NotApplicable = nonNil(out.NotApplicable)
	return out
}

// normalizeOptions caps the candidate answers and appends the free-text escape.
func (a *Agents) normalizeOptions(options []string) []string {
	other := a.knowledge.OtherOption
	cleaned := make([]string, 0, len(options))
	for _, opt := range options {
		opt = strings.TrimSpace(opt)
		if opt == "" || strings.EqualFold(opt, other) || strings.HasPrefix(strings.ToLower(opt), strings.ToLower(other)) {
			continue
		}
		cleaned = append(cleaned, opt)
	}
	if len(cleaned) == 0 {
		return nil
	}
	if len(cleaned) > a.knowledge.MaxOptions {
		cleaned = cleaned[:a.knowledge.MaxOptions]
	}
	return append(cleaned, other)
}

func (a *Agents) reviewPrompt(task domain.ClauseTask, research domain.ResearchResult) string {
	return fmt.Sprintf(`You are a legal review agent. Based on the research findings, determine what additional information is TRULY needed.

IMPORTANT: The research agent has already found information. Only mark something as missing if it was NOT found or had a None/null value.

CLAUSE TYPE: %s

ORIGINAL PROMPT:
%s

RESEARCH AGENT FINDINGS:
- Research Summary: %s
- Applicable Scenario: %s
- Found Information: %s
- Missing Information: %s

CRITICAL INSTRUCTIONS:
1. If research found "repertorium_number: 224455", then repertorium IS NOT MISSING
2. If research found something with value "None" or "null", then it IS missing
3. Check exact values - don't just look at the missing list
4. Only list items that are truly needed and not already found
5. Offer at most %d options per question; the last option is always "%s"

Respond in JSON format (ALL IN DUTCH):
{
    "analysis": "korte analyse van wat nodig is",
    "applicable_scenario": "welk scenario van toepassing is",
    "already_found": ["items die al gevonden zijn met geldige waarde"],
    "critical_missing": ["ENKEL items die echt ontbreken"],
    "questions_for_user": [
        {"missing_info": "wat ontbreekt", "question": "de vraag aan gebruiker", "options": ["optie 1", "optie 2", "optie 3", "optie 4", "%s"], "importance": "CRITICAL/HIGH/MEDIUM"}
    ],
    "can_proceed_without": ["wenselijk maar niet kritiek"],
    "not_applicable_info": ["informatie die NIET nodig is"]
}`,
		task.TypeKey(),
		task.Instruction,
		research.Summary,
		research.ApplicableScenario,
		prompt.JSON(research.FoundInformation),
		prompt.JSON(research.MissingInformation),
		a.knowledge.MaxOptions,
		a.knowledge.OtherOption,
		a.knowledge.OtherOption,
	)
}

func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return s
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func appendUnique(items []string, item string) []string {
	for _, existing := range items {
		if existing == item {
			return items
		}
	}
	return append(items, item)
}
