package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/prompt"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/template"
)

// Generate renders the final clause text. Instructions with placeholders or
// blocks are resolved locally; anything else is written by the model. The
// result is never empty.
func (a *Agents) Generate(ctx context.Context, task domain.ClauseTask, c *domain.Case, research domain.ResearchResult, compiled domain.CompiledFacts) domain.GeneratedClause {
	var out domain.GeneratedClause
	if template.HasTemplateSyntax(task.Instruction) {
		values := template.Merge(
			template.StandardValues(c),
			template.ResearchValues(research),
			template.CompiledValues(compiled),
		)
		out = domain.GeneratedClause{
			Text:     a.templates.Render(task.Instruction, values, c.Signing.Remote),
			Template: true,
		}
	} else {
		raw, notice := a.invoke(ctx, "generator", a.generatePrompt(task, c, research, compiled))
		text := template.Clean(raw)
		if notice == "" && text == "" {
			notice = "generator: het taalmodel gaf een leeg antwoord"
		}
		if notice != "" {
			text = "[Automatische generatie mislukt; instructie ter manuele verwerking]\n\n" + template.Clean(task.Instruction)
		}
		out = domain.GeneratedClause{Text: text, Notice: notice}
	}

	out.Text = a.dropExcluded(out.Text, compiled.ExcludedConditions)
	if strings.TrimSpace(out.Text) == "" {
		out.Text = fmt.Sprintf("Clausule %q wordt niet opgenomen: de voorwaarden waarop zij steunt zijn niet vervuld.", task.Label)
	}
	return out
}

// dropExcluded removes every paragraph that mentions an excluded condition.
func (a *Agents) dropExcluded(text string, excluded []string) string {
	terms := a.exclusionTerms(excluded)
	if len(terms) == 0 {
		return text
	}
	paragraphs := strings.Split(text, "\n\n")
	kept := paragraphs[:0]
	for _, p := range paragraphs {
		lower := strings.ToLower(p)
		hit := false
		for _, term := range terms {
			if strings.Contains(lower, term) {
				hit = true
				break
			}
		}
		if !hit {
			kept = append(kept, p)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n\n"))
}

func (a *Agents) exclusionTerms(excluded []string) []string {
	set := make(map[string]struct{})
	for _, cond := range excluded {
		cond = strings.ToLower(strings.TrimSpace(cond))
		if cond == "" {
			continue
		}
		set[cond] = struct{}{}
		set[strings.ReplaceAll(cond, "_", " ")] = struct{}{}
		for _, topic := range a.knowledge.NegativeTopics {
			if strings.EqualFold(topic.Condition, cond) && topic.Match != "" {
				set[strings.ToLower(topic.Match)] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for term := range set {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}

func (a *Agents) generatePrompt(task domain.ClauseTask, c *domain.Case, research domain.ResearchResult, compiled domain.CompiledFacts) string {
	var info strings.Builder
	info.WriteString("\n\nCOMPLETE INFORMATION SET:\n\nFROM RESEARCH:\n")
	for _, key := range sortedKeys(research.FoundInformation) {
		fmt.Fprintf(&info, "- %s: %s\n", key, research.FoundInformation[key].Value)
	}
	info.WriteString("\nFROM COMPILATION:\n")
	for _, key := range sortedKeys(compiled.Facts) {
		f := compiled.Facts[key]
		fmt.Fprintf(&info, "- %s: %s (bron: %s)\n", key, f.Value, f.Source)
	}
	if len(compiled.ExcludedConditions) > 0 {
		info.WriteString("\nEXCLUDED CONDITIONS (DO NOT GENERATE):\n")
		for _, cond := range compiled.ExcludedConditions {
			fmt.Fprintf(&info, "- %s\n", cond)
		}
	}

	return fmt.Sprintf(`Generate a complete legal clause based on the following:

ORIGINAL PROMPT:
%s

RESEARCH SUMMARY:
%s

APPLICABLE SCENARIO:
%s
%s
SOURCE DOCUMENTS:
%s

CRITICAL INSTRUCTIONS:
1. Pay careful attention to the RESEARCH SUMMARY and APPLICABLE SCENARIO
2. ABSOLUTELY DO NOT generate any text related to conditions listed under "EXCLUDED CONDITIONS"
3. Respect conditional logic: if research or user confirms conditions are NOT met, do NOT generate those sections
4. Only generate clause text that matches the actual situation found in the documents
5. Do NOT include block indicators like [BLOCK ...] or [/BLOCK] in the output
6. If a condition is explicitly excluded or false, omit ANY text related to that condition

If the entire clause depends on an excluded condition, return a short message explaining why the clause cannot be generated.
Ensure the clause is complete, clear, and professionally written in Dutch.`,
		task.Instruction,
		research.Summary,
		research.ApplicableScenario,
		info.String(),
		prompt.Bound(c.Corpus, a.limits.Generation),
	)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
