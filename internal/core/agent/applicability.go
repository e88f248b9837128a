package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/prompt"
)

// Applicability advises whether a clause may be dropped. Always-mandatory
// clauses are kept without consulting the model.
func (a *Agents) Applicability(ctx context.Context, task domain.ClauseTask, c *domain.Case) domain.ApplicabilityResult {
	if task.AlwaysMandatory() {
		return domain.ApplicabilityResult{
			MayOmit:   false,
			Verdict:   domain.VerdictKeep,
			Rationale: fmt.Sprintf("Clausule %d is essentieel en wordt altijd toegepast.", task.Ordinal),
			Bypassed:  true,
		}
	}

	raw, notice := a.invoke(ctx, "applicability", a.applicabilityPrompt(task, c))
	if notice != "" {
		return domain.ApplicabilityResult{
			Verdict:   domain.VerdictAmbiguous,
			Rationale: "Geen analyse beschikbaar.",
			Notice:    notice,
		}
	}

	verdict := Classify(raw)
	result := domain.ApplicabilityResult{
		MayOmit:   verdict == domain.VerdictOmit,
		Verdict:   verdict,
		Rationale: strings.TrimSpace(raw),
	}
	if verdict == domain.VerdictAmbiguous {
		result.Notice = "applicability: geen finale beslissing gevonden in de analyse"
	}
	return result
}

func (a *Agents) applicabilityPrompt(task domain.ClauseTask, c *domain.Case) string {
	var b strings.Builder
	b.WriteString(`Je bent een gespecialiseerde AI-assistent voor notarieel werk in België. Jouw taak is om een voorgelegde clausule te analyseren en te bepalen of deze volledig verwijderd moet worden. Je redeneert als een ervaren medewerker: feitelijk onjuiste clausules worden verwijderd, maar relevante juridische opties voor de cliënten worden behouden in de ontwerpakte.

GOUDEN REGEL: HET DOSSIER IS DE VOLLEDIGE EN ENIGE WAARHEID
Je analyseert enkel en alleen de informatie in [Klantinformatie] en [Documenten]. Je hanteert het principe dat dit dossier volledig is. De afwezigheid van informatie over een feit is het bewijs dat dit feit niet van toepassing is.

CLAUSULE KENNISBANK
`)
	b.WriteString(a.knowledgeBase())

	fmt.Fprintf(&b, "\n[Clausule nummer]\n%d\n", task.Ordinal)
	if task.ClauseType != "" {
		fmt.Fprintf(&b, "\n[Clausule type]\n%s\n", task.ClauseType)
	}
	if cat, rule, ok := a.knowledge.CategoryFor(task.Ordinal); ok {
		fmt.Fprintf(&b, "\n[Toe te passen regel]\n%s (%s): %s\n", cat.Name, regimeText(cat.Regime), rule.Rule)
	}
	if strings.TrimSpace(task.SkipConditions) != "" {
		fmt.Fprintf(&b, "\n[Schrappingsvoorwaarden]\n%s\n", task.SkipConditions)
	}

	b.WriteString(prompt.ClientInfo(c))
	fmt.Fprintf(&b, "\n[Documenten]\n%s... [beperkt voor context]\n", prompt.Bound(c.Corpus, a.limits.Applicability))
	fmt.Fprintf(&b, "\n[Clausule om te beoordelen]\n%s\n", task.Instruction)

	b.WriteString(`
OUTPUT FORMAAT

ANALYSE:
CLAUSULE: [Naam van de clausule]
CATEGORIE: [Categorie 1a: Feitelijk / 1b: Optioneel / 2: Essentieel]
TOEGEPASTE LOGICA: [Beschrijf de redeneerstap]
RESULTAAT TOETSING: [Bv. "Geen bewijs gevonden." OF "Geen juridische onmogelijkheid gevonden."]

FINALE BESLISSING: JA (mag volledig verwijderd worden) / NEE (moet behouden blijven)

REDENERING:
[Synthese die leidt tot de finale beslissing]

BEWIJS:
[Citeer het bewijs]`)
	return b.String()
}

func (a *Agents) knowledgeBase() string {
	var b strings.Builder
	for _, cat := range a.knowledge.Categories {
		fmt.Fprintf(&b, "\n%s\nLogica: %s\n", cat.Name, cat.Logic)
		for _, rule := range cat.Rules {
			fmt.Fprintf(&b, "- %s %q: %s\n", ordinalList(rule.Ordinals), rule.Title, rule.Rule)
		}
	}
	b.WriteString("\nEssentiële clausules worden ALTIJD behouden.\n")
	return b.String()
}

func regimeText(r domain.Regime) string {
	switch r {
	case domain.RegimeOmitUnlessEvidence:
		return "schrappen tenzij positief bewijs"
	case domain.RegimeKeepUnlessImpossible:
		return "behouden tenzij juridisch onmogelijk"
	default:
		return string(r)
	}
}

func ordinalList(ordinals []int) string {
	if len(ordinals) == 1 {
		return fmt.Sprintf("Clausule %d", ordinals[0])
	}
	parts := make([]string, 0, len(ordinals))
	for _, n := range ordinals {
		parts = append(parts, fmt.Sprint(n))
	}
	return "Clausules " + strings.Join(parts, ", ")
}
