package agent

import (
	"context"
	"errors"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
)

type modelFake struct {
	responses []string
	err       error
	prompts   []string
}

func (f *modelFake) Invoke(_ context.Context, instruction string) (string, error) {
	f.prompts = append(f.prompts, instruction)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

var errModelDown = domain.WrapError(domain.ErrModelInvocation, "invoke", errors.New("quota exceeded"))

func testKnowledge() domain.Knowledge {
	return domain.Knowledge{
		Categories: []domain.RuleCategory{
			{
				Name:   "Categorie 1a: Feitelijk Bepaalde Clausules",
				Regime: domain.RegimeOmitUnlessEvidence,
				Logic:  "SCHRAPPEN, tenzij er positief bewijs in het dossier is.",
				Rules: []domain.ApplicabilityRule{
					{Ordinals: []int{39}, Title: "STOOKOLIETANKS", Rule: "Schrappen, tenzij het dossier de aanwezigheid vermeldt."},
				},
			},
			{
				Name:   "Categorie 1b: Juridisch Bepaalde & Optionele Clausules",
				Regime: domain.RegimeKeepUnlessImpossible,
				Logic:  "BEHOUDEN tenzij juridisch onmogelijk.",
				Rules: []domain.ApplicabilityRule{
					{Ordinals: []int{8}, Title: "BEDING VAN AANWAS MET OPTIE", Rule: "Schrappen indien er slechts één koper is of de kopers gehuwd zijn."},
				},
			},
		},
		SearchHints:     []string{`"aktedag" = ondertekening_datum`},
		NegativeMarkers: []string{"nee", "geen"},
		NegativeTopics: []domain.NegativeTopic{
			{Match: "beding van aanwas", Condition: "beding_van_aanwas"},
			{Match: "tontine", Condition: "tontine"},
		},
		Blocks: domain.BlockNames{Header: "ALGEMEEN", Remote: "VIDEOCONFERENTIE"},
	}
}

func testCase() *domain.Case {
	return &domain.Case{
		ID:     "case-1",
		Notary: domain.NotaryOffice{Name: "Notaris Peeters"},
		Parties: []domain.Party{
			{Role: domain.RoleSeller, Index: 1, FirstName: "Jan", LastName: "Janssens", MaritalStatus: "gehuwd", Present: true},
			{Role: domain.RoleSeller, Index: 2, FirstName: "Els", LastName: "Janssens", MaritalStatus: "gehuwd", Present: false},
			{Role: domain.RoleBuyer, Index: 1, FirstName: "Tom", LastName: "Maes", MaritalStatus: "wettelijk samenwonend", Present: true},
			{Role: domain.RoleBuyer, Index: 2, FirstName: "An", LastName: "Peeters", MaritalStatus: "wettelijk samenwonend", Present: true},
		},
		Corpus: "\n\n--- Content from compromis.txt ---\n\nDe kopers kopen samen met beding van aanwas.",
	}
}
