package agent

import (
	"context"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/prompt"
)

// SuggestIntake proposes intake fields from the uploaded sources. The
// operator reviews the draft; it never changes a case by itself.
func (a *Agents) SuggestIntake(ctx context.Context, corpus string) domain.IntakeSuggestion {
	var out domain.IntakeSuggestion
	if notice := a.decode(ctx, "intake", intakePrompt+prompt.Bound(corpus, a.limits.Intake), &out); notice != "" {
		return domain.IntakeSuggestion{Notice: notice}
	}
	return out
}

const intakePrompt = `Analyseer de volgende documenten en extraheer alle relevante notariële informatie.
LET OP: Er kunnen MEERDERE verkopers en/of kopers zijn. Detecteer het exacte aantal.

Analyseer ook:
- Type verkoper (alleenstaand/gehuwd koppel/samenwonend/vennootschap)
- Type koper (alleenstaand/gehuwd koppel/samenwonend/vennootschap)
- Wijze van aankoop (volle eigendom/vruchtgebruik/met aanwas/zonder aanwas)
- Wat wordt verkocht (alleen onroerend/met roerend/met of zonder meetplan)
- Historiek (zelf gekocht/via schenking/ouders aan kind)

Geef het resultaat in JSON formaat met de volgende structuur.
Voor elk veld, geef ook een confidence score (0-100) die aangeeft hoe zeker je bent.
Als informatie niet gevonden wordt, gebruik "NOT_FOUND" als waarde en 0 als confidence.

{
    "algemene_info": {
        "ondertekening_datum": {"value": "DD-MM-JJJJ of NOT_FOUND", "confidence": 0},
        "videoconferentie": {"value": null, "confidence": 0}
    },
    "transactie_info": {
        "verkoper_type": {"value": "alleenstaande/gehuwd_koppel/wettelijk_samenwonend/feitelijk_samenwonend/vennootschap/NOT_FOUND", "confidence": 0},
        "koper_type": {"value": "alleenstaande/gehuwd_koppel/wettelijk_samenwonend/feitelijk_samenwonend/vennootschap/NOT_FOUND", "confidence": 0},
        "aankoop_wijze": {"value": ["volle_eigendom", "gesplitste_aankoop", "met_aanwas", "zonder_aanwas"], "confidence": 0},
        "verkoop_object": {"value": ["enkel_onroerend", "met_roerend", "zonder_meetplan", "met_meetplan"], "confidence": 0},
        "historiek": {"value": "zelf_gekocht/via_schenking/ouders_aan_kind/NOT_FOUND", "confidence": 0}
    },
    "verkopers": [
        {
            "volgnummer": 1,
            "voornaam": {"value": "naam of NOT_FOUND", "confidence": 0},
            "achternaam": {"value": "naam of NOT_FOUND", "confidence": 0},
            "rijksregisternummer": {"value": "nummer of NOT_FOUND", "confidence": 0},
            "adres": {"value": "volledig adres of NOT_FOUND", "confidence": 0},
            "burgerlijke_staat": {"value": "staat of NOT_FOUND", "confidence": 0},
            "partner_naam": {"value": "naam of NOT_FOUND", "confidence": 0}
        }
    ],
    "kopers": [],
    "onroerend_goed_info": {
        "kadastrale_gegevens": {"value": "gegevens of NOT_FOUND", "confidence": 0},
        "koopsom": {"value": "bedrag of NOT_FOUND", "confidence": 0},
        "leeg_bij_overdracht": {"value": null, "confidence": 0}
    }
}

Documenten:
`
