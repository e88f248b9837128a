package domain

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// LooseString accepts strings, numbers, booleans and null from model output.
// Null decodes to the empty string.
type LooseString string

func (s *LooseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	switch data[0] {
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = LooseString(v)
	case 't', 'f':
		var v bool
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = LooseString(strconv.FormatBool(v))
	case '[', '{':
		*s = LooseString(data)
	default:
		var v json.Number
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = LooseString(v.String())
	}
	return nil
}

func (s LooseString) String() string { return string(s) }

// Known reports whether the value carries actual information.
func (s LooseString) Known() bool {
	switch strings.ToLower(strings.TrimSpace(string(s))) {
	case "", "none", "null", "not_found", "unknown", "onbekend", "n/a":
		return false
	default:
		return true
	}
}

type Verdict string

const (
	VerdictOmit      Verdict = "omit"
	VerdictKeep      Verdict = "keep"
	VerdictAmbiguous Verdict = "ambiguous"
)

type ApplicabilityResult struct {
	MayOmit   bool    `json:"may_omit"`
	Verdict   Verdict `json:"verdict"`
	Rationale string  `json:"rationale"`
	Bypassed  bool    `json:"bypassed"`
	Notice    string  `json:"notice,omitempty"`
}

type RequiredItem struct {
	Item            string `json:"item"`
	Importance      string `json:"importance"`
	TypicalLocation string `json:"typical_location,omitempty"`
}

type FoundFact struct {
	Value       LooseString `json:"value"`
	SourceQuote string      `json:"source_quote,omitempty"`
	Confidence  Confidence  `json:"confidence,omitempty"`
}

type MissingItem struct {
	Item          string   `json:"item"`
	SearchedTerms []string `json:"searched_terms,omitempty"`
	RequiredFor   string   `json:"required_for,omitempty"`
}

type ResearchResult struct {
	ApplicableScenario  string               `json:"applicable_scenario"`
	RequiredInformation []RequiredItem       `json:"required_information"`
	FoundInformation    map[string]FoundFact `json:"found_information"`
	MissingInformation  []MissingItem        `json:"missing_information"`
	Summary             string               `json:"research_summary"`
	Notice              string               `json:"notice,omitempty"`
}

func EmptyResearch(reason string) ResearchResult {
	return ResearchResult{
		ApplicableScenario:  "Unknown",
		RequiredInformation: []RequiredItem{},
		FoundInformation:    map[string]FoundFact{},
		MissingInformation:  []MissingItem{},
		Summary:             reason,
		Notice:              reason,
	}
}

type QuestionSpec struct {
	MissingInfo string   `json:"missing_info"`
	Question    string   `json:"question"`
	Options     []string `json:"options,omitempty"`
	Importance  string   `json:"importance,omitempty"`
}

type ReviewResult struct {
	Analysis           string         `json:"analysis"`
	ApplicableScenario string         `json:"applicable_scenario"`
	AlreadyFound       []string       `json:"already_found"`
	CriticalMissing    []string       `json:"critical_missing"`
	Questions          []QuestionSpec `json:"questions_for_user"`
	CanProceedWithout  []string       `json:"can_proceed_without"`
	NotApplicable      []string       `json:"not_applicable_info"`
	Notice             string         `json:"notice,omitempty"`
}

func EmptyReview(reason string) ReviewResult {
	return ReviewResult{
		Analysis:           reason,
		ApplicableScenario: "Unknown",
		AlreadyFound:       []string{},
		CriticalMissing:    []string{},
		Questions:          []QuestionSpec{},
		CanProceedWithout:  []string{},
		NotApplicable:      []string{},
		Notice:             reason,
	}
}

type FocusedItem struct {
	Found      bool        `json:"found"`
	Value      LooseString `json:"value"`
	Location   string      `json:"location,omitempty"`
	Context    string      `json:"context,omitempty"`
	Confidence Confidence  `json:"confidence,omitempty"`
}

type FocusedSearchResult struct {
	Performed bool                   `json:"search_performed"`
	FoundIn   string                 `json:"found_in"`
	Items     map[string]FocusedItem `json:"found_items"`
	Notes     string                 `json:"search_notes"`
	Notice    string                 `json:"notice,omitempty"`
}

func EmptyFocusedSearch(reason string) FocusedSearchResult {
	return FocusedSearchResult{
		FoundIn: "not_found",
		Items:   map[string]FocusedItem{},
		Notes:   reason,
		Notice:  reason,
	}
}

// Resolution returns the item found for missingInfo. Without one it falls
// back to the first usable item in key order.
func (r FocusedSearchResult) Resolution(missingInfo string) (FocusedItem, bool) {
	usable := func(item FocusedItem) bool { return item.Found && item.Value.Known() }
	if item, ok := r.Items[missingInfo]; ok && usable(item) {
		return item, true
	}
	keys := make([]string, 0, len(r.Items))
	for key := range r.Items {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if item := r.Items[key]; usable(item) {
			return item, true
		}
	}
	return FocusedItem{}, false
}

type CompiledFact struct {
	Value      LooseString `json:"value"`
	Source     Provenance  `json:"source"`
	Confidence Confidence  `json:"confidence,omitempty"`
}

type CompiledFacts struct {
	Facts              map[string]CompiledFact `json:"complete_information"`
	ExcludedConditions []string                `json:"excluded_conditions"`
	Notes              string                  `json:"compilation_notes"`
	Ready              bool                    `json:"ready_for_generation"`
	Notice             string                  `json:"notice,omitempty"`
}

func EmptyCompiled(reason string) CompiledFacts {
	return CompiledFacts{
		Facts:              map[string]CompiledFact{},
		ExcludedConditions: []string{},
		Notes:              reason,
		Ready:              false,
		Notice:             reason,
	}
}

// GeneratedClause is the rendered clause text plus the path that produced it.
type GeneratedClause struct {
	Text     string `json:"text"`
	Template bool   `json:"template"`
	Notice   string `json:"notice,omitempty"`
}

type SuggestedValue struct {
	Value      LooseString `json:"value"`
	Confidence LooseString `json:"confidence"`
}

type SuggestedParty struct {
	Index         int            `json:"volgnummer"`
	FirstName     SuggestedValue `json:"voornaam"`
	LastName      SuggestedValue `json:"achternaam"`
	NationalID    SuggestedValue `json:"rijksregisternummer"`
	Address       SuggestedValue `json:"adres"`
	MaritalStatus SuggestedValue `json:"burgerlijke_staat"`
	PartnerName   SuggestedValue `json:"partner_naam"`
}

// IntakeSuggestion is a model-proposed intake draft; the operator confirms it.
type IntakeSuggestion struct {
	General struct {
		SigningDate   SuggestedValue `json:"ondertekening_datum"`
		RemoteSigning SuggestedValue `json:"videoconferentie"`
	} `json:"algemene_info"`
	Transaction struct {
		SellerComposition SuggestedValue `json:"verkoper_type"`
		BuyerComposition  SuggestedValue `json:"koper_type"`
		AcquisitionModes  SuggestedValue `json:"aankoop_wijze"`
		SaleObject        SuggestedValue `json:"verkoop_object"`
		History           SuggestedValue `json:"historiek"`
	} `json:"transactie_info"`
	Sellers  []SuggestedParty `json:"verkopers"`
	Buyers   []SuggestedParty `json:"kopers"`
	Property struct {
		CadastralData SuggestedValue `json:"kadastrale_gegevens"`
		Price         SuggestedValue `json:"koopsom"`
		VacantOnSale  SuggestedValue `json:"leeg_bij_overdracht"`
	} `json:"onroerend_goed_info"`
	Notice string `json:"notice,omitempty"`
}
