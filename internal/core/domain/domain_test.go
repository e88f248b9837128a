package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFactStoreScopesWritesPerClause(t *testing.T) {
	var store FactStore
	aanwas := FactKey{Clause: "AANWAS", Name: "koper_aanwezig"}
	prijs := FactKey{Clause: "PRIJS", Name: "koper_aanwezig"}

	if err := store.Record(aanwas, Fact{Value: "ja", Provenance: ProvenanceResearch}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.Record(prijs, Fact{Value: "nee", Provenance: ProvenanceUser}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.Record(aanwas, Fact{Value: "nee", Provenance: ProvenanceUser}); err != nil {
		t.Fatalf("record: %v", err)
	}

	if got, _ := store.Lookup(prijs); got.Value != "nee" || got.Provenance != ProvenanceUser {
		t.Fatalf("other clause fact changed: %+v", got)
	}
	if got, _ := store.Lookup(aanwas); got.Value != "nee" {
		t.Fatalf("same clause fact should be overridden, got %+v", got)
	}
	if store.Len() != 2 || len(store.ForClause("AANWAS")) != 1 {
		t.Fatalf("unexpected store content: %+v", store.Entries())
	}
}

func TestFactStoreRejectsMissingProvenance(t *testing.T) {
	var store FactStore
	err := store.Record(FactKey{Clause: "X", Name: "y"}, Fact{Value: "z"})
	if !IsKind(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("rejected fact must not be stored")
	}
}

func TestFactStoreJSONKeepsOrder(t *testing.T) {
	var store FactStore
	_ = store.Record(FactKey{Clause: "B", Name: "b"}, Fact{Value: "2", Provenance: ProvenanceUser})
	_ = store.Record(FactKey{Clause: "A", Name: "a"}, Fact{Value: "1", Provenance: ProvenanceResearch})

	data, err := json.Marshal(store)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back FactStore
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	entries := back.Entries()
	if len(entries) != 2 || entries[0].Key.Clause != "B" || entries[1].Fact.Value != "1" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestCaseValidateRoleIndexUniqueness(t *testing.T) {
	c := &Case{Parties: []Party{
		{Role: RoleSeller, Index: 1},
		{Role: RoleBuyer, Index: 1},
		{Role: RoleSeller, Index: 2},
	}}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected valid case, got %v", err)
	}

	c.Parties = append(c.Parties, Party{Role: RoleSeller, Index: 2})
	if err := c.Validate(); !IsKind(err, ErrInvalidInput) {
		t.Fatalf("expected duplicate index error, got %v", err)
	}
}

func TestCaseRecordClauseReplacesByLabel(t *testing.T) {
	c := &Case{}
	now := time.Now()
	c.RecordClause(3, "PRIJS", "eerste", now)
	c.RecordClause(5, "AANWAS", "tweede", now)
	c.RecordClause(3, "PRIJS", "herwerkt", now)

	if len(c.ProcessedClauses) != 2 || c.ProcessedClauses[0].Text != "herwerkt" {
		t.Fatalf("unexpected processed clauses: %+v", c.ProcessedClauses)
	}
	if text, ok := c.ClauseText("AANWAS"); !ok || text != "tweede" {
		t.Fatalf("ClauseText = %q, %v", text, ok)
	}
}

func TestAlwaysMandatorySet(t *testing.T) {
	mandatory := []int{1, 7, 15, 27, 33, 36, 38, 40, 41, 44, 47, 50, 52, 54, 60}
	optional := []int{8, 9, 10, 11, 13, 14, 28, 37, 39, 42, 43, 45, 46, 51, 53, 61}
	for _, n := range mandatory {
		if !IsAlwaysMandatory(n) {
			t.Fatalf("ordinal %d should be mandatory", n)
		}
	}
	for _, n := range optional {
		if IsAlwaysMandatory(n) {
			t.Fatalf("ordinal %d should not be mandatory", n)
		}
	}
}

func TestStageTransitions(t *testing.T) {
	allowed := [][2]Stage{
		{StageApplicability, StageResearch},
		{StageApplicability, StageComplete},
		{StageResearch, StageReview},
		{StageReview, StageQuestions},
		{StageReview, StageGeneration},
		{StageQuestions, StageGeneration},
		{StageGeneration, StageComplete},
	}
	for _, tr := range allowed {
		if !tr[0].CanTransitionTo(tr[1]) {
			t.Fatalf("%s -> %s should be allowed", tr[0], tr[1])
		}
	}
	forbidden := [][2]Stage{
		{StageApplicability, StageGeneration},
		{StageResearch, StageGeneration},
		{StageQuestions, StageComplete},
		{StageComplete, StageResearch},
	}
	for _, tr := range forbidden {
		if tr[0].CanTransitionTo(tr[1]) {
			t.Fatalf("%s -> %s should be rejected", tr[0], tr[1])
		}
	}
}

func TestStageJSON(t *testing.T) {
	data, _ := json.Marshal(StageQuestions)
	if string(data) != `"questions"` {
		t.Fatalf("unexpected stage json %s", data)
	}
	var s Stage
	if err := json.Unmarshal([]byte(`"generation"`), &s); err != nil || s != StageGeneration {
		t.Fatalf("unmarshal stage: %v %v", s, err)
	}
	if err := json.Unmarshal([]byte(`"bogus"`), &s); err == nil {
		t.Fatalf("expected error for unknown stage")
	}
}

func TestLooseString(t *testing.T) {
	var v struct {
		A LooseString `json:"a"`
		B LooseString `json:"b"`
		C LooseString `json:"c"`
		D LooseString `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"a": 12.5, "b": false, "c": null, "d": "NOT_FOUND"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.A != "12.5" || v.B != "false" || v.C != "" {
		t.Fatalf("unexpected values: %+v", v)
	}
	if v.C.Known() || v.D.Known() || !v.A.Known() {
		t.Fatalf("unexpected Known results")
	}
}

func TestKnowledgeExcludedConditions(t *testing.T) {
	k := Knowledge{
		NegativeMarkers: []string{"nee", "geen"},
		NegativeTopics:  []NegativeTopic{{Match: "beding van aanwas", Condition: "beding_van_aanwas"}, {Match: "tontine", Condition: "tontine"}},
	}
	got := k.ExcludedConditions("Is er een Beding van Aanwas voorzien?", "Nee, geen beding van aanwas")
	if len(got) != 1 || got[0] != "beding_van_aanwas" {
		t.Fatalf("unexpected conditions %v", got)
	}
	if got := k.ExcludedConditions("Is er een tontine?", "Ja"); len(got) != 0 {
		t.Fatalf("positive answer must not exclude, got %v", got)
	}
	if got := k.ExcludedConditions("Wat is de koopsom?", "geen idee"); len(got) != 0 {
		t.Fatalf("unrelated question must not exclude, got %v", got)
	}
}

func TestParseDecision(t *testing.T) {
	if d, err := ParseDecision("skip"); err != nil || d != DecisionSkip {
		t.Fatalf("ParseDecision(skip) = %q, %v", d, err)
	}
	if _, err := ParseDecision("maybe"); !IsKind(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestFocusedSearchResolutionPrefersAskedItem(t *testing.T) {
	r := FocusedSearchResult{Items: map[string]FocusedItem{
		"aktedag":           {Found: true, Value: "30 oktober"},
		"repertoriumnummer": {Found: true, Value: "2024/1234"},
		"bedrag":            {Found: true, Value: "NOT_FOUND"},
		"adres":             {Found: false, Value: "Kerkstraat 1"},
	}}
	for i := 0; i < 20; i++ {
		item, ok := r.Resolution("repertoriumnummer")
		if !ok || item.Value != "2024/1234" {
			t.Fatalf("expected asked item, got %+v %v", item, ok)
		}
	}

	for i := 0; i < 20; i++ {
		item, ok := r.Resolution("koopsom")
		if !ok || item.Value != "30 oktober" {
			t.Fatalf("expected first usable item in key order, got %+v %v", item, ok)
		}
	}

	if _, ok := r.Resolution("bedrag"); !ok {
		t.Fatalf("unusable asked item must fall back to other items")
	}
	if _, ok := (FocusedSearchResult{Items: map[string]FocusedItem{"adres": {Value: "x"}}}).Resolution("adres"); ok {
		t.Fatalf("item not marked found must not resolve")
	}
}
