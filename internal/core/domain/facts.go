package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Provenance records which stage or actor produced a fact value.
type Provenance string

const (
	ProvenanceResearch      Provenance = "research"
	ProvenanceUser          Provenance = "user"
	ProvenanceFocusedSearch Provenance = "focused_search"
	ProvenanceCombined      Provenance = "combined"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// FactKey scopes a fact to the clause type that produced it.
type FactKey struct {
	Clause string `json:"clause"`
	Name   string `json:"name"`
}

type Fact struct {
	Value      string     `json:"value"`
	Provenance Provenance `json:"provenance"`
	Confidence Confidence `json:"confidence,omitempty"`
	Question   string     `json:"question,omitempty"`
	RecordedAt time.Time  `json:"recorded_at"`
}

// Answered reports whether the value came from the operator or a focused
// search. Derived values never replace an answered fact.
func (f Fact) Answered() bool {
	return f.Provenance == ProvenanceUser || f.Provenance == ProvenanceFocusedSearch
}

type FactEntry struct {
	Key  FactKey `json:"key"`
	Fact Fact    `json:"fact"`
}

// FactStore holds resolved facts in insertion order. Writes for one clause
// never touch entries recorded under another clause.
type FactStore struct {
	index   map[FactKey]int
	entries []FactEntry
}

func (s *FactStore) Record(key FactKey, fact Fact) error {
	if strings.TrimSpace(string(fact.Provenance)) == "" {
		return WrapError(ErrInvalidInput, "record fact", errors.New("provenance is required"))
	}
	if strings.TrimSpace(key.Name) == "" {
		return WrapError(ErrInvalidInput, "record fact", errors.New("fact name is required"))
	}
	if s.index == nil {
		s.index = make(map[FactKey]int)
	}
	if pos, ok := s.index[key]; ok {
		s.entries[pos].Fact = fact
		return nil
	}
	s.index[key] = len(s.entries)
	s.entries = append(s.entries, FactEntry{Key: key, Fact: fact})
	return nil
}

func (s *FactStore) Lookup(key FactKey) (Fact, bool) {
	pos, ok := s.index[key]
	if !ok {
		return Fact{}, false
	}
	return s.entries[pos].Fact, true
}

func (s *FactStore) Entries() []FactEntry {
	return append([]FactEntry(nil), s.entries...)
}

func (s *FactStore) ForClause(clause string) []FactEntry {
	out := make([]FactEntry, 0)
	for _, e := range s.entries {
		if e.Key.Clause == clause {
			out = append(out, e)
		}
	}
	return out
}

func (s *FactStore) Len() int { return len(s.entries) }

func (s FactStore) MarshalJSON() ([]byte, error) {
	if s.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.entries)
}

func (s *FactStore) UnmarshalJSON(data []byte) error {
	var entries []FactEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*s = FactStore{}
	for _, e := range entries {
		if err := s.Record(e.Key, e.Fact); err != nil {
			return err
		}
	}
	return nil
}
