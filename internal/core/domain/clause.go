package domain

// ClauseTask is one catalog row selected for processing.
type ClauseTask struct {
	Ordinal        int    `json:"ordinal" yaml:"ordinal"`
	Label          string `json:"label" yaml:"label"`
	ClauseType     string `json:"clause_type" yaml:"clause_type"`
	Instruction    string `json:"instruction" yaml:"instruction"`
	SkipConditions string `json:"skip_conditions,omitempty" yaml:"skip_conditions"`
}

// AlwaysMandatory reports whether the clause bypasses the applicability check.
func (t ClauseTask) AlwaysMandatory() bool {
	return IsAlwaysMandatory(t.Ordinal)
}

// TypeKey is the clause-type label used to scope facts and answers.
func (t ClauseTask) TypeKey() string {
	if t.ClauseType != "" {
		return t.ClauseType
	}
	return t.Label
}

var alwaysMandatory = buildOrdinalSet(
	[2]int{1, 7},
	[2]int{15, 27},
	[2]int{33, 36},
	[2]int{38, 38},
	[2]int{40, 41},
	[2]int{44, 44},
	[2]int{47, 50},
	[2]int{52, 52},
	[2]int{54, 60},
)

func buildOrdinalSet(ranges ...[2]int) map[int]struct{} {
	out := make(map[int]struct{})
	for _, r := range ranges {
		for n := r[0]; n <= r[1]; n++ {
			out[n] = struct{}{}
		}
	}
	return out
}

func IsAlwaysMandatory(ordinal int) bool {
	_, ok := alwaysMandatory[ordinal]
	return ok
}

// CatalogEntry is the operator-facing listing of one catalog row.
type CatalogEntry struct {
	Ordinal         int    `json:"ordinal"`
	Label           string `json:"label"`
	ClauseType      string `json:"clause_type"`
	AlwaysMandatory bool   `json:"always_mandatory"`
}
