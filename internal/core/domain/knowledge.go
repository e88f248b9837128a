package domain

import "strings"

// Regime selects how the applicability check treats a clause category.
type Regime string

const (
	// RegimeOmitUnlessEvidence drops fact-dependent clauses without positive evidence.
	RegimeOmitUnlessEvidence Regime = "omit_unless_evidence"
	// RegimeKeepUnlessImpossible keeps elective clauses unless the parties rule them out.
	RegimeKeepUnlessImpossible Regime = "keep_unless_impossible"
)

type ApplicabilityRule struct {
	Ordinals []int  `yaml:"ordinals" json:"ordinals" validate:"required,min=1,dive,gte=1"`
	Title    string `yaml:"title" json:"title" validate:"required"`
	Rule     string `yaml:"rule" json:"rule" validate:"required"`
}

type RuleCategory struct {
	Name   string              `yaml:"name" json:"name" validate:"required"`
	Regime Regime              `yaml:"regime" json:"regime" validate:"oneof=omit_unless_evidence keep_unless_impossible"`
	Logic  string              `yaml:"logic" json:"logic"`
	Rules  []ApplicabilityRule `yaml:"rules" json:"rules" validate:"required,min=1,dive"`
}

// NegativeTopic turns a negative operator answer to a matching question
// into an excluded condition.
type NegativeTopic struct {
	Match     string `yaml:"match" json:"match" validate:"required"`
	Condition string `yaml:"condition" json:"condition" validate:"required"`
}

type BlockNames struct {
	Header string `yaml:"header" json:"header" validate:"required"`
	Remote string `yaml:"remote" json:"remote" validate:"required"`
}

// Knowledge is the externally supplied domain data the agents reason with.
type Knowledge struct {
	Categories      []RuleCategory  `yaml:"categories" json:"categories" validate:"required,min=1,dive"`
	SearchHints     []string        `yaml:"search_hints" json:"search_hints"`
	NegativeMarkers []string        `yaml:"negative_markers" json:"negative_markers" validate:"required,min=1,dive,required"`
	NegativeTopics  []NegativeTopic `yaml:"negative_topics" json:"negative_topics" validate:"dive"`
	Blocks          BlockNames      `yaml:"blocks" json:"blocks"`
	OtherOption     string          `yaml:"other_option" json:"other_option"`
	MaxOptions      int             `yaml:"max_options" json:"max_options" validate:"gte=0"`
}

// CategoryFor returns the rule category that names the ordinal, if any.
func (k Knowledge) CategoryFor(ordinal int) (RuleCategory, ApplicabilityRule, bool) {
	for _, cat := range k.Categories {
		for _, rule := range cat.Rules {
			for _, n := range rule.Ordinals {
				if n == ordinal {
					return cat, rule, true
				}
			}
		}
	}
	return RuleCategory{}, ApplicabilityRule{}, false
}

// ExcludedConditions returns the conditions a negative answer to question rules out.
func (k Knowledge) ExcludedConditions(question, answer string) []string {
	if !k.IsNegative(answer) {
		return nil
	}
	q := strings.ToLower(question)
	var out []string
	for _, topic := range k.NegativeTopics {
		if topic.Match != "" && strings.Contains(q, strings.ToLower(topic.Match)) {
			out = append(out, topic.Condition)
		}
	}
	return out
}

// IsNegative reports whether the answer contains a negative marker word.
func (k Knowledge) IsNegative(answer string) bool {
	words := strings.FieldsFunc(strings.ToLower(answer), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r > 127)
	})
	for _, w := range words {
		for _, marker := range k.NegativeMarkers {
			if w == strings.ToLower(marker) {
				return true
			}
		}
	}
	return false
}
