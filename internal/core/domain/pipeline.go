package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type Stage int

const (
	StageApplicability Stage = iota + 1
	StageResearch
	StageReview
	StageQuestions
	StageGeneration
	StageComplete
)

var stageNames = map[Stage]string{
	StageApplicability: "applicability",
	StageResearch:      "research",
	StageReview:        "review",
	StageQuestions:     "questions",
	StageGeneration:    "generation",
	StageComplete:      "complete",
}

// stagePredecessors lists, for every stage, the stages it may be entered from.
var stagePredecessors = map[Stage][]Stage{
	StageResearch:   {StageApplicability},
	StageReview:     {StageResearch},
	StageQuestions:  {StageReview},
	StageGeneration: {StageReview, StageQuestions},
	StageComplete:   {StageApplicability, StageGeneration},
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

func (s Stage) CanTransitionTo(next Stage) bool {
	for _, from := range stagePredecessors[next] {
		if from == s {
			return true
		}
	}
	return false
}

func (s Stage) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Stage) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for stage, n := range stageNames {
		if n == name {
			*s = stage
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", name)
}

// Decision is the operator's binding keep/skip choice for a clause.
type Decision string

const (
	DecisionPending Decision = ""
	DecisionApply   Decision = "apply"
	DecisionSkip    Decision = "skip"
)

func ParseDecision(raw string) (Decision, error) {
	switch Decision(raw) {
	case DecisionApply, DecisionSkip:
		return Decision(raw), nil
	default:
		return DecisionPending, WrapError(ErrInvalidInput, "parse decision", fmt.Errorf("unknown decision %q", raw))
	}
}

// PipelineState is the cursor of one clause run. It is discarded once the
// run reaches StageComplete or is abandoned.
type PipelineState struct {
	CaseID        string               `json:"case_id"`
	Task          ClauseTask           `json:"task"`
	Stage         Stage                `json:"stage"`
	Decision      Decision             `json:"decision"`
	Applicability *ApplicabilityResult `json:"applicability,omitempty"`
	Research      *ResearchResult      `json:"research,omitempty"`
	Review        *ReviewResult        `json:"review,omitempty"`
	Questions     []QuestionSpec       `json:"questions"`
	QuestionIndex int                  `json:"question_index"`
	Pending       *QuestionSpec        `json:"pending,omitempty"`
	Resolved      []ResolvedQuestion   `json:"resolved,omitempty"`
	Compiled      *CompiledFacts       `json:"compiled,omitempty"`
	Result        *GeneratedClause     `json:"result,omitempty"`
	Notices       []string             `json:"notices,omitempty"`
	StartedAt     time.Time            `json:"started_at"`

	// Completed is the event waiting to be published once the case is stored.
	Completed *ClauseCompleted `json:"-"`
}

// ResolvedQuestion records how one outstanding question was closed.
type ResolvedQuestion struct {
	MissingInfo string     `json:"missing_info"`
	Answer      string     `json:"answer"`
	Provenance  Provenance `json:"provenance"`
}

// AwaitingDecision reports whether the run is blocked on the keep/skip choice.
func (s *PipelineState) AwaitingDecision() bool {
	return s.Stage == StageApplicability && s.Decision == DecisionPending
}

// AwaitingAnswer reports whether the run is blocked on an operator answer.
func (s *PipelineState) AwaitingAnswer() bool {
	return s.Stage == StageQuestions && s.Pending != nil
}

func (s *PipelineState) Notice(msg string) {
	if msg == "" {
		return
	}
	s.Notices = append(s.Notices, msg)
}

// Snapshot returns a copy that is safe to hand to callers.
func (s *PipelineState) Snapshot() *PipelineState {
	if s == nil {
		return nil
	}
	out := *s
	out.Questions = append([]QuestionSpec(nil), s.Questions...)
	out.Resolved = append([]ResolvedQuestion(nil), s.Resolved...)
	out.Notices = append([]string(nil), s.Notices...)
	if s.Pending != nil {
		p := *s.Pending
		out.Pending = &p
	}
	return &out
}
