package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/ports"
)

// ClausePipeline drives one clause at a time through the agent stages. It
// mutates the case it is given; persisting it and then calling Publish is
// the caller's job.
type ClausePipeline struct {
	agents    ports.ClauseAgents
	publisher ports.EventPublisher
	observer  ports.PipelineObserver
	now       func() time.Time
}

func NewClausePipeline(agents ports.ClauseAgents, publisher ports.EventPublisher, observer ports.PipelineObserver) *ClausePipeline {
	if observer == nil {
		observer = noopObserver{}
	}
	return &ClausePipeline{
		agents:    agents,
		publisher: publisher,
		observer:  observer,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start opens a run for task. Always-mandatory clauses are applied without
// an applicability check; all others stop for the operator's decision.
func (p *ClausePipeline) Start(ctx context.Context, c *domain.Case, task domain.ClauseTask) (*domain.PipelineState, error) {
	state := &domain.PipelineState{
		CaseID:    c.ID,
		Task:      task,
		Stage:     domain.StageApplicability,
		Questions: []domain.QuestionSpec{},
		StartedAt: p.now(),
	}
	p.enter(state, domain.StageApplicability)

	if task.AlwaysMandatory() {
		state.Applicability = &domain.ApplicabilityResult{
			Verdict:   domain.VerdictKeep,
			Rationale: fmt.Sprintf("Clausule %d is essentieel en wordt altijd toegepast.", task.Ordinal),
			Bypassed:  true,
		}
		state.Decision = domain.DecisionApply
		return state, p.Advance(ctx, c, state)
	}

	advice := p.agents.Applicability(ctx, task, c)
	p.agentDone(state, "applicability", advice.Notice)
	state.Applicability = &advice
	return state, nil
}

// Decide records the binding keep/skip choice and runs on to the next checkpoint.
func (p *ClausePipeline) Decide(ctx context.Context, c *domain.Case, state *domain.PipelineState, decision domain.Decision) error {
	if !state.AwaitingDecision() {
		return domain.WrapError(domain.ErrInvalidTransition, "decide clause", fmt.Errorf("stage %s does not accept a decision", state.Stage))
	}
	if decision != domain.DecisionApply && decision != domain.DecisionSkip {
		return domain.WrapError(domain.ErrInvalidInput, "decide clause", fmt.Errorf("unknown decision %q", decision))
	}
	state.Decision = decision
	return p.Advance(ctx, c, state)
}

// Answer closes the pending question with the operator's answer.
func (p *ClausePipeline) Answer(ctx context.Context, c *domain.Case, state *domain.PipelineState, answer string) error {
	if !state.AwaitingAnswer() {
		return domain.WrapError(domain.ErrInvalidTransition, "answer question", fmt.Errorf("stage %s has no pending question", state.Stage))
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return domain.WrapError(domain.ErrInvalidInput, "answer question", fmt.Errorf("answer is empty"))
	}

	q := *state.Pending
	err := c.Facts.Record(domain.FactKey{Clause: state.Task.TypeKey(), Name: q.MissingInfo}, domain.Fact{
		Value:      answer,
		Provenance: domain.ProvenanceUser,
		Confidence: domain.ConfidenceHigh,
		Question:   q.Question,
		RecordedAt: p.now(),
	})
	if err != nil {
		return err
	}
	state.Resolved = append(state.Resolved, domain.ResolvedQuestion{MissingInfo: q.MissingInfo, Answer: answer, Provenance: domain.ProvenanceUser})
	state.Pending = nil
	state.QuestionIndex++
	return p.Advance(ctx, c, state)
}

// Advance runs automatic stages until the run needs the operator or completes.
func (p *ClausePipeline) Advance(ctx context.Context, c *domain.Case, state *domain.PipelineState) error {
	for {
		switch state.Stage {
		case domain.StageApplicability:
			switch state.Decision {
			case domain.DecisionPending:
				return nil
			case domain.DecisionSkip:
				if err := p.transition(state, domain.StageComplete); err != nil {
					return err
				}
			default:
				if err := p.transition(state, domain.StageResearch); err != nil {
					return err
				}
			}

		case domain.StageResearch:
			research := p.agents.Research(ctx, state.Task, c)
			p.agentDone(state, "research", research.Notice)
			state.Research = &research
			p.recordResearch(c, state.Task, research)
			if err := p.transition(state, domain.StageReview); err != nil {
				return err
			}

		case domain.StageReview:
			review := p.agents.Review(ctx, state.Task, *state.Research)
			p.agentDone(state, "review", review.Notice)
			state.Review = &review
			next := domain.StageGeneration
			if len(review.CriticalMissing) > 0 {
				state.Questions = append([]domain.QuestionSpec(nil), review.Questions...)
				state.QuestionIndex = 0
				next = domain.StageQuestions
			}
			if err := p.transition(state, next); err != nil {
				return err
			}

		case domain.StageQuestions:
			if state.Pending != nil {
				return nil
			}
			if state.QuestionIndex >= len(state.Questions) {
				if err := p.transition(state, domain.StageGeneration); err != nil {
					return err
				}
				continue
			}
			if p.searchCurrent(ctx, c, state) {
				state.QuestionIndex++
				continue
			}
			q := state.Questions[state.QuestionIndex]
			state.Pending = &q
			return nil

		case domain.StageGeneration:
			if state.Research == nil || state.Review == nil {
				return domain.WrapError(domain.ErrInvalidTransition, "generate clause", fmt.Errorf("research and review must run first"))
			}
			answers := clauseAnswers(c, state.Task)
			compiled := p.agents.Compile(ctx, *state.Research, answers)
			if len(answers) > 0 {
				p.agentDone(state, "compiler", compiled.Notice)
			}
			state.Compiled = &compiled
			p.recordCompiled(c, state.Task, compiled)

			result := p.agents.Generate(ctx, state.Task, c, *state.Research, compiled)
			p.agentDone(state, "generator", result.Notice)
			state.Result = &result
			c.RecordClause(state.Task.Ordinal, state.Task.Label, result.Text, p.now())
			if err := p.transition(state, domain.StageComplete); err != nil {
				return err
			}

		case domain.StageComplete:
			p.finish(c, state)
			return nil

		default:
			return domain.WrapError(domain.ErrInvalidTransition, "advance clause", fmt.Errorf("unknown stage %d", state.Stage))
		}
	}
}

// searchCurrent tries to resolve the current question without the operator.
func (p *ClausePipeline) searchCurrent(ctx context.Context, c *domain.Case, state *domain.PipelineState) bool {
	q := state.Questions[state.QuestionIndex]
	result := p.agents.FocusedSearch(ctx, q.MissingInfo, c)
	p.agentDone(state, "focused_search", result.Notice)

	item, ok := result.Resolution(q.MissingInfo)
	if !ok {
		return false
	}
	confidence := item.Confidence
	if confidence == "" {
		confidence = domain.ConfidenceHigh
	}
	err := c.Facts.Record(domain.FactKey{Clause: state.Task.TypeKey(), Name: q.MissingInfo}, domain.Fact{
		Value:      item.Value.String(),
		Provenance: domain.ProvenanceFocusedSearch,
		Confidence: confidence,
		Question:   q.Question,
		RecordedAt: p.now(),
	})
	if err != nil {
		state.Notice(err.Error())
		return false
	}
	state.Resolved = append(state.Resolved, domain.ResolvedQuestion{
		MissingInfo: q.MissingInfo,
		Answer:      item.Value.String(),
		Provenance:  domain.ProvenanceFocusedSearch,
	})
	slog.Info("question_auto_resolved", "case_id", c.ID, "ordinal", state.Task.Ordinal, "missing_info", q.MissingInfo)
	return true
}

func (p *ClausePipeline) recordResearch(c *domain.Case, task domain.ClauseTask, research domain.ResearchResult) {
	for key, f := range research.FoundInformation {
		if !f.Value.Known() {
			continue
		}
		p.recordDerived(c, domain.FactKey{Clause: task.TypeKey(), Name: key}, domain.Fact{
			Value:      f.Value.String(),
			Provenance: domain.ProvenanceResearch,
			Confidence: f.Confidence,
			RecordedAt: p.now(),
		})
	}
}

// recordCompiled stores merged values; sourced values are already present.
func (p *ClausePipeline) recordCompiled(c *domain.Case, task domain.ClauseTask, compiled domain.CompiledFacts) {
	for key, f := range compiled.Facts {
		if f.Source != domain.ProvenanceCombined || !f.Value.Known() {
			continue
		}
		p.recordDerived(c, domain.FactKey{Clause: task.TypeKey(), Name: key}, domain.Fact{
			Value:      f.Value.String(),
			Provenance: domain.ProvenanceCombined,
			Confidence: f.Confidence,
			RecordedAt: p.now(),
		})
	}
}

// recordDerived stores a research or compiled value unless an earlier run
// already holds an answer under the same key.
func (p *ClausePipeline) recordDerived(c *domain.Case, key domain.FactKey, fact domain.Fact) {
	if existing, ok := c.Facts.Lookup(key); ok && existing.Answered() {
		return
	}
	_ = c.Facts.Record(key, fact)
}

// clauseAnswers returns the operator and focused-search answers on record
// for the clause type.
func clauseAnswers(c *domain.Case, task domain.ClauseTask) []domain.FactEntry {
	var out []domain.FactEntry
	for _, e := range c.Facts.ForClause(task.TypeKey()) {
		if e.Fact.Answered() {
			out = append(out, e)
		}
	}
	return out
}

// finish closes the run and leaves the completion event on the state. The
// event goes out through Publish once the case is stored.
func (p *ClausePipeline) finish(c *domain.Case, state *domain.PipelineState) {
	p.observer.ClauseFinished(state.Decision)
	slog.Info("clause_completed",
		"case_id", c.ID,
		"ordinal", state.Task.Ordinal,
		"label", state.Task.Label,
		"decision", string(state.Decision),
		"notices", len(state.Notices),
	)
	state.Completed = &domain.ClauseCompleted{
		EventID:    uuid.NewString(),
		CaseID:     c.ID,
		Ordinal:    state.Task.Ordinal,
		Label:      state.Task.Label,
		Decision:   state.Decision,
		OccurredAt: p.now(),
	}
}

// Publish sends the completion event of a finished run. A publish failure
// becomes a notice; the clause itself is already stored.
func (p *ClausePipeline) Publish(ctx context.Context, state *domain.PipelineState) {
	event := state.Completed
	if event == nil {
		return
	}
	state.Completed = nil
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishClauseCompleted(ctx, *event); err != nil {
		slog.Warn("clause_event_publish_failed", "case_id", event.CaseID, "ordinal", event.Ordinal, "error", err)
		state.Notice("gebeurtenis niet gepubliceerd: " + err.Error())
	}
}

func (p *ClausePipeline) transition(state *domain.PipelineState, next domain.Stage) error {
	if !state.Stage.CanTransitionTo(next) {
		return domain.WrapError(domain.ErrInvalidTransition, "advance clause", fmt.Errorf("%s -> %s", state.Stage, next))
	}
	state.Stage = next
	p.enter(state, next)
	return nil
}

func (p *ClausePipeline) enter(state *domain.PipelineState, stage domain.Stage) {
	p.observer.StageEntered(stage)
	slog.Debug("clause_stage_entered", "case_id", state.CaseID, "ordinal", state.Task.Ordinal, "stage", stage.String())
}

func (p *ClausePipeline) agentDone(state *domain.PipelineState, agent, notice string) {
	p.observer.AgentFinished(agent, notice != "")
	if notice != "" {
		state.Notice(notice)
	}
}

type noopObserver struct{}

func (noopObserver) StageEntered(domain.Stage) {}

func (noopObserver) AgentFinished(string, bool) {}

func (noopObserver) ClauseFinished(domain.Decision) {}
