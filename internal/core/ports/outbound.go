package ports

import (
	"context"
	"io"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
)

// ModelInvoker sends one instruction to the language model and returns its raw text.
// Every failure is reported as domain.ErrModelInvocation.
type ModelInvoker interface {
	Invoke(ctx context.Context, instruction string) (string, error)
}

// CaseRepository persists case state between operator requests.
type CaseRepository interface {
	Create(ctx context.Context, c *domain.Case) error
	GetByID(ctx context.Context, id string) (*domain.Case, error)
	Update(ctx context.Context, c *domain.Case) error
}

// ObjectStorage stores uploaded sources and rendered exports.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// TextExtractor converts one uploaded file into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, filename string, data []byte) (string, error)
}

// EventPublisher announces finished clause runs.
type EventPublisher interface {
	PublishClauseCompleted(ctx context.Context, event domain.ClauseCompleted) error
}

// EventSubscriber consumes finished clause runs.
type EventSubscriber interface {
	SubscribeClauseCompleted(ctx context.Context, handler func(context.Context, domain.ClauseCompleted) error) error
}

// ClauseCatalog exposes the candidate clauses by ordinal.
type ClauseCatalog interface {
	List(ctx context.Context) ([]domain.ClauseTask, error)
	Get(ctx context.Context, ordinal int) (domain.ClauseTask, error)
}

// DocumentRenderer renders the processed clauses of a case.
type DocumentRenderer interface {
	Render(c *domain.Case, format domain.ExportFormat) (domain.ExportDocument, error)
}

// PipelineObserver receives stage transitions and agent outcomes.
type PipelineObserver interface {
	StageEntered(stage domain.Stage)
	AgentFinished(agent string, degraded bool)
	ClauseFinished(decision domain.Decision)
}

// ClauseAgents are the model-backed steps of a clause run. They never fail:
// a degraded call returns the agent's empty result carrying a notice.
type ClauseAgents interface {
	Applicability(ctx context.Context, task domain.ClauseTask, c *domain.Case) domain.ApplicabilityResult
	Research(ctx context.Context, task domain.ClauseTask, c *domain.Case) domain.ResearchResult
	Review(ctx context.Context, task domain.ClauseTask, research domain.ResearchResult) domain.ReviewResult
	FocusedSearch(ctx context.Context, missingInfo string, c *domain.Case) domain.FocusedSearchResult
	Compile(ctx context.Context, research domain.ResearchResult, answers []domain.FactEntry) domain.CompiledFacts
	Generate(ctx context.Context, task domain.ClauseTask, c *domain.Case, research domain.ResearchResult, compiled domain.CompiledFacts) domain.GeneratedClause
	SuggestIntake(ctx context.Context, corpus string) domain.IntakeSuggestion
}
