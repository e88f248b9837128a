package ports

import (
	"context"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
)

// CaseService is the inbound contract used by the HTTP API and the CLI.
type CaseService interface {
	CreateCase(ctx context.Context, intake domain.Intake) (*domain.Case, error)
	GetCase(ctx context.Context, id string) (*domain.Case, error)
	AddDocuments(ctx context.Context, caseID string, files []domain.Upload) (*domain.Case, []domain.SourceDocument, error)
	SuggestIntake(ctx context.Context, files []domain.Upload) (domain.IntakeSuggestion, []domain.SourceDocument, error)
	Catalog(ctx context.Context) ([]domain.CatalogEntry, error)

	StartClause(ctx context.Context, caseID string, ordinal int) (*domain.PipelineState, error)
	CurrentClause(ctx context.Context, caseID string) (*domain.PipelineState, error)
	DecideClause(ctx context.Context, caseID string, decision domain.Decision) (*domain.PipelineState, error)
	AnswerQuestion(ctx context.Context, caseID, answer string) (*domain.PipelineState, error)
	AbandonClause(ctx context.Context, caseID string) error

	Export(ctx context.Context, caseID string, format domain.ExportFormat) (domain.ExportDocument, error)
}
