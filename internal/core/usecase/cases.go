package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/ports"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/prompt"
)

type CaseServiceDeps struct {
	Repo      ports.CaseRepository
	Catalog   ports.ClauseCatalog
	Extractor ports.TextExtractor
	Storage   ports.ObjectStorage
	Agents    ports.ClauseAgents
	Pipeline  *ClausePipeline
	Renderer  ports.DocumentRenderer
	// Notary is used when an intake does not name the instrumenting notary.
	Notary domain.NotaryOffice
}

// CaseService serializes all work on one case: a single operation and at
// most one clause run per case at any time.
type CaseService struct {
	deps     CaseServiceDeps
	validate *validator.Validate

	mu       sync.Mutex
	locks    map[string]*caseLock
	sessions map[string]*domain.PipelineState
}

var _ ports.CaseService = (*CaseService)(nil)

func NewCaseService(deps CaseServiceDeps) *CaseService {
	return &CaseService{
		deps:     deps,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		locks:    make(map[string]*caseLock),
		sessions: make(map[string]*domain.PipelineState),
	}
}

func (s *CaseService) CreateCase(ctx context.Context, intake domain.Intake) (*domain.Case, error) {
	if err := s.validate.Struct(intake); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create case", describeValidation(err))
	}
	signed, err := time.Parse("2006-01-02", intake.SigningDate)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create case", err)
	}

	notary := intake.Notary
	if strings.TrimSpace(notary.Name) == "" {
		notary = s.deps.Notary
	}
	now := time.Now().UTC()
	c := &domain.Case{
		ID:          uuid.NewString(),
		Notary:      notary,
		Parties:     append([]domain.Party(nil), intake.Parties...),
		Transaction: intake.Transaction,
		Signing: domain.SigningMetadata{
			Date:            signed,
			Day:             signed.Day(),
			Month:           int(signed.Month()),
			MonthName:       prompt.DutchMonth(int(signed.Month())),
			Year:            signed.Year(),
			RepertoryNumber: strings.TrimSpace(intake.RepertoryNumber),
			Remote:          intake.RemoteSigning,
		},
		ProcessedClauses: []domain.ProcessedClause{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.Corpus = prompt.CaseSummary(c)

	if err := s.deps.Repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create case: %w", err)
	}
	slog.Info("case_created", "case_id", c.ID, "sellers", len(c.Sellers()), "buyers", len(c.Buyers()))
	return c, nil
}

func (s *CaseService) GetCase(ctx context.Context, id string) (*domain.Case, error) {
	return s.deps.Repo.GetByID(ctx, id)
}

// AddDocuments appends the text of every readable file to the case corpus.
// Unreadable files are reported and skipped.
func (s *CaseService) AddDocuments(ctx context.Context, caseID string, files []domain.Upload) (*domain.Case, []domain.SourceDocument, error) {
	if len(files) == 0 {
		return nil, nil, domain.WrapError(domain.ErrInvalidInput, "add documents", errors.New("no files supplied"))
	}
	unlock := s.lock(caseID)
	defer unlock()

	c, err := s.deps.Repo.GetByID(ctx, caseID)
	if err != nil {
		return nil, nil, err
	}

	text, reports := s.readAll(ctx, caseID, files)
	c.SourceText += text
	c.Sources = append(c.Sources, reports...)
	c.Corpus = c.SourceText + prompt.CaseSummary(c)
	c.UpdatedAt = time.Now().UTC()

	if err := s.deps.Repo.Update(ctx, c); err != nil {
		return nil, nil, fmt.Errorf("update case: %w", err)
	}
	return c, reports, nil
}

// SuggestIntake drafts intake fields from source files without touching any case.
func (s *CaseService) SuggestIntake(ctx context.Context, files []domain.Upload) (domain.IntakeSuggestion, []domain.SourceDocument, error) {
	if len(files) == 0 {
		return domain.IntakeSuggestion{}, nil, domain.WrapError(domain.ErrInvalidInput, "suggest intake", errors.New("no files supplied"))
	}
	text, reports := s.readAll(ctx, "", files)
	if strings.TrimSpace(text) == "" {
		return domain.IntakeSuggestion{Notice: "geen leesbare tekst in de aangeleverde bestanden"}, reports, nil
	}
	return s.deps.Agents.SuggestIntake(ctx, text), reports, nil
}

func (s *CaseService) readAll(ctx context.Context, caseID string, files []domain.Upload) (string, []domain.SourceDocument) {
	var b strings.Builder
	reports := make([]domain.SourceDocument, 0, len(files))
	for _, f := range files {
		report := domain.SourceDocument{Filename: f.Filename}
		if caseID != "" && s.deps.Storage != nil {
			key := fmt.Sprintf("%s/sources/%s_%s", caseID, uuid.NewString(), sanitizeFilename(f.Filename))
			if err := s.deps.Storage.Save(ctx, key, bytes.NewReader(f.Data)); err != nil {
				slog.Warn("source_store_failed", "case_id", caseID, "filename", f.Filename, "error", err)
			}
		}
		text, err := s.deps.Extractor.Extract(ctx, f.Filename, f.Data)
		if err != nil {
			report.Error = err.Error()
			slog.Warn("source_extract_failed", "case_id", caseID, "filename", f.Filename, "error", err)
			reports = append(reports, report)
			continue
		}
		b.WriteString("\n\n--- Content from " + f.Filename + " ---\n\n")
		b.WriteString(text)
		report.Chars = len([]rune(text))
		reports = append(reports, report)
	}
	return b.String(), reports
}

func (s *CaseService) Catalog(ctx context.Context) ([]domain.CatalogEntry, error) {
	tasks, err := s.deps.Catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.CatalogEntry, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, domain.CatalogEntry{
			Ordinal:         t.Ordinal,
			Label:           t.Label,
			ClauseType:      t.ClauseType,
			AlwaysMandatory: t.AlwaysMandatory(),
		})
	}
	return out, nil
}

func (s *CaseService) StartClause(ctx context.Context, caseID string, ordinal int) (*domain.PipelineState, error) {
	unlock := s.lock(caseID)
	defer unlock()

	if _, busy := s.session(caseID); busy {
		return nil, domain.WrapError(domain.ErrClauseInProgress, "start clause", fmt.Errorf("case %s", caseID))
	}
	c, err := s.deps.Repo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	task, err := s.deps.Catalog.Get(ctx, ordinal)
	if err != nil {
		return nil, err
	}

	state, err := s.deps.Pipeline.Start(ctx, c, task)
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, c, state)
}

func (s *CaseService) CurrentClause(_ context.Context, caseID string) (*domain.PipelineState, error) {
	unlock := s.lock(caseID)
	defer unlock()

	state, ok := s.session(caseID)
	if !ok {
		return nil, domain.WrapError(domain.ErrNoActiveClause, "current clause", fmt.Errorf("case %s", caseID))
	}
	return state.Snapshot(), nil
}

func (s *CaseService) DecideClause(ctx context.Context, caseID string, decision domain.Decision) (*domain.PipelineState, error) {
	return s.step(ctx, caseID, "decide clause", func(c *domain.Case, state *domain.PipelineState) error {
		return s.deps.Pipeline.Decide(ctx, c, state, decision)
	})
}

func (s *CaseService) AnswerQuestion(ctx context.Context, caseID, answer string) (*domain.PipelineState, error) {
	return s.step(ctx, caseID, "answer question", func(c *domain.Case, state *domain.PipelineState) error {
		return s.deps.Pipeline.Answer(ctx, c, state, answer)
	})
}

// AbandonClause discards the active run. Facts it already recorded stay.
func (s *CaseService) AbandonClause(_ context.Context, caseID string) error {
	unlock := s.lock(caseID)
	defer unlock()

	state, ok := s.session(caseID)
	if !ok {
		return domain.WrapError(domain.ErrNoActiveClause, "abandon clause", fmt.Errorf("case %s", caseID))
	}
	s.mu.Lock()
	delete(s.sessions, caseID)
	s.mu.Unlock()
	slog.Info("clause_abandoned", "case_id", caseID, "ordinal", state.Task.Ordinal, "stage", state.Stage.String())
	return nil
}

func (s *CaseService) Export(ctx context.Context, caseID string, format domain.ExportFormat) (domain.ExportDocument, error) {
	c, err := s.deps.Repo.GetByID(ctx, caseID)
	if err != nil {
		return domain.ExportDocument{}, err
	}
	return s.deps.Renderer.Render(c, format)
}

func (s *CaseService) step(
	ctx context.Context,
	caseID, operation string,
	fn func(*domain.Case, *domain.PipelineState) error,
) (*domain.PipelineState, error) {
	unlock := s.lock(caseID)
	defer unlock()

	state, ok := s.session(caseID)
	if !ok {
		return nil, domain.WrapError(domain.ErrNoActiveClause, operation, fmt.Errorf("case %s", caseID))
	}
	c, err := s.deps.Repo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := fn(c, state); err != nil {
		return nil, err
	}
	return s.settle(ctx, c, state)
}

// settle persists the case and keeps or drops the run depending on its stage.
// The completion event goes out only after the case is stored.
func (s *CaseService) settle(ctx context.Context, c *domain.Case, state *domain.PipelineState) (*domain.PipelineState, error) {
	c.UpdatedAt = time.Now().UTC()
	if err := s.deps.Repo.Update(ctx, c); err != nil {
		state.Completed = nil
		return nil, fmt.Errorf("update case: %w", err)
	}
	s.deps.Pipeline.Publish(ctx, state)
	s.mu.Lock()
	if state.Stage == domain.StageComplete {
		delete(s.sessions, c.ID)
	} else {
		s.sessions[c.ID] = state
	}
	s.mu.Unlock()
	return state.Snapshot(), nil
}

func (s *CaseService) session(caseID string) (*domain.PipelineState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.sessions[caseID]
	return state, ok
}

type caseLock struct {
	mu   sync.Mutex
	refs int
}

// lock serializes work on one case. The entry is dropped when the last
// holder or waiter releases it.
func (s *CaseService) lock(caseID string) func() {
	s.mu.Lock()
	l, ok := s.locks[caseID]
	if !ok {
		l = &caseLock{}
		s.locks[caseID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, caseID)
		}
		s.mu.Unlock()
	}
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return errors.New(strings.Join(parts, "; "))
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.bin"
	}
	return base
}
