package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
)

type agentsFake struct {
	applicability domain.ApplicabilityResult
	research      domain.ResearchResult
	review        domain.ReviewResult
	search        map[string]domain.FocusedSearchResult
	compiled      *domain.CompiledFacts
	generated     string

	calls          []string
	compileAnswers []domain.FactEntry
	generateInput  domain.CompiledFacts
}

func (f *agentsFake) Applicability(context.Context, domain.ClauseTask, *domain.Case) domain.ApplicabilityResult {
	f.calls = append(f.calls, "applicability")
	return f.applicability
}

func (f *agentsFake) Research(context.Context, domain.ClauseTask, *domain.Case) domain.ResearchResult {
	f.calls = append(f.calls, "research")
	return f.research
}

func (f *agentsFake) Review(context.Context, domain.ClauseTask, domain.ResearchResult) domain.ReviewResult {
	f.calls = append(f.calls, "review")
	return f.review
}

func (f *agentsFake) FocusedSearch(_ context.Context, missingInfo string, _ *domain.Case) domain.FocusedSearchResult {
	f.calls = append(f.calls, "focused_search:"+missingInfo)
	if res, ok := f.search[missingInfo]; ok {
		return res
	}
	return domain.EmptyFocusedSearch("not found")
}

func (f *agentsFake) Compile(_ context.Context, research domain.ResearchResult, answers []domain.FactEntry) domain.CompiledFacts {
	f.calls = append(f.calls, "compile")
	f.compileAnswers = answers
	if f.compiled != nil {
		return *f.compiled
	}
	out := domain.CompiledFacts{Facts: map[string]domain.CompiledFact{}, Ready: true}
	for k, v := range research.FoundInformation {
		out.Facts[k] = domain.CompiledFact{Value: v.Value, Source: domain.ProvenanceResearch}
	}
	for _, a := range answers {
		out.Facts[a.Key.Name] = domain.CompiledFact{Value: domain.LooseString(a.Fact.Value), Source: a.Fact.Provenance}
	}
	return out
}

func (f *agentsFake) Generate(_ context.Context, task domain.ClauseTask, _ *domain.Case, _ domain.ResearchResult, compiled domain.CompiledFacts) domain.GeneratedClause {
	f.calls = append(f.calls, "generate")
	f.generateInput = compiled
	text := f.generated
	if text == "" {
		text = "Tekst voor " + task.Label
	}
	return domain.GeneratedClause{Text: text}
}

func (f *agentsFake) SuggestIntake(_ context.Context, corpus string) domain.IntakeSuggestion {
	f.calls = append(f.calls, "intake")
	var s domain.IntakeSuggestion
	s.General.SigningDate = domain.SuggestedValue{Value: domain.LooseString(fmt.Sprint(len(corpus))), Confidence: "50"}
	return s
}

type publisherFake struct {
	events []domain.ClauseCompleted
	err    error
}

func (f *publisherFake) PublishClauseCompleted(_ context.Context, event domain.ClauseCompleted) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type observerFake struct {
	stages   []domain.Stage
	degraded []string
	finished []domain.Decision
}

func (f *observerFake) StageEntered(stage domain.Stage) { f.stages = append(f.stages, stage) }

func (f *observerFake) AgentFinished(agent string, degraded bool) {
	if degraded {
		f.degraded = append(f.degraded, agent)
	}
}

func (f *observerFake) ClauseFinished(decision domain.Decision) {
	f.finished = append(f.finished, decision)
}

// caseRepoFake stores JSON copies so callers never share state with it.
type caseRepoFake struct {
	mu        sync.Mutex
	items     map[string][]byte
	updateErr error
	getErr    error
}

func newCaseRepoFake() *caseRepoFake {
	return &caseRepoFake{items: make(map[string][]byte)}
}

func (f *caseRepoFake) Create(_ context.Context, c *domain.Case) error {
	return f.put(c)
}

func (f *caseRepoFake) Update(_ context.Context, c *domain.Case) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	_, ok := f.items[c.ID]
	f.mu.Unlock()
	if !ok {
		return domain.ErrCaseNotFound
	}
	return f.put(c)
}

func (f *caseRepoFake) put(c *domain.Case) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[c.ID] = data
	return nil
}

func (f *caseRepoFake) GetByID(_ context.Context, id string) (*domain.Case, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	data, ok := f.items[id]
	f.mu.Unlock()
	if !ok {
		return nil, domain.WrapError(domain.ErrCaseNotFound, "get case", fmt.Errorf("id %s", id))
	}
	var c domain.Case
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

type catalogFake struct {
	tasks []domain.ClauseTask
}

func (f *catalogFake) List(context.Context) ([]domain.ClauseTask, error) {
	return f.tasks, nil
}

func (f *catalogFake) Get(_ context.Context, ordinal int) (domain.ClauseTask, error) {
	for _, t := range f.tasks {
		if t.Ordinal == ordinal {
			return t, nil
		}
	}
	return domain.ClauseTask{}, domain.WrapError(domain.ErrClauseNotFound, "get clause", fmt.Errorf("ordinal %d", ordinal))
}

type extractorFake struct{}

func (extractorFake) Extract(_ context.Context, filename string, data []byte) (string, error) {
	if strings.HasSuffix(filename, ".docx") {
		return "", errors.New("unsupported file type")
	}
	return string(data), nil
}

type storageFake struct {
	keys []string
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	f.keys = append(f.keys, key)
	_, err := io.ReadAll(data)
	return err
}

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

type rendererFake struct{}

func (rendererFake) Render(c *domain.Case, format domain.ExportFormat) (domain.ExportDocument, error) {
	var b strings.Builder
	for _, pc := range c.ProcessedClauses {
		b.WriteString(pc.Label + ": " + pc.Text + "\n")
	}
	return domain.ExportDocument{Format: format, Body: []byte(b.String())}, nil
}
