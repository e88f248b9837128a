package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/ports"
)

// CaseRepository keeps cases in process memory, for the CLI and tests. Cases
// are stored as JSON so callers never share state with the store.
type CaseRepository struct {
	mu    sync.RWMutex
	cases map[string][]byte
}

var _ ports.CaseRepository = (*CaseRepository)(nil)

func NewCaseRepository() *CaseRepository {
	return &CaseRepository{cases: make(map[string][]byte)}
}

func (r *CaseRepository) Create(_ context.Context, c *domain.Case) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal case: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.cases[c.ID]; exists {
		return domain.WrapError(domain.ErrInvalidInput, "create case", fmt.Errorf("case %s already exists", c.ID))
	}
	r.cases[c.ID] = doc
	return nil
}

func (r *CaseRepository) GetByID(_ context.Context, id string) (*domain.Case, error) {
	r.mu.RLock()
	doc, ok := r.cases[id]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.WrapError(domain.ErrCaseNotFound, "get case", fmt.Errorf("id %s", id))
	}
	var c domain.Case
	if err := json.Unmarshal(doc, &c); err != nil {
		return nil, fmt.Errorf("unmarshal case %s: %w", id, err)
	}
	return &c, nil
}

func (r *CaseRepository) Update(_ context.Context, c *domain.Case) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal case: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cases[c.ID]; !ok {
		return domain.WrapError(domain.ErrCaseNotFound, "update case", fmt.Errorf("id %s", c.ID))
	}
	r.cases[c.ID] = doc
	return nil
}
