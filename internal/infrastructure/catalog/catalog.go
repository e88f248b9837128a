// Package catalog loads the clause catalog an operator works through.
package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/ports"
)

//go:embed sample.yaml
var sampleCatalog []byte

type entry struct {
	Ordinal        int    `yaml:"ordinal" validate:"gte=1"`
	Label          string `yaml:"label" validate:"required"`
	ClauseType     string `yaml:"clause_type"`
	Instruction    string `yaml:"instruction" validate:"required"`
	SkipConditions string `yaml:"skip_conditions"`
}

type file struct {
	Clauses []entry `yaml:"clauses" validate:"required,min=1,dive"`
}

// Catalog is an immutable, ordinal-ordered set of clause tasks.
type Catalog struct {
	tasks     []domain.ClauseTask
	byOrdinal map[int]int
}

var _ ports.ClauseCatalog = (*Catalog)(nil)

// Load reads a catalog file; an empty path selects the embedded sample.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Parse(sampleCatalog)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	c, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func Parse(raw []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse catalog", err)
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(f); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "validate catalog", err)
	}

	c := &Catalog{
		tasks:     make([]domain.ClauseTask, 0, len(f.Clauses)),
		byOrdinal: make(map[int]int, len(f.Clauses)),
	}
	labels := make(map[string]int, len(f.Clauses))
	for _, e := range f.Clauses {
		if _, dup := c.byOrdinal[e.Ordinal]; dup {
			return nil, domain.WrapError(domain.ErrInvalidInput, "validate catalog", fmt.Errorf("duplicate ordinal %d", e.Ordinal))
		}
		label := strings.TrimSpace(e.Label)
		if prev, dup := labels[label]; dup {
			return nil, domain.WrapError(domain.ErrInvalidInput, "validate catalog", fmt.Errorf("label %q used by clauses %d and %d", label, prev, e.Ordinal))
		}
		labels[label] = e.Ordinal
		c.byOrdinal[e.Ordinal] = 0
		c.tasks = append(c.tasks, domain.ClauseTask{
			Ordinal:        e.Ordinal,
			Label:          label,
			ClauseType:     strings.TrimSpace(e.ClauseType),
			Instruction:    strings.TrimRight(e.Instruction, "\n"),
			SkipConditions: strings.TrimSpace(e.SkipConditions),
		})
	}
	sort.Slice(c.tasks, func(i, j int) bool { return c.tasks[i].Ordinal < c.tasks[j].Ordinal })
	for i, t := range c.tasks {
		c.byOrdinal[t.Ordinal] = i
	}
	return c, nil
}

func (c *Catalog) List(context.Context) ([]domain.ClauseTask, error) {
	return append([]domain.ClauseTask(nil), c.tasks...), nil
}

func (c *Catalog) Get(_ context.Context, ordinal int) (domain.ClauseTask, error) {
	i, ok := c.byOrdinal[ordinal]
	if !ok {
		return domain.ClauseTask{}, domain.WrapError(domain.ErrClauseNotFound, "get clause", fmt.Errorf("ordinal %d", ordinal))
	}
	return c.tasks[i], nil
}
