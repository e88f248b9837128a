// Package knowledge loads the domain knowledge the clause agents reason with.
package knowledge

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
)

//go:embed default.yaml
var defaultKnowledge []byte

// Default returns the embedded knowledge base.
func Default() (domain.Knowledge, error) {
	return Parse(defaultKnowledge)
}

// Load reads a knowledge file; an empty path selects the embedded default.
func Load(path string) (domain.Knowledge, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Knowledge{}, fmt.Errorf("read knowledge file: %w", err)
	}
	k, err := Parse(raw)
	if err != nil {
		return domain.Knowledge{}, fmt.Errorf("%s: %w", path, err)
	}
	return k, nil
}

func Parse(raw []byte) (domain.Knowledge, error) {
	var k domain.Knowledge
	if err := yaml.Unmarshal(raw, &k); err != nil {
		return domain.Knowledge{}, domain.WrapError(domain.ErrInvalidInput, "parse knowledge", err)
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(k); err != nil {
		return domain.Knowledge{}, domain.WrapError(domain.ErrInvalidInput, "validate knowledge", err)
	}
	if err := checkOrdinals(k); err != nil {
		return domain.Knowledge{}, domain.WrapError(domain.ErrInvalidInput, "validate knowledge", err)
	}
	for i, m := range k.NegativeMarkers {
		k.NegativeMarkers[i] = strings.ToLower(strings.TrimSpace(m))
	}
	if k.OtherOption == "" {
		k.OtherOption = "Anders"
	}
	if k.MaxOptions == 0 {
		k.MaxOptions = 4
	}
	return k, nil
}

// checkOrdinals rejects rules for always-mandatory clauses and ordinals that
// appear under more than one rule.
func checkOrdinals(k domain.Knowledge) error {
	seen := make(map[int]string)
	var errs []error
	for _, cat := range k.Categories {
		for _, rule := range cat.Rules {
			for _, n := range rule.Ordinals {
				if domain.IsAlwaysMandatory(n) {
					errs = append(errs, fmt.Errorf("clause %d is always mandatory and cannot carry a rule", n))
				}
				if prev, dup := seen[n]; dup {
					errs = append(errs, fmt.Errorf("clause %d listed under both %q and %q", n, prev, rule.Title))
				}
				seen[n] = rule.Title
			}
		}
	}
	return errors.Join(errs...)
}
