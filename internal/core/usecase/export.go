package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/ports"
)

var exportFormats = []domain.ExportFormat{domain.ExportText, domain.ExportJSON, domain.ExportHTML}

// CaseExporter keeps a rendered snapshot of every case in object storage.
// Snapshots are overwritten, so redelivered events are harmless.
type CaseExporter struct {
	repo     ports.CaseRepository
	renderer ports.DocumentRenderer
	storage  ports.ObjectStorage
}

func NewCaseExporter(repo ports.CaseRepository, renderer ports.DocumentRenderer, storage ports.ObjectStorage) *CaseExporter {
	return &CaseExporter{repo: repo, renderer: renderer, storage: storage}
}

// ExportKey is the storage key of the latest snapshot of a case in one format.
func ExportKey(caseID string, format domain.ExportFormat) string {
	return fmt.Sprintf("%s/exports/akte.%s", caseID, format.Extension())
}

func (e *CaseExporter) HandleClauseCompleted(ctx context.Context, event domain.ClauseCompleted) error {
	if event.Decision == domain.DecisionSkip {
		slog.Debug("export_skipped", "case_id", event.CaseID, "ordinal", event.Ordinal)
		return nil
	}
	c, err := e.repo.GetByID(ctx, event.CaseID)
	if err != nil {
		if domain.IsKind(err, domain.ErrCaseNotFound) {
			slog.Warn("export_case_missing", "case_id", event.CaseID, "event_id", event.EventID)
			return nil
		}
		return fmt.Errorf("load case: %w", err)
	}

	var errs []error
	for _, format := range exportFormats {
		doc, err := e.renderer.Render(c, format)
		if err != nil {
			errs = append(errs, fmt.Errorf("render %s: %w", format, err))
			continue
		}
		if err := e.storage.Save(ctx, ExportKey(c.ID, format), bytes.NewReader(doc.Body)); err != nil {
			errs = append(errs, fmt.Errorf("store %s: %w", format, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	slog.Info("case_exported",
		"case_id", c.ID,
		"ordinal", event.Ordinal,
		"clauses", len(c.ProcessedClauses),
	)
	return nil
}
