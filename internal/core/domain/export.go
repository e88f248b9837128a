package domain

import (
	"fmt"
	"strings"
	"time"
)

type ExportFormat string

const (
	ExportText ExportFormat = "text"
	ExportJSON ExportFormat = "json"
	ExportHTML ExportFormat = "html"
)

func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ExportText, "txt":
		return ExportText, nil
	case ExportJSON:
		return ExportJSON, nil
	case ExportHTML:
		return ExportHTML, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse export format", fmt.Errorf("unsupported format %q", raw))
	}
}

func (f ExportFormat) Extension() string {
	if f == ExportText {
		return "txt"
	}
	return string(f)
}

// ExportDocument is one rendering of a case's processed clauses.
type ExportDocument struct {
	Format      ExportFormat
	ContentType string
	Filename    string
	Body        []byte
}

// Upload is one operator-supplied source file.
type Upload struct {
	Filename string
	Data     []byte
}

// ClauseCompleted is emitted when a clause run reaches its terminal stage.
type ClauseCompleted struct {
	EventID    string    `json:"event_id"`
	CaseID     string    `json:"case_id"`
	Ordinal    int       `json:"ordinal"`
	Label      string    `json:"label"`
	Decision   Decision  `json:"decision"`
	OccurredAt time.Time `json:"occurred_at"`
}
