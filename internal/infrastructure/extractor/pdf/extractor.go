package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/ports"
)

// Extractor pulls the text layer out of PDF documents. Scanned PDFs without
// a text layer yield an error.
type Extractor struct{}

var _ ports.TextExtractor = Extractor{}

func NewExtractor() Extractor {
	return Extractor{}
}

func (Extractor) Extract(_ context.Context, filename string, data []byte) (text string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = domain.WrapError(domain.ErrInvalidInput, "extract pdf", fmt.Errorf("%s: malformed pdf: %v", filename, r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract pdf", fmt.Errorf("%s: %w", filename, err))
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract pdf", fmt.Errorf("%s: %w", filename, err))
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text %s: %w", filename, err)
	}

	text = strings.TrimSpace(string(raw))
	if text == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract pdf", errors.New(filename+": no text layer"))
	}
	return text, nil
}
