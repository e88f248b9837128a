package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/ports"
	"github.com/kirillkom/notarial-clause-assistant/internal/infrastructure/extractor/pdf"
	"github.com/kirillkom/notarial-clause-assistant/internal/infrastructure/extractor/plaintext"
)

// Router picks an extractor by file extension.
type Router struct {
	byExt map[string]ports.TextExtractor
}

var _ ports.TextExtractor = (*Router)(nil)

// NewRouter returns a router for .pdf, .txt and .md sources.
func NewRouter() *Router {
	text := plaintext.NewExtractor()
	return &Router{byExt: map[string]ports.TextExtractor{
		".pdf": pdf.NewExtractor(),
		".txt": text,
		".md":  text,
	}}
}

func (r *Router) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	extractor, ok := r.byExt[ext]
	if !ok {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", fmt.Errorf("unsupported file type %q", ext))
	}
	return extractor.Extract(ctx, filename, data)
}
