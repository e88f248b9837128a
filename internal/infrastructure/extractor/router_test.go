package extractor

import (
	"context"
	"strings"
	"testing"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
)

func TestRouterDispatchesByExtension(t *testing.T) {
	r := NewRouter()

	text, err := r.Extract(context.Background(), "Compromis.TXT", []byte("\ufeffKoopsom: 250.000 euro\r\n"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "Koopsom: 250.000 euro" {
		t.Fatalf("unexpected text %q", text)
	}

	_, err = r.Extract(context.Background(), "plan.docx", []byte("PK"))
	if !domain.IsKind(err, domain.ErrInvalidInput) || !strings.Contains(err.Error(), ".docx") {
		t.Fatalf("expected unsupported type error, got %v", err)
	}
}

func TestRouterRejectsBrokenInputs(t *testing.T) {
	r := NewRouter()

	if _, err := r.Extract(context.Background(), "scan.pdf", []byte("not a pdf")); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid pdf error, got %v", err)
	}
	if _, err := r.Extract(context.Background(), "notes.txt", []byte{0xff, 0xfe, 0x00}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid utf-8 error, got %v", err)
	}
}
