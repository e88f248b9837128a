package localfs

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
)

func TestSaveCreatesNestedKeys(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	if err := s.Save(ctx, "case-1/exports/akte.txt", strings.NewReader("NOTARIËLE AKTE")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Save(ctx, "case-1/exports/akte.txt", strings.NewReader("tweede versie")); err != nil {
		t.Fatalf("Save() overwrite error = %v", err)
	}

	r, err := s.Open(ctx, "case-1/exports/akte.txt")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()
	data, _ := io.ReadAll(r)
	if string(data) != "tweede versie" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestRejectsEscapingKeys(t *testing.T) {
	s, _ := New(t.TempDir())
	for _, key := range []string{"../etc/passwd", "/abs/path", "", "a/../../b"} {
		if err := s.Save(context.Background(), key, strings.NewReader("x")); !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("key %q: expected invalid input, got %v", key, err)
		}
	}
}
