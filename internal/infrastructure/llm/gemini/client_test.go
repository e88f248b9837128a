package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/genai"

	"github.com/kirillkom/notarial-clause-assistant/internal/infrastructure/llm"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(context.Background(), " ", ""); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestTranslateErrorMapsAPIStatus(t *testing.T) {
	err := translateError(fmt.Errorf("call: %w", genai.APIError{Code: http.StatusTooManyRequests, Message: "quota exceeded"}))

	var statusErr *llm.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected status error, got %v", err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests || statusErr.Body != "quota exceeded" {
		t.Fatalf("unexpected status error %+v", statusErr)
	}
	if !llm.Classify(err).Retryable {
		t.Fatalf("quota errors must be retryable")
	}
}

func TestTranslateErrorKeepsTransportFailures(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := translateError(cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	var statusErr *llm.StatusError
	if errors.As(err, &statusErr) {
		t.Fatalf("transport failures carry no status")
	}
}
