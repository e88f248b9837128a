package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/ports"
	"github.com/kirillkom/notarial-clause-assistant/internal/infrastructure/llm"
)

const defaultModel = "gemini-2.5-flash"

// Client invokes a Gemini model through the Google GenAI SDK.
type Client struct {
	client *genai.Client
	model  string
}

var _ ports.ModelInvoker = (*Client)(nil)

func New(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = defaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

func (c *Client) Invoke(ctx context.Context, instruction string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(instruction), nil)
	if err != nil {
		return "", translateError(err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

// translateError maps SDK failures onto the shared status error so the
// breaker classifies them like any other provider.
func translateError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return statusError(apiErr, err)
	}
	var apiPtr *genai.APIError
	if errors.As(err, &apiPtr) && apiPtr != nil {
		return statusError(*apiPtr, err)
	}
	return fmt.Errorf("gemini generate: %w", err)
}

func statusError(apiErr genai.APIError, cause error) error {
	status := apiErr.Status
	if status == "" {
		status = http.StatusText(apiErr.Code)
	}
	return fmt.Errorf("%w (%v)", &llm.StatusError{
		Provider:   "gemini",
		Operation:  "generate",
		StatusCode: apiErr.Code,
		Status:     fmt.Sprintf("%d %s", apiErr.Code, status),
		Body:       apiErr.Message,
	}, cause)
}
