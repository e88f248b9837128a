package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/ports"
)

// Client talks to a local Ollama server.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

var _ ports.ModelInvoker = (*Client)(nil)

func New(baseURL, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Invoke sends one non-streaming generate request and returns the answer text.
func (c *Client) Invoke(ctx context.Context, instruction string) (string, error) {
	reqBody := map[string]any{
		"model":  c.model,
		"prompt": instruction,
		"stream": false,
	}
	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}
