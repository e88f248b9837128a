package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/ports"
	"github.com/kirillkom/notarial-clause-assistant/internal/infrastructure/llm"
)

const defaultModel = "gpt-4o-mini"

// Client invokes any OpenAI-compatible chat completion endpoint.
type Client struct {
	client *goopenai.Client
	model  string
}

var _ ports.ModelInvoker = (*Client)(nil)

func New(apiKey, baseURL, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if model == "" {
		model = defaultModel
	}
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{client: goopenai.NewClientWithConfig(cfg), model: model}, nil
}

func (c *Client) Invoke(ctx context.Context, instruction string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: instruction},
		},
	})
	if err != nil {
		return "", translateError(err)
	}
	if len(resp.Choices) == 0 {
		return "", llm.ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func translateError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return &llm.StatusError{
			Provider:   "openai",
			Operation:  "chat_completion",
			StatusCode: apiErr.HTTPStatusCode,
			Status:     fmt.Sprintf("%d %s", apiErr.HTTPStatusCode, http.StatusText(apiErr.HTTPStatusCode)),
			Body:       apiErr.Message,
		}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return &llm.StatusError{
			Provider:   "openai",
			Operation:  "chat_completion",
			StatusCode: reqErr.HTTPStatusCode,
			Status:     fmt.Sprintf("%d %s", reqErr.HTTPStatusCode, http.StatusText(reqErr.HTTPStatusCode)),
			Body:       string(reqErr.Body),
		}
	}
	return fmt.Errorf("openai chat completion: %w", err)
}
