package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/truthlens/internal/domain/assessment"
)

const chatSuffix = "/chat/completions"

// Client completes calls against any OpenAI-compatible chat endpoint
// (OpenAI, Groq, OpenRouter, Together AI, xAI).
type Client struct {
	HTTPClient *http.Client
}

func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{HTTPClient: httpClient}
}

// BaseURL turns a configured chat completions endpoint into the base URL
// go-openai expects.
func BaseURL(endpoint string) string {
	return strings.TrimSuffix(strings.TrimRight(endpoint, "/"), chatSuffix)
}

func (c *Client) Complete(ctx context.Context, call assessment.Call) (assessment.Completion, error) {
	cfg := openai.DefaultConfig(call.APIKey)
	cfg.BaseURL = BaseURL(call.Provider.Endpoint)
	cfg.HTTPClient = c.HTTPClient
	cli := openai.NewClientWithConfig(cfg)

	req := openai.ChatCompletionRequest{
		Model: call.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: call.Prompt},
		},
	}
	// reasoning models reject max_tokens
	if isReasoningModel(call.Model) {
		req.MaxCompletionTokens = call.MaxTokens
	} else {
		req.MaxTokens = call.MaxTokens
	}

	resp, err := cli.CreateChatCompletion(ctx, req)
	if err != nil {
		return assessment.Completion{}, mapError(err)
	}
	if len(resp.Choices) == 0 {
		return assessment.Completion{}, fmt.Errorf("%w: no choices returned", assessment.ErrMalformedResponse)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	return assessment.Completion{Text: content, Raw: content}, nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

func mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &assessment.HTTPStatusError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &assessment.HTTPStatusError{StatusCode: reqErr.HTTPStatusCode}
	}
	return fmt.Errorf("failed to create chat completion: %w", err)
}
