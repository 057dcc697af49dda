package rest

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bryanwahyu/truthlens/internal/domain/assessment"
)

type cohereRequest struct {
	Message   string `json:"message"`
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
}

type cohereResponse struct {
	Message *struct {
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

// Cohere completes calls against the Cohere chat API.
type Cohere struct{ *Client }

func (c Cohere) Complete(ctx context.Context, call assessment.Call) (assessment.Completion, error) {
	body, err := c.post(ctx, call.Provider.Endpoint, call.APIKey, nil, cohereRequest{
		Message:   call.Prompt,
		Model:     call.Model,
		MaxTokens: call.MaxTokens,
	})
	if err != nil {
		return assessment.Completion{}, err
	}

	var resp cohereResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return assessment.Completion{}, malformed("cohere: %v", err)
	}
	if resp.Message == nil || len(resp.Message.Content) == 0 {
		return assessment.Completion{}, malformed("cohere: message.content missing")
	}
	text, err := cohereText(resp.Message.Content)
	if err != nil {
		return assessment.Completion{}, err
	}
	return assessment.Completion{Text: text, Raw: text}, nil
}

// cohereText accepts both a plain string and the v2 array of content parts.
func cohereText(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err != nil {
		return "", malformed("cohere: message.content: %v", err)
	}
	if len(parts) == 0 {
		return "", malformed("cohere: message.content is empty")
	}
	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		if p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.TrimSpace(strings.Join(texts, "")), nil
}
