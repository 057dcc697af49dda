package rest

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bryanwahyu/truthlens/internal/domain/assessment"
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Google completes calls against the Gemini generateContent API. The key
// travels as a query parameter, so no Authorization header is sent.
type Google struct{ *Client }

func (g Google) Complete(ctx context.Context, call assessment.Call) (assessment.Completion, error) {
	endpoint := strings.TrimRight(call.Provider.Endpoint, "/") + "/" + call.Model + ":generateContent"
	body, err := g.post(ctx, endpoint, "", map[string]string{"key": call.APIKey}, geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: call.Prompt}}}},
	})
	if err != nil {
		return assessment.Completion{}, err
	}

	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return assessment.Completion{}, malformed("google: %v", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return assessment.Completion{}, malformed("google: candidates[0].content.parts[0] missing")
	}
	text := strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
	return assessment.Completion{Text: text, Raw: text}, nil
}
