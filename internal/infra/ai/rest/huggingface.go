package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/bryanwahyu/truthlens/internal/domain/assessment"
)

type hfGenerateParams struct {
	MaxNewTokens   int  `json:"max_new_tokens"`
	ReturnFullText bool `json:"return_full_text"`
}

type hfGenerateRequest struct {
	Inputs     string           `json:"inputs"`
	Parameters hfGenerateParams `json:"parameters"`
}

type hfClassifyRequest struct {
	Inputs     string `json:"inputs"`
	Parameters struct {
		CandidateLabels []string `json:"candidate_labels"`
	} `json:"parameters"`
}

type hfClassification struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

const truthLabel = "true"

func modelURL(endpoint, model string) string {
	return strings.TrimRight(endpoint, "/") + "/" + model
}

// HFLanguage completes calls against a Hugging Face text-generation model.
type HFLanguage struct{ *Client }

func (h HFLanguage) Complete(ctx context.Context, call assessment.Call) (assessment.Completion, error) {
	body, err := h.post(ctx, modelURL(call.Provider.Endpoint, call.Model), call.APIKey, nil, hfGenerateRequest{
		Inputs:     call.Prompt,
		Parameters: hfGenerateParams{MaxNewTokens: call.MaxTokens, ReturnFullText: false},
	})
	if err != nil {
		return assessment.Completion{}, err
	}

	var out []struct {
		GeneratedText *string `json:"generated_text"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return assessment.Completion{}, malformed("huggingface: %v", err)
	}
	if len(out) == 0 || out[0].GeneratedText == nil {
		return assessment.Completion{}, malformed("huggingface: [0].generated_text missing")
	}
	text := strings.TrimSpace(*out[0].GeneratedText)
	return assessment.Completion{Text: text, Raw: text}, nil
}

// HFZeroShot scores the raw text with a zero-shot classifier over the labels
// "true" and "false". Non-scoring kinds fall back to text generation.
type HFZeroShot struct{ *Client }

func (h HFZeroShot) Complete(ctx context.Context, call assessment.Call) (assessment.Completion, error) {
	if !call.Kind.Scoring() {
		return HFLanguage(h).Complete(ctx, call)
	}

	req := hfClassifyRequest{Inputs: call.Text}
	req.Parameters.CandidateLabels = []string{truthLabel, "false"}
	body, err := h.post(ctx, modelURL(call.Provider.Endpoint, call.Model), call.APIKey, nil, req)
	if err != nil {
		return assessment.Completion{}, err
	}

	cls, err := decodeClassification(body)
	if err != nil {
		return assessment.Completion{}, err
	}
	for i, label := range cls.Labels {
		if label == truthLabel && i < len(cls.Scores) {
			score := cls.Scores[i]
			return assessment.Completion{Score: &score, Raw: string(bytes.TrimSpace(body))}, nil
		}
	}
	return assessment.Completion{}, malformed("huggingface: label %q not in response", truthLabel)
}

// decodeClassification accepts the single-object shape and the
// one-element-array shape.
func decodeClassification(body []byte) (hfClassification, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []hfClassification
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return hfClassification{}, malformed("huggingface: %v", err)
		}
		if len(list) == 0 {
			return hfClassification{}, malformed("huggingface: empty classification")
		}
		return list[0], nil
	}
	var one hfClassification
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return hfClassification{}, malformed("huggingface: %v", err)
	}
	return one, nil
}
