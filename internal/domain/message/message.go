package message

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/bryanwahyu/truthlens/internal/domain/assessment"
)

// Actions accepted on the dispatcher message channel.
const (
	ActionAssess   = "assessTruthfulness"
	ActionResearch = "performResearch"
)

// TypeToggleConsole is the agent-side toggle message type.
const TypeToggleConsole = "toggleConsole"

// Request is the inter-component request envelope.
type Request struct {
	Action      string `json:"action" validate:"required,oneof=assessTruthfulness performResearch"`
	Text        string `json:"text" validate:"required,max=20000"`
	APIProvider string `json:"apiProvider"`
	Model       string `json:"model"`
	PromptType  string `json:"promptType,omitempty"`
	UserPrompt  string `json:"userPrompt,omitempty"`
}

// Normalized returns r with NUL bytes removed from the text. The text is
// otherwise passed on as the user selected it.
func (r Request) Normalized() Request {
	r.Text = strings.ReplaceAll(r.Text, "\x00", "")
	return r
}

// Assessment converts an assess message into a dispatcher request. An empty
// promptType means truthscore; an unknown one is passed through for the
// dispatcher to tag as invalid_kind.
func (r Request) Assessment() assessment.Request {
	r = r.Normalized()
	kind, err := assessment.ParseKind(r.PromptType)
	if err != nil {
		kind = assessment.Kind(r.PromptType)
	}
	return assessment.Request{
		Text:       r.Text,
		Provider:   r.APIProvider,
		Model:      r.Model,
		Kind:       kind,
		UserPrompt: r.UserPrompt,
	}
}

// Reply is the asynchronous answer to Request. Score is a pointer so that a
// legitimate 0.00 survives encoding.
type Reply struct {
	Score         *float64        `json:"score,omitempty"`
	Result        json.RawMessage `json:"result,omitempty"`
	FullResponse  string          `json:"fullResponse,omitempty"`
	Error         string          `json:"error,omitempty"`
	ErrorCategory string          `json:"errorCategory,omitempty"`
}

// Toggle is the console toggle message.
type Toggle struct {
	Type string `json:"type"`
}

// ToggleReply answers Toggle.
type ToggleReply struct {
	ConsoleVisible bool `json:"consoleVisible"`
}

// NewReply encodes a Result for the wire.
func NewReply(r assessment.Result) Reply {
	switch r.Variant {
	case assessment.ResultScore:
		score := r.Score
		return Reply{Score: &score, FullResponse: r.Raw}
	case assessment.ResultText:
		b, _ := json.Marshal(r.Text)
		return Reply{Result: b, FullResponse: r.Raw}
	case assessment.ResultStructured:
		return Reply{Result: r.Value, FullResponse: r.Raw}
	default:
		rep := Reply{Error: "unknown failure"}
		if r.Failure != nil {
			rep.Error = r.Failure.Message
			rep.ErrorCategory = string(r.Failure.Category)
		}
		return rep
	}
}

// ToResult decodes a wire reply back into a Result for the given kind.
func (rep Reply) ToResult(kind assessment.Kind) assessment.Result {
	switch {
	case rep.Score != nil:
		return assessment.Scored(kind, *rep.Score, rep.FullResponse)
	case len(rep.Result) > 0:
		trimmed := bytes.TrimSpace(rep.Result)
		if len(trimmed) > 0 && trimmed[0] == '"' {
			var s string
			if err := json.Unmarshal(trimmed, &s); err == nil {
				return assessment.Texted(kind, s, rep.FullResponse)
			}
		}
		return assessment.Structured(kind, trimmed, rep.FullResponse)
	case rep.Error != "":
		cat := assessment.Category(rep.ErrorCategory)
		if cat == "" {
			cat = assessment.CategoryNetwork
		}
		return assessment.Failed(kind, cat, rep.Error)
	default:
		return assessment.Failed(kind, assessment.CategoryMalformedResponse, "No score or error provided.")
	}
}

// Provider is one entry of the provider catalog as offered to clients.
type Provider struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Models []string `json:"models"`
}
