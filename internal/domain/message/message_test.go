package message

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/truthlens/internal/domain/assessment"
)

func TestReplyCarriesEveryVariant(t *testing.T) {
	cases := []assessment.Result{
		assessment.Scored(assessment.KindTruthScore, 0, "0.00"),
		assessment.Texted(assessment.KindSummary, "short", "short"),
		assessment.Structured(assessment.KindSentiment, json.RawMessage(`{"sentiment":"neutral","confidence":0.4}`), "raw"),
		assessment.Failed(assessment.KindTruthScore, assessment.CategoryHTTP, "API request failed: HTTP error! Status: 500"),
	}
	for _, in := range cases {
		b, err := json.Marshal(NewReply(in))
		require.NoError(t, err)
		var rep Reply
		require.NoError(t, json.Unmarshal(b, &rep))

		assert.Equal(t, in, rep.ToResult(in.Kind))
	}
}

func TestToResult_Empty(t *testing.T) {
	res := Reply{}.ToResult(assessment.KindTruthScore)
	require.Equal(t, assessment.ResultFailure, res.Variant)
	assert.Equal(t, assessment.CategoryMalformedResponse, res.Failure.Category)
	assert.Equal(t, "No score or error provided.", res.Failure.Message)
}

func TestToResult_UncategorisedError(t *testing.T) {
	res := Reply{Error: "boom"}.ToResult(assessment.KindSummary)
	assert.Equal(t, assessment.CategoryNetwork, res.Failure.Category)
}

func TestRequestAssessment(t *testing.T) {
	cases := map[string]struct {
		in   Request
		kind assessment.Kind
		text string
	}{
		"empty kind":   {Request{Text: "a", APIProvider: "groq"}, assessment.KindTruthScore, "a"},
		"known kind":   {Request{Text: "a", PromptType: "summary"}, assessment.KindSummary, "a"},
		"unknown kind": {Request{Text: "a", PromptType: "limerick"}, assessment.Kind("limerick"), "a"},
		"nul bytes":    {Request{Text: " a\x00b\n"}, assessment.KindTruthScore, " ab\n"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := tc.in.Assessment()
			assert.Equal(t, tc.kind, got.Kind)
			assert.Equal(t, tc.text, got.Text)
			assert.Equal(t, tc.in.APIProvider, got.Provider)
		})
	}
}
