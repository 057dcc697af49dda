package assess_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/truthlens/internal/application/assess"
	"github.com/bryanwahyu/truthlens/internal/domain/assessment"
	"github.com/bryanwahyu/truthlens/internal/domain/usage"
	"github.com/bryanwahyu/truthlens/internal/infra/ai/registry"
)

const testKey = "test-key"

// fakeAPI answers every provider route with a fixed status and body and
// records what it was sent.
type fakeAPI struct {
	calls atomic.Int32

	mu       sync.Mutex
	status   int
	body     string
	path     string
	query    string
	auth     string
	received map[string]any
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	raw, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.path = r.URL.Path
	f.query = r.URL.RawQuery
	f.auth = r.Header.Get("Authorization")
	f.received = nil
	_ = json.Unmarshal(raw, &f.received)
	status, body := f.status, f.body
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (f *fakeAPI) respond(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status, f.body = status, body
}

func catalog(base string) []assessment.Provider {
	return []assessment.Provider{
		{ID: "groq", Name: "Groq", Variant: assessment.VariantChat, CredentialKey: "GROQ",
			Endpoint: base + "/groq/openai/v1/chat/completions", Models: []string{"llama-3.3-70b-versatile"}},
		{ID: "cohere", Name: "Cohere", Variant: assessment.VariantCohere, CredentialKey: "COHERE",
			Endpoint: base + "/cohere/v2/chat", Models: []string{"command-r-plus"}},
		{ID: "google", Name: "Google Gemini", Variant: assessment.VariantGoogle, CredentialKey: "GOOGLE",
			Endpoint: base + "/google/v1beta/models/", Models: []string{"gemini-1.5-pro"}},
		{ID: "hf-lang", Name: "Hugging Face Language", Variant: assessment.VariantHFLanguage, CredentialKey: "HUGGINGFACE",
			Endpoint: base + "/hf/models/", Models: []string{"google/gemma-7b"}},
		{ID: "hf-zs", Name: "Hugging Face Zero-Shot", Variant: assessment.VariantHFZeroShot, CredentialKey: "HUGGINGFACE",
			Endpoint: base + "/hf/models/", Models: []string{"facebook/bart-large-mnli"}},
	}
}

type memLedger struct {
	mu      sync.Mutex
	records []usage.Record
}

func (m *memLedger) Save(_ context.Context, r *usage.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *r)
	return nil
}

func (m *memLedger) Summary(context.Context, int) ([]usage.ProviderSummary, error) {
	return nil, nil
}

type fixture struct {
	api    *fakeAPI
	srv    *httptest.Server
	svc    *assess.Service
	ledger *memLedger
}

func newFixture(t *testing.T, creds map[string]string) *fixture {
	t.Helper()
	api := &fakeAPI{status: http.StatusOK, body: `{}`}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	if creds == nil {
		creds = map[string]string{"GROQ": testKey, "COHERE": testKey, "GOOGLE": testKey, "HUGGINGFACE": testKey}
	}
	logger, _ := logtest.NewNullLogger()
	ledger := &memLedger{}
	svc := assess.NewService(assess.Options{
		Catalog:     catalog(srv.URL),
		Credentials: creds,
		Completers:  registry.Default(srv.Client(), 5*time.Second),
		Ledger:      ledger,
		Logger:      logger,
		Timeout:     5 * time.Second,
	})
	return &fixture{api: api, srv: srv, svc: svc, ledger: ledger}
}

func chatBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"choices": []any{map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": content}}},
	})
	return string(b)
}

func request(provider string, kind assessment.Kind) assessment.Request {
	return assessment.Request{Text: "The sky is blue.", Provider: provider, Model: "m", Kind: kind}
}

func TestAssess_GroqTruthScore(t *testing.T) {
	f := newFixture(t, nil)
	f.api.respond(http.StatusOK, chatBody("0.87"))

	res := f.svc.Assess(context.Background(), request("groq", assessment.KindTruthScore))

	require.Equal(t, assessment.ResultScore, res.Variant, "failure: %+v", res.Failure)
	assert.InDelta(t, 0.87, res.Score, 1e-9)
	assert.Equal(t, "87.00%", res.Display())
	assert.Equal(t, "0.87", res.Raw)
	assert.EqualValues(t, 1, f.api.calls.Load())

	assert.Equal(t, "/groq/openai/v1/chat/completions", f.api.path)
	assert.Equal(t, "Bearer "+testKey, f.api.auth)
	assert.Equal(t, "m", f.api.received["model"])
	assert.EqualValues(t, 10, f.api.received["max_tokens"])
	msgs, ok := f.api.received["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].(map[string]any)["role"])
	assert.Contains(t, msgs[0].(map[string]any)["content"], `Statement: "The sky is blue."`)
}

func TestAssess_ScoreIsNeverClamped(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"not a number", "abc"},
		{"above one", "1.5"},
		{"negative", "-0.2"},
		{"empty", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.api.respond(http.StatusOK, chatBody(tc.content))

			res := f.svc.Assess(context.Background(), request("groq", assessment.KindTruthScore))

			require.Equal(t, assessment.ResultFailure, res.Variant)
			assert.Equal(t, assessment.CategoryMalformedScore, res.Failure.Category)
			assert.Contains(t, res.Failure.Message, "API request failed: ")
		})
	}
}

func TestAssess_ScoreWithTrailingProse(t *testing.T) {
	f := newFixture(t, nil)
	f.api.respond(http.StatusOK, chatBody("0.42 - mostly false"))

	res := f.svc.Assess(context.Background(), request("groq", assessment.KindTruthScore))

	require.True(t, res.OK())
	assert.InDelta(t, 0.42, res.Score, 1e-9)
}

func TestAssess_CredentialMissingMakesNoCall(t *testing.T) {
	for name, key := range map[string]string{
		"placeholder": assessment.Placeholder("GROQ"),
		"empty":       "",
		"blank":       "   ",
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, map[string]string{"GROQ": key})

			res := f.svc.Assess(context.Background(), request("groq", assessment.KindTruthScore))

			require.Equal(t, assessment.ResultFailure, res.Variant)
			assert.Equal(t, assessment.CategoryCredentialMissing, res.Failure.Category)
			assert.Equal(t, "Groq API key not set.", res.Failure.Message)
			assert.Zero(t, f.api.calls.Load())
		})
	}
}

func TestAssess_UnsupportedProviderMakesNoCall(t *testing.T) {
	f := newFixture(t, nil)

	res := f.svc.Assess(context.Background(), request("mistral", assessment.KindTruthScore))

	require.Equal(t, assessment.ResultFailure, res.Variant)
	assert.Equal(t, assessment.CategoryUnsupportedProvider, res.Failure.Category)
	assert.Zero(t, f.api.calls.Load())
}

func TestAssess_InvalidKindMakesNoCall(t *testing.T) {
	f := newFixture(t, nil)

	res := f.svc.Assess(context.Background(), request("groq", assessment.Kind("poetry")))

	require.Equal(t, assessment.ResultFailure, res.Variant)
	assert.Equal(t, assessment.CategoryInvalidKind, res.Failure.Category)
	assert.Equal(t, "Invalid prompt type", res.Failure.Message)
	assert.Zero(t, f.api.calls.Load())
}

func TestAssess_ProviderShapes(t *testing.T) {
	cases := []struct {
		name     string
		provider string
		kind     assessment.Kind
		body     string
		wantPath string
		check    func(t *testing.T, res assessment.Result, api *fakeAPI)
	}{
		{
			name:     "cohere string content",
			provider: "cohere",
			kind:     assessment.KindSummary,
			body:     `{"message":{"content":"  A short summary. "}}`,
			wantPath: "/cohere/v2/chat",
			check: func(t *testing.T, res assessment.Result, api *fakeAPI) {
				assert.Equal(t, "A short summary.", res.Text)
				assert.Equal(t, "Bearer "+testKey, api.auth)
				assert.Contains(t, api.received["message"], "Summarize")
				assert.EqualValues(t, 200, api.received["max_tokens"])
			},
		},
		{
			name:     "cohere content parts",
			provider: "cohere",
			kind:     assessment.KindTruthScore,
			body:     `{"message":{"content":[{"type":"text","text":"0.3"},{"type":"text","text":"1"}]}}`,
			wantPath: "/cohere/v2/chat",
			check: func(t *testing.T, res assessment.Result, _ *fakeAPI) {
				assert.Equal(t, assessment.ResultScore, res.Variant)
				assert.InDelta(t, 0.31, res.Score, 1e-9)
			},
		},
		{
			name:     "google",
			provider: "google",
			kind:     assessment.KindTruthScore,
			body:     `{"candidates":[{"content":{"parts":[{"text":"0.65\n"}]}}]}`,
			wantPath: "/google/v1beta/models/m:generateContent",
			check: func(t *testing.T, res assessment.Result, api *fakeAPI) {
				assert.InDelta(t, 0.65, res.Score, 1e-9)
				assert.Equal(t, "key="+testKey, api.query)
				assert.Empty(t, api.auth)
				contents, ok := api.received["contents"].([]any)
				require.True(t, ok)
				assert.Len(t, contents, 1)
			},
		},
		{
			name:     "huggingface language",
			provider: "hf-lang",
			kind:     assessment.KindContradictions,
			body:     `[{"generated_text":"No contradictions found"}]`,
			wantPath: "/hf/models/m",
			check: func(t *testing.T, res assessment.Result, api *fakeAPI) {
				assert.Equal(t, "No contradictions found", res.Text)
				params, ok := api.received["parameters"].(map[string]any)
				require.True(t, ok)
				assert.EqualValues(t, 200, params["max_new_tokens"])
				assert.Equal(t, false, params["return_full_text"])
			},
		},
		{
			name:     "huggingface zero-shot",
			provider: "hf-zs",
			kind:     assessment.KindTruthScore,
			body:     `[{"sequence":"The sky is blue.","labels":["false","true"],"scores":[0.2,0.8]}]`,
			wantPath: "/hf/models/m",
			check: func(t *testing.T, res assessment.Result, api *fakeAPI) {
				assert.InDelta(t, 0.8, res.Score, 1e-9)
				assert.Equal(t, "The sky is blue.", api.received["inputs"])
				params, ok := api.received["parameters"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, []any{"true", "false"}, params["candidate_labels"])
			},
		},
		{
			name:     "huggingface zero-shot object shape",
			provider: "hf-zs",
			kind:     assessment.KindTruthScore,
			body:     `{"labels":["true","false"],"scores":[0.55,0.45]}`,
			wantPath: "/hf/models/m",
			check: func(t *testing.T, res assessment.Result, _ *fakeAPI) {
				assert.InDelta(t, 0.55, res.Score, 1e-9)
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.api.respond(http.StatusOK, tc.body)

			res := f.svc.Assess(context.Background(), request(tc.provider, tc.kind))

			require.True(t, res.OK(), "failure: %+v", res.Failure)
			assert.EqualValues(t, 1, f.api.calls.Load())
			assert.Equal(t, tc.wantPath, f.api.path)
			tc.check(t, res, f.api)
		})
	}
}

func TestAssess_MissingResponsePath(t *testing.T) {
	cases := map[string]struct {
		provider string
		body     string
	}{
		"chat without choices":     {"groq", `{"choices":[]}`},
		"cohere without message":   {"cohere", `{"text":"0.5"}`},
		"google without parts":     {"google", `{"candidates":[]}`},
		"hf without generated":     {"hf-lang", `[{}]`},
		"zero-shot without labels": {"hf-zs", `[{"labels":["yes"],"scores":[1]}]`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.api.respond(http.StatusOK, tc.body)

			res := f.svc.Assess(context.Background(), request(tc.provider, assessment.KindTruthScore))

			require.Equal(t, assessment.ResultFailure, res.Variant)
			assert.Equal(t, assessment.CategoryMalformedResponse, res.Failure.Category)
		})
	}
}

func TestAssess_HTTPFailure(t *testing.T) {
	for _, provider := range []string{"groq", "cohere", "google", "hf-lang"} {
		t.Run(provider, func(t *testing.T) {
			f := newFixture(t, nil)
			f.api.respond(http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"rate_limit"}}`)

			res := f.svc.Assess(context.Background(), request(provider, assessment.KindSummary))

			require.Equal(t, assessment.ResultFailure, res.Variant)
			assert.Equal(t, assessment.CategoryHTTP, res.Failure.Category)
			assert.Equal(t, "API request failed: HTTP error! Status: 429", res.Failure.Message)
			assert.EqualValues(t, 1, f.api.calls.Load())
		})
	}
}

func TestAssess_NetworkFailureHidesKey(t *testing.T) {
	f := newFixture(t, nil)
	f.srv.Close()

	res := f.svc.Assess(context.Background(), request("google", assessment.KindTruthScore))

	require.Equal(t, assessment.ResultFailure, res.Variant)
	assert.Equal(t, assessment.CategoryNetwork, res.Failure.Category)
	assert.Contains(t, res.Failure.Message, "API request failed: ")
	assert.NotContains(t, res.Failure.Message, testKey)
}

func TestAssess_Sentiment(t *testing.T) {
	f := newFixture(t, nil)
	f.api.respond(http.StatusOK, chatBody("```json\n{\"sentiment\": \"Positive\", \"confidence\": 0.9}\n```"))

	res := f.svc.Assess(context.Background(), request("groq", assessment.KindSentiment))

	require.Equal(t, assessment.ResultStructured, res.Variant, "failure: %+v", res.Failure)
	assert.JSONEq(t, `{"sentiment":"positive","confidence":0.9}`, string(res.Value))
}

func TestAssess_SentimentNotJSON(t *testing.T) {
	f := newFixture(t, nil)
	f.api.respond(http.StatusOK, chatBody("I feel good about it"))

	res := f.svc.Assess(context.Background(), request("groq", assessment.KindSentiment))

	require.Equal(t, assessment.ResultFailure, res.Variant)
	assert.Equal(t, assessment.CategoryMalformedStructured, res.Failure.Category)
}

func TestAssess_UserPromptComesFirst(t *testing.T) {
	f := newFixture(t, nil)
	f.api.respond(http.StatusOK, `{"message":{"content":"ok"}}`)

	req := request("cohere", assessment.KindFullReport)
	req.UserPrompt = "Answer in French."
	res := f.svc.Assess(context.Background(), req)

	require.True(t, res.OK())
	msg, _ := f.api.received["message"].(string)
	assert.Regexp(t, `^Answer in French\.\n\nText to analyze: "The sky is blue\."\n`, msg)
}

func TestAssess_LedgerKeepsMetadataOnly(t *testing.T) {
	f := newFixture(t, map[string]string{"GROQ": testKey})
	f.api.respond(http.StatusOK, chatBody("0.5"))

	f.svc.Assess(context.Background(), request("groq", assessment.KindTruthScore))
	f.svc.Assess(context.Background(), request("cohere", assessment.KindTruthScore))

	require.Len(t, f.ledger.records, 2)
	ok, failed := f.ledger.records[0], f.ledger.records[1]
	assert.Equal(t, usage.OutcomeOK, ok.Outcome)
	assert.Equal(t, "groq", ok.Provider)
	assert.Empty(t, ok.Category)
	assert.NotEmpty(t, ok.ID)
	assert.Equal(t, usage.OutcomeFailed, failed.Outcome)
	assert.Equal(t, string(assessment.CategoryCredentialMissing), failed.Category)
}

func TestAssess_LedgerClipsLongProviderIDs(t *testing.T) {
	f := newFixture(t, nil)
	long := strings.Repeat("p", 200)

	res := f.svc.Assess(context.Background(), request(long, assessment.KindTruthScore))

	assert.Equal(t, assessment.CategoryUnsupportedProvider, res.Failure.Category)
	require.Len(t, f.ledger.records, 1)
	assert.Equal(t, strings.Repeat("p", usage.MaxProvider), f.ledger.records[0].Provider)
	assert.Zero(t, f.api.calls.Load())
}

func TestService_ProvidersAndConfigured(t *testing.T) {
	f := newFixture(t, map[string]string{"GROQ": testKey, "COHERE": assessment.Placeholder("COHERE")})

	ps := f.svc.Providers()
	require.Len(t, ps, 5)
	assert.Equal(t, "groq", ps[0].ID)
	assert.Equal(t, 1, f.svc.Configured())
}

func TestService_CompleteForResearch(t *testing.T) {
	f := newFixture(t, nil)
	f.api.respond(http.StatusOK, chatBody("  climate change evidence  "))

	out, err := f.svc.Complete(context.Background(), "groq", "m", "free prompt", 20)

	require.NoError(t, err)
	assert.Equal(t, "climate change evidence", out)
	assert.EqualValues(t, 20, f.api.received["max_tokens"])

	_, err = f.svc.Complete(context.Background(), "nope", "m", "x", 20)
	assert.ErrorIs(t, err, assessment.ErrUnsupportedProvider)
}
