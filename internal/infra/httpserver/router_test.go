package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/truthlens/internal/application/assess"
	"github.com/bryanwahyu/truthlens/internal/config"
	"github.com/bryanwahyu/truthlens/internal/domain/assessment"
	"github.com/bryanwahyu/truthlens/internal/domain/message"
	"github.com/bryanwahyu/truthlens/internal/domain/usage"
)

type stubAssessor struct {
	got    []assessment.Request
	result assessment.Result
}

func (s *stubAssessor) Assess(_ context.Context, req assessment.Request) assessment.Result {
	s.got = append(s.got, req)
	r := s.result
	r.Kind = req.Kind
	return r
}

func (s *stubAssessor) Providers() []assessment.Provider {
	return []assessment.Provider{{ID: "groq", Name: "Groq", Variant: assessment.VariantChat,
		CredentialKey: "GROQ", Endpoint: "https://secret.example", Models: []string{"llama"}}}
}

type stubResearcher struct{ text string }

func (s *stubResearcher) Research(_ context.Context, _, _, text string) assessment.Result {
	s.text = text
	return assessment.Texted("", "**Final Answer from LLM:** yes", "")
}

type stubLedger struct{ days int }

func (s *stubLedger) Save(context.Context, *usage.Record) error { return nil }

func (s *stubLedger) Summary(_ context.Context, days int) ([]usage.ProviderSummary, error) {
	s.days = days
	return []usage.ProviderSummary{{Provider: "groq", Total: 3, Failed: 1, AvgMS: 120}}, nil
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMessages_Score(t *testing.T) {
	a := &stubAssessor{result: assessment.Scored("", 0.87, "0.87")}
	h := NewRouter(a, nil, nil)

	rec := post(t, h, `{"action":"assessTruthfulness","text":"  The sky is blue.\u0000 ","apiProvider":"groq","model":"llama","promptType":"truthscore"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"score":0.87,"fullResponse":"0.87"}`, rec.Body.String())
	require.Len(t, a.got, 1)
	assert.Equal(t, "The sky is blue.", a.got[0].Text)
	assert.Equal(t, assessment.KindTruthScore, a.got[0].Kind)
}

func TestMessages_DefaultKindIsTruthScore(t *testing.T) {
	a := &stubAssessor{result: assessment.Scored("", 0.1, "")}
	h := NewRouter(a, nil, nil)

	rec := post(t, h, `{"action":"assessTruthfulness","text":"x","apiProvider":"groq"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, assessment.KindTruthScore, a.got[0].Kind)
}

func TestMessages_ZeroScoreSurvives(t *testing.T) {
	h := NewRouter(&stubAssessor{result: assessment.Scored("", 0, "0.00")}, nil, nil)

	rec := post(t, h, `{"action":"assessTruthfulness","text":"x","apiProvider":"groq"}`)

	var rep message.Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	require.NotNil(t, rep.Score)
	assert.Zero(t, *rep.Score)
}

func TestMessages_FailureIsTaggedReply(t *testing.T) {
	a := &stubAssessor{result: assessment.Failed("", assessment.CategoryCredentialMissing, "Groq API key not set.")}
	h := NewRouter(a, nil, nil)

	rec := post(t, h, `{"action":"assessTruthfulness","text":"x","apiProvider":"groq","promptType":"summary"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"error":"Groq API key not set.","errorCategory":"credential_missing"}`, rec.Body.String())
}

func TestMessages_UnknownKindReachesAssessor(t *testing.T) {
	a := &stubAssessor{result: assessment.Failed("", assessment.CategoryInvalidKind, "Invalid prompt type")}
	h := NewRouter(a, nil, nil)

	rec := post(t, h, `{"action":"assessTruthfulness","text":"x","apiProvider":"groq","promptType":"limerick"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, assessment.Kind("limerick"), a.got[0].Kind)
	assert.Contains(t, rec.Body.String(), "invalid_kind")
}

func TestMessages_BadEnvelope(t *testing.T) {
	a := &stubAssessor{}
	h := NewRouter(a, nil, nil)

	for name, body := range map[string]string{
		"not json":       `{`,
		"unknown action": `{"action":"deleteEverything","text":"x","apiProvider":"groq"}`,
		"no text":        `{"action":"assessTruthfulness","text":"","apiProvider":"groq"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := post(t, h, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Empty(t, a.got)
}

func TestMessages_EmptyProviderIsTaggedReply(t *testing.T) {
	svc := assess.NewService(assess.Options{Catalog: config.DefaultCatalog()})
	h := NewRouter(svc, nil, nil)

	rec := post(t, h, `{"action":"assessTruthfulness","text":"x","apiProvider":""}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var rep message.Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, string(assessment.CategoryUnsupportedProvider), rep.ErrorCategory)
}

func TestMessages_TextKeepsWhitespaceDropsNUL(t *testing.T) {
	a := &stubAssessor{result: assessment.Scored("", 0.5, "0.50")}
	h := NewRouter(a, nil, nil)

	rec := post(t, h, `{"action":"assessTruthfulness","text":"  a\u0000b\u0007  ","apiProvider":"groq"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, a.got, 1)
	assert.Equal(t, "  ab\a  ", a.got[0].Text)
}

func TestMessages_Research(t *testing.T) {
	r := &stubResearcher{}
	h := NewRouter(&stubAssessor{}, r, nil)

	rec := post(t, h, `{"action":"performResearch","text":"Is coffee healthy?","apiProvider":"groq","model":"llama"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Is coffee healthy?", r.text)
	assert.JSONEq(t, `{"result":"**Final Answer from LLM:** yes"}`, rec.Body.String())
}

func TestMessages_ResearchDisabled(t *testing.T) {
	h := NewRouter(&stubAssessor{}, nil, nil)

	rec := post(t, h, `{"action":"performResearch","text":"x","apiProvider":"groq"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProviders_HidesEndpointAndCredential(t *testing.T) {
	h := NewRouter(&stubAssessor{}, nil, nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/providers", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":"groq","name":"Groq","models":["llama"]}]`, rec.Body.String())
}

func TestUsageSummary(t *testing.T) {
	l := &stubLedger{}
	h := NewRouter(&stubAssessor{}, nil, l)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/usage/summary?days=900", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 365, l.days)
	assert.JSONEq(t, `{"days":365,"providers":[{"provider":"groq","total":3,"failed":1,"avg_ms":120}]}`, rec.Body.String())
}

func TestUsageSummary_LedgerDisabled(t *testing.T) {
	h := NewRouter(&stubAssessor{}, nil, nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/usage/summary", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
