package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/bryanwahyu/truthlens/internal/domain/assessment"
	"github.com/bryanwahyu/truthlens/internal/domain/message"
	"github.com/bryanwahyu/truthlens/internal/domain/usage"
	"github.com/bryanwahyu/truthlens/internal/middleware"
)

const maxBodyBytes = 1 << 20

var ErrLedgerDisabled = errors.New("usage ledger disabled")

// Assessor is the dispatcher as seen by the transport.
type Assessor interface {
	Assess(ctx context.Context, req assessment.Request) assessment.Result
	Providers() []assessment.Provider
}

// Researcher runs the multi-step research action.
type Researcher interface {
	Research(ctx context.Context, providerID, model, text string) assessment.Result
}

type Router struct {
	assess   Assessor
	research Researcher
	ledger   usage.Repository
}

// badRequest marks client errors in the request envelope itself
type badRequest struct{ err error }

func (b badRequest) Error() string { return b.err.Error() }
func (b badRequest) Unwrap() error { return b.err }

// NewRouter mounts the /v1 API. research and ledger may be nil.
func NewRouter(assess Assessor, research Researcher, ledger usage.Repository) http.Handler {
	r := &Router{assess: assess, research: research, ledger: ledger}
	mux := chi.NewRouter()

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/messages", r.wrap(r.handleMessage))
		rt.Get("/providers", r.wrap(r.handleProviders))
		rt.Get("/usage/summary", r.wrap(r.handleUsageSummary))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var bad badRequest
			if errors.As(err, &bad) {
				http.Error(w, bad.Error(), http.StatusBadRequest)
				return
			}
			if errors.Is(err, ErrLedgerDisabled) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// POST /v1/messages
// Body: {"action":"assessTruthfulness","text":"...","apiProvider":"groq","model":"...","promptType":"truthscore"}
// Dispatch outcomes, failures included, are answered with 200 and a tagged reply.
func (r *Router) handleMessage(w http.ResponseWriter, req *http.Request) error {
	var msg message.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err := dec.Decode(&msg); err != nil {
		return badRequest{err}
	}
	msg = msg.Normalized()
	if err := middleware.ValidateStruct(msg); err != nil {
		return badRequest{err}
	}

	var res assessment.Result
	switch msg.Action {
	case message.ActionAssess:
		res = r.assess.Assess(req.Context(), msg.Assessment())
		category := ""
		if res.Failure != nil {
			category = string(res.Failure.Category)
		}
		middleware.IncrementAssessments(category)
	case message.ActionResearch:
		if r.research == nil {
			return badRequest{errors.New("research is not enabled")}
		}
		middleware.IncrementResearch()
		res = r.research.Research(req.Context(), msg.APIProvider, msg.Model, msg.Text)
	}

	return writeJSON(w, http.StatusOK, message.NewReply(res))
}

// GET /v1/providers
func (r *Router) handleProviders(w http.ResponseWriter, req *http.Request) error {
	views := lo.Map(r.assess.Providers(), func(p assessment.Provider, _ int) message.Provider {
		return message.Provider{ID: p.ID, Name: p.Name, Models: p.Models}
	})
	return writeJSON(w, http.StatusOK, views)
}

// GET /v1/usage/summary?days=7
func (r *Router) handleUsageSummary(w http.ResponseWriter, req *http.Request) error {
	if r.ledger == nil {
		return ErrLedgerDisabled
	}
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))
	days = middleware.ValidateDays(days)

	summary, err := r.ledger.Summary(req.Context(), days)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"days":      days,
		"providers": summary,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
