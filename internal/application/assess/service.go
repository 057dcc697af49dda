package assess

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/truthlens/internal/application"
	"github.com/bryanwahyu/truthlens/internal/domain/assessment"
	"github.com/bryanwahyu/truthlens/internal/domain/usage"
	"github.com/bryanwahyu/truthlens/internal/infra/ai/prompt"
)

const ledgerTimeout = 2 * time.Second

// Completers resolves the Completer for a provider variant.
type Completers interface {
	Get(v assessment.Variant) (assessment.Completer, bool)
}

// Options configure a Service. Catalog and Credentials are copied, so the
// caller may not mutate the Service's view of them afterwards.
type Options struct {
	Catalog     []assessment.Provider
	Credentials map[string]string
	Completers  Completers
	Ledger      usage.Repository
	Clock       application.Clock
	Logger      logrus.FieldLogger
	Timeout     time.Duration
}

// Service is the request dispatcher. It is safe for concurrent use: all of
// its state is read-only after construction.
type Service struct {
	catalog     map[string]assessment.Provider
	order       []assessment.Provider
	credentials map[string]string
	completers  Completers
	ledger      usage.Repository
	clock       application.Clock
	log         logrus.FieldLogger
	timeout     time.Duration
}

func NewService(opts Options) *Service {
	s := &Service{
		catalog:     lo.KeyBy(opts.Catalog, func(p assessment.Provider) string { return p.ID }),
		order:       append([]assessment.Provider(nil), opts.Catalog...),
		credentials: lo.Assign(opts.Credentials),
		completers:  opts.Completers,
		ledger:      opts.Ledger,
		clock:       opts.Clock,
		log:         opts.Logger,
		timeout:     opts.Timeout,
	}
	if s.clock == nil {
		s.clock = application.SystemClock{}
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	return s
}

// Providers returns the catalog in configuration order.
func (s *Service) Providers() []assessment.Provider {
	return append([]assessment.Provider(nil), s.order...)
}

// Configured counts catalog providers that have a usable credential.
func (s *Service) Configured() int {
	return lo.CountBy(s.order, func(p assessment.Provider) bool {
		return assessment.CredentialSet(s.credentials[p.CredentialKey])
	})
}

// Assess runs one analysis. It never returns an error: every failure is
// folded into a Result with a category and a human-readable message.
func (s *Service) Assess(ctx context.Context, req assessment.Request) assessment.Result {
	start := s.clock.Now()
	res := s.assess(ctx, req)
	s.record(ctx, req, res, s.clock.Now().Sub(start))
	return res
}

func (s *Service) assess(ctx context.Context, req assessment.Request) assessment.Result {
	if !req.Kind.Valid() {
		return assessment.Failed(req.Kind, assessment.CategoryInvalidKind, "Invalid prompt type")
	}

	target, err := s.resolve(req.Provider)
	if err != nil {
		return assessment.FailedErr(req.Kind, err)
	}

	text, err := prompt.GetAssessPrompt(req.Kind, req.Text, req.UserPrompt)
	if err != nil {
		return assessment.FailedErr(req.Kind, err)
	}

	completion, err := s.call(ctx, target, assessment.Call{
		Model:     req.Model,
		Prompt:    text,
		Text:      req.Text,
		Kind:      req.Kind,
		MaxTokens: req.Kind.MaxTokens(),
	})
	if err != nil {
		return requestFailed(req.Kind, err)
	}

	res, err := Normalize(req.Kind, completion)
	if err != nil {
		return requestFailed(req.Kind, err)
	}
	return res
}

// Complete sends a free-form prompt through the provider's variant and
// returns the extracted text. Used by research, which chains several calls.
func (s *Service) Complete(ctx context.Context, providerID, model, text string, maxTokens int) (string, error) {
	target, err := s.resolve(providerID)
	if err != nil {
		return "", err
	}
	completion, err := s.call(ctx, target, assessment.Call{
		Model:     model,
		Prompt:    text,
		Text:      text,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", err
	}
	if completion.Score != nil {
		return "", fmt.Errorf("%w: provider %s returned a score, not text", assessment.ErrMalformedResponse, providerID)
	}
	return completion.Text, nil
}

type resolved struct {
	provider  assessment.Provider
	apiKey    string
	completer assessment.Completer
}

// resolve validates the provider and its credential without touching the
// network.
func (s *Service) resolve(providerID string) (resolved, error) {
	p, ok := s.catalog[providerID]
	if !ok {
		return resolved{}, fmt.Errorf("%w: %q", assessment.ErrUnsupportedProvider, providerID)
	}
	key := s.credentials[p.CredentialKey]
	if !assessment.CredentialSet(key) {
		return resolved{}, fmt.Errorf("%s %w.", p.Name, assessment.ErrCredentialMissing)
	}
	c, ok := s.completers.Get(p.Variant)
	if !ok {
		return resolved{}, fmt.Errorf("%w: no client for variant %q", assessment.ErrUnsupportedProvider, p.Variant)
	}
	return resolved{provider: p, apiKey: key, completer: c}, nil
}

func (s *Service) call(ctx context.Context, target resolved, call assessment.Call) (assessment.Completion, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	call.Provider = target.provider
	call.APIKey = target.apiKey
	return target.completer.Complete(ctx, call)
}

func requestFailed(kind assessment.Kind, err error) assessment.Result {
	return assessment.Failed(kind, assessment.Classify(err), "API request failed: "+err.Error())
}

func (s *Service) record(ctx context.Context, req assessment.Request, res assessment.Result, took time.Duration) {
	fields := logrus.Fields{
		"provider":    req.Provider,
		"model":       req.Model,
		"kind":        req.Kind,
		"duration_ms": took.Milliseconds(),
	}
	rec := &usage.Record{
		ID:         usage.RecordID(uuid.NewString()),
		Provider:   req.Provider,
		Model:      req.Model,
		Kind:       string(req.Kind),
		Outcome:    usage.OutcomeOK,
		DurationMS: took.Milliseconds(),
		CreatedAt:  s.clock.Now(),
	}
	if res.Failure != nil {
		fields["category"] = res.Failure.Category
		rec.Outcome = usage.OutcomeFailed
		rec.Category = string(res.Failure.Category)
		s.log.WithFields(fields).Warn(res.Failure.Message)
	} else {
		s.log.WithFields(fields).Info("assessment completed")
	}

	if s.ledger == nil {
		return
	}
	rec.Clip()
	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ledgerTimeout)
	defer cancel()
	if err := s.ledger.Save(lctx, rec); err != nil && !errors.Is(err, context.Canceled) {
		s.log.WithError(err).Warn("usage ledger write failed")
	}
}
