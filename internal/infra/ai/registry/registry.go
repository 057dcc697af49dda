package registry

import (
	"net/http"
	"sync"
	"time"

	"github.com/bryanwahyu/truthlens/internal/domain/assessment"
	"github.com/bryanwahyu/truthlens/internal/infra/ai/openai"
	"github.com/bryanwahyu/truthlens/internal/infra/ai/rest"
)

// Registry holds the Completer for each provider variant.
type Registry struct {
	mu         sync.RWMutex
	completers map[assessment.Variant]assessment.Completer
}

func New() *Registry {
	return &Registry{completers: make(map[assessment.Variant]assessment.Completer)}
}

// Default wires every built-in variant onto one shared HTTP client.
func Default(httpClient *http.Client, timeout time.Duration) *Registry {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	rc := rest.New(httpClient, timeout)

	r := New()
	r.Register(assessment.VariantChat, openai.NewClient(httpClient))
	r.Register(assessment.VariantCohere, rest.Cohere{Client: rc})
	r.Register(assessment.VariantGoogle, rest.Google{Client: rc})
	r.Register(assessment.VariantHFLanguage, rest.HFLanguage{Client: rc})
	r.Register(assessment.VariantHFZeroShot, rest.HFZeroShot{Client: rc})
	return r
}

func (r *Registry) Register(v assessment.Variant, c assessment.Completer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completers[v] = c
}

func (r *Registry) Get(v assessment.Variant) (assessment.Completer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.completers[v]
	return c, ok
}
