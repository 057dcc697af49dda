package assessment

import "strings"

// Variant selects the request builder and response extractor for a provider.
type Variant string

const (
	VariantChat       Variant = "chat"
	VariantCohere     Variant = "cohere"
	VariantGoogle     Variant = "google"
	VariantHFLanguage Variant = "hf-language"
	VariantHFZeroShot Variant = "hf-zero-shot"
)

// Provider describes one entry of the static provider catalog.
type Provider struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Variant       Variant  `json:"-" yaml:"variant"`
	CredentialKey string   `json:"-" yaml:"credential"`
	Endpoint      string   `json:"-" yaml:"endpoint"`
	Models        []string `json:"models" yaml:"models"`
}

// Request is one analysis request, created per click.
type Request struct {
	Text       string
	Provider   string
	Model      string
	Kind       Kind
	UserPrompt string
}

// Call is what a Completer sends to a provider for a single round trip.
type Call struct {
	Provider  Provider
	APIKey    string
	Model     string
	Prompt    string
	Text      string
	Kind      Kind
	MaxTokens int
}

// Completion is the extracted payload of a provider response. Score is set
// only when the provider returns a classification instead of text.
type Completion struct {
	Text  string
	Score *float64
	Raw   string
}

// Placeholder is the value a credential holds until the user edits it.
func Placeholder(key string) string {
	return "YOUR_" + key + "_API_KEY"
}

// CredentialSet reports whether v is a real credential rather than empty or
// a YOUR_..._API_KEY placeholder.
func CredentialSet(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	return !(strings.HasPrefix(v, "YOUR_") && strings.HasSuffix(v, "_API_KEY"))
}
