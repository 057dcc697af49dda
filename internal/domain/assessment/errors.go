package assessment

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidKind         = errors.New("invalid prompt type")
	ErrUnsupportedProvider = errors.New("unsupported API provider")
	ErrCredentialMissing   = errors.New("API key not set")
	ErrMalformedScore      = errors.New("invalid score format")
	ErrMalformedStructured = errors.New("invalid structured result")
	ErrMalformedResponse   = errors.New("unexpected response shape")
	ErrNoText              = errors.New("no text found at click location")
)

// HTTPStatusError is returned by completers when a provider answers with a
// non-2xx status.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP error! Status: %d", e.StatusCode)
}

// Category classifies a failure for the UI.
type Category string

const (
	CategoryInvalidKind         Category = "invalid_kind"
	CategoryUnsupportedProvider Category = "unsupported_provider"
	CategoryCredentialMissing   Category = "credential_missing"
	CategoryHTTP                Category = "http_failure"
	CategoryNetwork             Category = "network"
	CategoryMalformedScore      Category = "malformed_score"
	CategoryMalformedStructured Category = "malformed_structured"
	CategoryMalformedResponse   Category = "malformed_response"
	CategoryNoText              Category = "no_text"
)

// Classify maps an error from the dispatch pipeline to its category.
// Anything unrecognised is treated as a network problem.
func Classify(err error) Category {
	var status *HTTPStatusError
	switch {
	case errors.Is(err, ErrInvalidKind):
		return CategoryInvalidKind
	case errors.Is(err, ErrUnsupportedProvider):
		return CategoryUnsupportedProvider
	case errors.Is(err, ErrCredentialMissing):
		return CategoryCredentialMissing
	case errors.As(err, &status):
		return CategoryHTTP
	case errors.Is(err, ErrMalformedScore):
		return CategoryMalformedScore
	case errors.Is(err, ErrMalformedStructured):
		return CategoryMalformedStructured
	case errors.Is(err, ErrMalformedResponse):
		return CategoryMalformedResponse
	case errors.Is(err, ErrNoText):
		return CategoryNoText
	default:
		return CategoryNetwork
	}
}
