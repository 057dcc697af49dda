package usage

import (
	"time"
	"unicode/utf8"
)

// RecordID identifier type
type RecordID string

// Outcome of one dispatched analysis
type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeFailed Outcome = "failed"
)

// Record is a metadata-only ledger entry for one analysis. It never carries
// the analyzed text, the prompt or the provider's answer.
type Record struct {
	ID         RecordID  `json:"id"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model"`
	Kind       string    `json:"kind"`
	Outcome    Outcome   `json:"outcome"`
	Category   string    `json:"category,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Column widths of the ledger table.
const (
	MaxProvider = 64
	MaxModel    = 128
	MaxKind     = 32
	MaxCategory = 32
)

// Clip shortens client-supplied fields to the ledger column widths.
func (r *Record) Clip() {
	r.Provider = clip(r.Provider, MaxProvider)
	r.Model = clip(r.Model, MaxModel)
	r.Kind = clip(r.Kind, MaxKind)
	r.Category = clip(r.Category, MaxCategory)
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// ProviderSummary aggregates ledger rows for one provider
type ProviderSummary struct {
	Provider string `json:"provider"`
	Total    int    `json:"total"`
	Failed   int    `json:"failed"`
	AvgMS    int64  `json:"avg_ms"`
}
