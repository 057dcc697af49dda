package assessment

// Kind is the requested judgment category (prompt type on the wire).
type Kind string

const (
	KindTruthScore      Kind = "truthscore"
	KindFullReport      Kind = "fullreport"
	KindSentiment       Kind = "sentiment"
	KindSummary         Kind = "summary"
	KindContradictions  Kind = "contradictions"
	KindLogicalArgument Kind = "logicalargument"
)

// Kinds lists every supported kind in display order.
var Kinds = []Kind{
	KindTruthScore,
	KindFullReport,
	KindSentiment,
	KindSummary,
	KindContradictions,
	KindLogicalArgument,
}

const (
	scoreTokens   = 10
	defaultTokens = 200
)

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Scoring reports whether the kind yields a numeric score in [0,1].
func (k Kind) Scoring() bool { return k == KindTruthScore }

// Structured reports whether the kind yields a JSON object.
func (k Kind) Structured() bool { return k == KindSentiment }

// MaxTokens is the completion budget requested from the provider.
func (k Kind) MaxTokens() int {
	if k.Scoring() {
		return scoreTokens
	}
	return defaultTokens
}

// ParseKind maps a wire value to a Kind. An empty value means truthscore,
// matching clients that predate prompt types.
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return KindTruthScore, nil
	}
	k := Kind(s)
	if !k.Valid() {
		return "", ErrInvalidKind
	}
	return k, nil
}
