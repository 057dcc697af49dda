package assess

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/bryanwahyu/truthlens/internal/domain/assessment"
)

// leadingNumber mirrors parseFloat: the longest numeric prefix wins, the
// rest of the answer is ignored.
var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// Normalize turns an extracted provider payload into a Result for kind.
func Normalize(kind assessment.Kind, c assessment.Completion) (assessment.Result, error) {
	switch {
	case kind.Scoring():
		var (
			score float64
			err   error
		)
		if c.Score != nil {
			score, err = checkScore(*c.Score)
		} else {
			score, err = ParseScore(c.Text)
		}
		if err != nil {
			return assessment.Result{}, err
		}
		return assessment.Scored(kind, score, c.Raw), nil
	case kind.Structured():
		v, err := ParseSentiment(c.Text)
		if err != nil {
			return assessment.Result{}, err
		}
		return assessment.Structured(kind, v, c.Raw), nil
	default:
		return assessment.Texted(kind, strings.TrimSpace(c.Text), c.Raw), nil
	}
}

// ParseScore reads a score in [0,1] from model output. Out-of-range values
// are rejected, never clamped.
func ParseScore(text string) (float64, error) {
	m := leadingNumber.FindString(strings.TrimSpace(text))
	if m == "" {
		return 0, fmt.Errorf("%w: %q is not a number", assessment.ErrMalformedScore, abbreviate(text, 40))
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", assessment.ErrMalformedScore, err)
	}
	return checkScore(v)
}

func checkScore(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 1 {
		return 0, fmt.Errorf("%w: %v is outside [0,1]", assessment.ErrMalformedScore, v)
	}
	return v, nil
}

// ParseSentiment extracts the sentiment object from model output, tolerating
// code fences and surrounding prose.
func ParseSentiment(text string) (json.RawMessage, error) {
	s := stripFences(strings.TrimSpace(text))
	if i := strings.Index(s, "{"); i >= 0 {
		if j := strings.LastIndex(s, "}"); j > i {
			s = s[i : j+1]
		}
	}

	var obj struct {
		Sentiment  *string  `json:"sentiment"`
		Confidence *float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", assessment.ErrMalformedStructured, err)
	}
	if obj.Sentiment == nil || strings.TrimSpace(*obj.Sentiment) == "" {
		return nil, fmt.Errorf("%w: sentiment missing", assessment.ErrMalformedStructured)
	}
	out := assessment.Sentiment{Sentiment: strings.ToLower(strings.TrimSpace(*obj.Sentiment))}
	if obj.Confidence != nil {
		out.Confidence = *obj.Confidence
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", assessment.ErrMalformedStructured, err)
	}
	return b, nil
}

func stripFences(s string) string {
	idx := strings.Index(s, "```")
	if idx < 0 {
		return s
	}
	rest := strings.TrimPrefix(s[idx+3:], "json")
	if j := strings.Index(rest, "```"); j >= 0 {
		return strings.TrimSpace(rest[:j])
	}
	return strings.TrimSpace(rest)
}

func abbreviate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
