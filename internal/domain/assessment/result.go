package assessment

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ResultVariant tags an analysis Result.
type ResultVariant int

const (
	ResultFailure ResultVariant = iota
	ResultScore
	ResultText
	ResultStructured
)

// Failure describes why an analysis did not produce a value.
type Failure struct {
	Category Category
	Message  string
}

// Result is the normalized outcome of one analysis round trip. Exactly one
// of Score, Text, Value or Failure is meaningful, selected by Variant.
type Result struct {
	Variant ResultVariant
	Kind    Kind
	Score   float64
	Text    string
	Value   json.RawMessage
	Raw     string
	Failure *Failure
}

// Sentiment is the structured result of the sentiment kind.
type Sentiment struct {
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}

func Scored(kind Kind, score float64, raw string) Result {
	return Result{Variant: ResultScore, Kind: kind, Score: score, Raw: raw}
}

func Texted(kind Kind, text, raw string) Result {
	return Result{Variant: ResultText, Kind: kind, Text: text, Raw: raw}
}

func Structured(kind Kind, value json.RawMessage, raw string) Result {
	return Result{Variant: ResultStructured, Kind: kind, Value: value, Raw: raw}
}

func Failed(kind Kind, category Category, message string) Result {
	return Result{Variant: ResultFailure, Kind: kind, Failure: &Failure{Category: category, Message: message}}
}

// FailedErr builds a failure result from err, classifying it.
func FailedErr(kind Kind, err error) Result {
	return Failed(kind, Classify(err), err.Error())
}

func (r Result) OK() bool { return r.Variant != ResultFailure }

// Display renders the result the way the page shows it: a percentage with two
// decimals for scores, the text verbatim otherwise.
func (r Result) Display() string {
	switch r.Variant {
	case ResultScore:
		return fmt.Sprintf("%.2f%%", r.Score*100)
	case ResultText:
		return r.Text
	case ResultStructured:
		return strings.TrimSpace(string(r.Value))
	default:
		if r.Failure == nil {
			return ""
		}
		return r.Failure.Message
	}
}
