package agent

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bryanwahyu/truthlens/internal/domain/assessment"
)

const (
	labelOffset   = 10
	labelColumns  = 48
	previewRunes  = 50
	scoreDwell    = 3 * time.Second
	verboseDwell  = 10 * time.Second
	outlineDwell  = 3 * time.Second
	outlineStyle  = "outline: 2px solid red"
	scoreCaption  = "Objective Truth Probability: "
	noTextMessage = "No text found at click location"
	noTextDetails = "Ensure you clicked on a text-containing element."
)

// Label is a floating result label drawn near the click point.
type Label struct {
	ID    uint64
	X, Y  int
	Kind  assessment.Kind
	Text  string
	Lines []string
	Error bool
	Dwell time.Duration
}

func newLabel(id uint64, x, y int, r assessment.Result) Label {
	l := Label{ID: id, X: x + labelOffset, Y: y + labelOffset, Kind: r.Kind}
	switch r.Variant {
	case assessment.ResultScore:
		l.Text = scoreCaption + r.Display()
	case assessment.ResultFailure:
		l.Text = "Error: " + r.Display()
		l.Error = true
	default:
		l.Text = r.Display()
	}
	l.Lines = wrap(l.Text, labelColumns)
	l.Dwell = verboseDwell
	if r.Kind.Scoring() {
		l.Dwell = scoreDwell
	}
	return l
}

// wrap breaks text into lines of at most width runes, on spaces where
// possible. Existing line breaks are kept.
func wrap(text string, width int) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		var line []rune
		for _, w := range words {
			word := []rune(w)
			for len(word) > width {
				if len(line) > 0 {
					lines = append(lines, string(line))
					line = nil
				}
				lines = append(lines, string(word[:width]))
				word = word[width:]
			}
			switch {
			case len(line) == 0:
				line = word
			case len(line)+1+len(word) <= width:
				line = append(append(line, ' '), word...)
			default:
				lines = append(lines, string(line))
				line = word
			}
		}
		if len(line) > 0 {
			lines = append(lines, string(line))
		}
	}
	return lines
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	return string([]rune(text)[:previewRunes]) + "..."
}

// hint returns a follow-up console entry for failure categories that have
// an obvious remedy.
func hint(cat assessment.Category) (msg, details string, ok bool) {
	switch cat {
	case assessment.CategoryCredentialMissing:
		return "Action required:", "Update your API key in the dispatcher credentials configuration.", true
	case assessment.CategoryHTTP, assessment.CategoryNetwork:
		return "Possible causes:", "1. Invalid API key\n2. Network issues\n3. Rate limit exceeded", true
	case assessment.CategoryMalformedScore:
		return "Parsing issue:", "The API response did not return a valid score between 0 and 1.", true
	case assessment.CategoryMalformedStructured:
		return "Parsing issue:", "The API response was not the expected JSON object. Try again or pick another model.", true
	case assessment.CategoryMalformedResponse:
		return "Unexpected response:", "The API answered without the expected content. Check the selected model name.", true
	case assessment.CategoryUnsupportedProvider:
		return "Action required:", "Pick a provider from the provider list.", true
	case assessment.CategoryInvalidKind:
		return "Action required:", "Pick an analysis type from the prompt type list.", true
	default:
		return "", "", false
	}
}
