package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/truthlens/internal/domain/assessment"
)

// instructions per kind; %s is the statement
var instructions = map[assessment.Kind]string{
	assessment.KindTruthScore: "System Prompt: Evaluate the truthfulness of the statement and provide an 'Objective Truth Probability Score' " +
		"between 0 and 1, where 1 is definitely true and 0 is definitely false. Consider facts, contradictions, and context. " +
		"Output only the score as a float with two decimal places.\nStatement: \"%s\"",
	assessment.KindFullReport: "System Prompt: Provide a detailed analysis of the statement's truthfulness as plain text.\nStatement: \"%s\"",
	assessment.KindSentiment: "Analyze the sentiment of this statement and return JSON: " +
		"{\"sentiment\": \"positive/negative/neutral\", \"confidence\": float}.\nStatement: \"%s\"",
	assessment.KindSummary:         "Summarize this statement concisely as plain text.\nStatement: \"%s\"",
	assessment.KindContradictions:  "Identify contradictions in this statement as plain text, or \"No contradictions found\".\nStatement: \"%s\"",
	assessment.KindLogicalArgument: "Analyze this statement for logical fallacies as plain text.\nStatement: \"%s\"",
}

// GetAssessPrompt builds the single user message sent for one analysis.
// A user instruction, when present, comes first and quotes the text once.
func GetAssessPrompt(kind assessment.Kind, text, userPrompt string) (string, error) {
	tmpl, ok := instructions[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", assessment.ErrInvalidKind, kind)
	}

	var b strings.Builder
	if up := strings.TrimSpace(userPrompt); up != "" {
		fmt.Fprintf(&b, "%s\n\nText to analyze: \"%s\"\n", up, text)
	}
	fmt.Fprintf(&b, tmpl, text)
	return b.String(), nil
}
