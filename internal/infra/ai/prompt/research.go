package prompt

import "fmt"

// GetQueryPrompt asks for a short search query for the input.
func GetQueryPrompt(text string) string {
	return fmt.Sprintf("Generate a concise search query (max 10 words) based on this input for factual research:\n\"%s\"", text)
}

// GetURLPrompt asks for candidate sources, one URL per line.
func GetURLPrompt(text string, n int) string {
	return fmt.Sprintf("Given the question: \"%s\", suggest exactly %d unique URLs from different domains that would likely contain "+
		"relevant information to answer it. Return only the URLs, one per line.", text, n)
}

// GetAnswerPrompt asks for the final answer over the collated sources.
func GetAnswerPrompt(text, sources string) string {
	return fmt.Sprintf("Given the question: \"%s\", and the following scraped content from multiple sources, provide a concise answer:\n%s", text, sources)
}
