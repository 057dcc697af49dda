package config

import "github.com/bryanwahyu/truthlens/internal/domain/assessment"

// DefaultCatalog is the built-in provider table used when the config file
// does not define one.
func DefaultCatalog() []assessment.Provider {
	const hf = "https://api-inference.huggingface.co/models/"
	return []assessment.Provider{
		{ID: "huggingface-zero-shot", Name: "Hugging Face Zero-Shot", Variant: assessment.VariantHFZeroShot, CredentialKey: "HUGGINGFACE", Endpoint: hf,
			Models: []string{"facebook/bart-large-mnli", "typeform/distilbert-base-uncased-mnli"}},
		{ID: "huggingface-language", Name: "Hugging Face Language", Variant: assessment.VariantHFLanguage, CredentialKey: "HUGGINGFACE", Endpoint: hf,
			Models: []string{"meta-llama/Llama-3-70b", "google/gemma-7b"}},
		{ID: "groq", Name: "Groq", Variant: assessment.VariantChat, CredentialKey: "GROQ", Endpoint: "https://api.groq.com/openai/v1/chat/completions",
			Models: []string{"llama-3.3-70b-versatile", "mixtral-8x7b-32768"}},
		{ID: "openrouter", Name: "OpenRouter", Variant: assessment.VariantChat, CredentialKey: "OPENROUTER", Endpoint: "https://openrouter.ai/api/v1/chat/completions",
			Models: []string{"meta-llama/llama-3-8b-instruct", "openrouter/deepseek-r1"}},
		{ID: "togetherai", Name: "Together AI", Variant: assessment.VariantChat, CredentialKey: "TOGETHERAI", Endpoint: "https://api.together.ai/v1/chat/completions",
			Models: []string{"llama-3-8b", "mistral-7b-instruct-v0.2"}},
		{ID: "cohere", Name: "Cohere", Variant: assessment.VariantCohere, CredentialKey: "COHERE", Endpoint: "https://api.cohere.ai/v2/chat",
			Models: []string{"command-r-plus", "command-light"}},
		{ID: "xai", Name: "xAI (Grok)", Variant: assessment.VariantChat, CredentialKey: "XAI", Endpoint: "https://api.x.ai/v1/chat/completions",
			Models: []string{"grok-beta", "grok-2"}},
		{ID: "openai", Name: "OpenAI", Variant: assessment.VariantChat, CredentialKey: "OPENAI", Endpoint: "https://api.openai.com/v1/chat/completions",
			Models: []string{"gpt-3.5-turbo", "gpt-4"}},
		{ID: "google", Name: "Google Gemini", Variant: assessment.VariantGoogle, CredentialKey: "GOOGLE", Endpoint: "https://generativelanguage.googleapis.com/v1beta/models/",
			Models: []string{"gemini-1.5-pro", "gemini-1.0-pro"}},
	}
}
