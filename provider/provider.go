// Package provider implements the AI translation service behind the
// orchestrator: batch translation and batch review of catalog strings over
// HTTP APIs (OpenAI-compatible chat, Google Gemini, Anthropic).
package provider

import (
	"fmt"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Provider IDs
// ---------------------------------------------------------------------------

const (
	ProviderGoogle       = "google"
	ProviderOpenAI       = "openai"
	ProviderAnthropic    = "anthropic"
	ProviderGroq         = "groq"
	ProviderOllama       = "ollama"
	ProviderCustomOpenAI = "custom-openai"
)

// ---------------------------------------------------------------------------
// Provider configuration
// ---------------------------------------------------------------------------

// Provider holds the configuration for an AI translation service.
type Provider struct {
	// ID is the provider identifier (google, openai, groq, ...).
	ID string
	// Name is the display name.
	Name string
	// BaseURL is the API base URL.
	BaseURL string
	// APIKey is the authentication key (empty for local services).
	APIKey string
	// Model is the model identifier.
	Model string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the request timeout.
	Timeout time.Duration
}

// DefaultProviders returns the pre-configured provider definitions.
func DefaultProviders() map[string]Provider {
	return map[string]Provider{
		ProviderGoogle: {
			ID:      ProviderGoogle,
			Name:    "Google AI (Gemini)",
			BaseURL: "https://generativelanguage.googleapis.com",
			Timeout: 120 * time.Second,
		},
		ProviderOpenAI: {
			ID:      ProviderOpenAI,
			Name:    "OpenAI",
			BaseURL: "https://api.openai.com/v1",
			Timeout: 120 * time.Second,
		},
		ProviderAnthropic: {
			ID:      ProviderAnthropic,
			Name:    "Anthropic",
			BaseURL: "https://api.anthropic.com/v1",
			Timeout: 120 * time.Second,
		},
		ProviderGroq: {
			ID:      ProviderGroq,
			Name:    "Groq",
			BaseURL: "https://api.groq.com/openai/v1",
			Timeout: 60 * time.Second,
		},
		ProviderOllama: {
			ID:      ProviderOllama,
			Name:    "Ollama",
			BaseURL: "http://localhost:11434/v1",
			Timeout: 300 * time.Second,
		},
		ProviderCustomOpenAI: {
			ID:      ProviderCustomOpenAI,
			Name:    "Custom OpenAI",
			Timeout: 60 * time.Second,
		},
	}
}

// IDs returns the known provider IDs with a short description, for help
// text and shell completion.
func IDs() []string {
	return []string{
		ProviderOpenAI + "\tOpenAI (API key required)",
		ProviderAnthropic + "\tAnthropic (API key required)",
		ProviderGoogle + "\tGoogle AI Gemini (API key required)",
		ProviderGroq + "\tGroq (API key required)",
		ProviderOllama + "\tOllama local server",
		ProviderCustomOpenAI + "\tCustom OpenAI-compatible endpoint",
	}
}

// ExampleModels returns model suggestions for a provider.
func ExampleModels(id string) []string {
	switch id {
	case ProviderOpenAI, ProviderCustomOpenAI:
		return []string{"gpt-4o", "gpt-4o-mini", "gpt-4.1"}
	case ProviderAnthropic:
		return []string{"claude-sonnet-4-5", "claude-haiku-4-5"}
	case ProviderGoogle:
		return []string{"gemini-2.5-flash", "gemini-2.5-pro"}
	case ProviderGroq:
		return []string{"llama-3.3-70b-versatile", "mixtral-8x7b-32768"}
	case ProviderOllama:
		return []string{"llama3.2", "qwen2.5", "mistral"}
	}
	return nil
}

// Resolve builds a Provider from a name and overrides. Unknown names are
// treated as the base URL of an OpenAI-compatible endpoint.
func Resolve(name, baseURL, apiKey, model, proxy string, timeout time.Duration) Provider {
	var prov Provider
	if p, ok := DefaultProviders()[strings.ToLower(name)]; ok {
		prov = p
	} else {
		prov = Provider{
			ID:      ProviderCustomOpenAI,
			Name:    name,
			BaseURL: name,
			Timeout: 60 * time.Second,
		}
	}

	if baseURL != "" {
		prov.BaseURL = baseURL
	}
	if apiKey != "" {
		prov.APIKey = apiKey
	}
	if model != "" {
		prov.Model = model
	}
	if proxy != "" {
		prov.Proxy = proxy
	}
	if timeout > 0 {
		prov.Timeout = timeout
	}
	return prov
}

// Validate checks that the provider has what it needs to make requests.
func (p Provider) Validate() error {
	if p.Model == "" {
		examples := strings.Join(ExampleModels(p.ID), ", ")
		if examples == "" {
			examples = "check provider documentation"
		}
		return fmt.Errorf("--model is required for provider '%s'\n\n"+
			"Example models for %s:\n  %s", p.ID, p.Name, examples)
	}

	switch p.ID {
	case ProviderGoogle, ProviderOpenAI, ProviderAnthropic, ProviderGroq:
		if p.APIKey == "" {
			return fmt.Errorf("provider '%s' requires an API key\n\n"+
				"Option 1: Store your API key:\n"+
				"  xcstrans auth login --provider %s\n\n"+
				"Option 2: Pass key directly:\n"+
				"  --api-key YOUR_KEY or export XCSTRANS_API_KEY=YOUR_KEY", p.ID, p.ID)
		}
	case ProviderCustomOpenAI:
		if p.BaseURL == "" {
			return fmt.Errorf("provider 'custom-openai' requires an endpoint URL\n\n" +
				"Option 1: Configure via auth:\n" +
				"  xcstrans auth login --provider custom-openai\n\n" +
				"Option 2: Pass directly:\n" +
				"  --base-url https://api.example.com/v1")
		}
	}
	return nil
}

// apiFormat selects the request/response shape of a provider.
type apiFormat int

const (
	formatOpenAIChat   apiFormat = iota // OpenAI chat/completions
	formatGeminiNative                  // Google Gemini generateContent
	formatAnthropic                     // Anthropic messages
)

func (p Provider) format() apiFormat {
	switch p.ID {
	case ProviderGoogle:
		return formatGeminiNative
	case ProviderAnthropic:
		return formatAnthropic
	}
	return formatOpenAIChat
}
