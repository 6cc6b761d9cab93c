package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/codecrew-ai/codecrew/pkg/types"
)

// Sentinel errors returned by the factory.
var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrMissingAPIKey   = errors.New("missing API key")
)

// Built-in endpoints for the OpenAI-compatible dialects. Config base-URL
// overrides win; ollama additionally honors the per-agent override.
const (
	GrokBaseURL          = "https://api.x.ai/v1"
	GroqBaseURL          = "https://api.groq.com/openai/v1"
	DefaultOllamaBaseURL = "http://localhost:11434"
)

// Normalized stop reasons. Adapters fold each dialect's finish/stop values
// into these; values outside the table pass through untranslated.
const (
	StopEndTurn   = "end_turn"
	StopToolUse   = "tool_use"
	StopMaxTokens = "max_tokens"
)

// Request is one normalized provider call. The system prompt is carried
// separately because every dialect places it differently.
type Request struct {
	SystemPrompt string
	Messages     []types.Message
	Tools        []types.ToolDefinition
	// Model overrides the adapter's configured model for this call.
	Model string
}

// Response is the normalized result of one provider call.
type Response struct {
	Text       string
	ToolCalls  []types.ToolCall
	StopReason string
	Usage      types.Usage
}

// Provider sends one normalized request to an LLM backend.
//
// Send never returns tool calls from a single-pass provider; callers decide
// whether to offer tools at all via types.Provider.ToolCapable.
type Provider interface {
	// ID returns the provider tag this adapter serves.
	ID() types.Provider

	// Name returns the human-readable provider name.
	Name() string

	// Model returns the model requests default to.
	Model() string

	// Send performs one request/response exchange.
	Send(ctx context.Context, req *Request) (*Response, error)
}

// defaultModels maps each provider to the model used when neither the agent
// nor the config names one.
var defaultModels = map[types.Provider]string{
	types.ProviderGrok:   "grok-3",
	types.ProviderGroq:   "llama-3.3-70b-versatile",
	types.ProviderGemini: "gemini-2.0-flash",
	types.ProviderClaude: "claude-sonnet-4-20250514",
	types.ProviderOllama: "llama3.2",
}

// DefaultModelFor returns the compiled-in default model for a provider.
func DefaultModelFor(p types.Provider) string {
	return defaultModels[p]
}

// New builds the adapter for one agent. Key resolution order: the agent's own
// key, then the config default for its provider (env variables are already
// folded into the config by the loader). Ollama requires no key; every other
// provider does.
func New(ctx context.Context, cfg types.AgentConfig, defaults *types.Config) (Provider, error) {
	if !cfg.Provider.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = defaults.APIKeyFor(cfg.Provider)
	}
	if apiKey == "" && cfg.Provider != types.ProviderOllama {
		return nil, fmt.Errorf("%w for provider %s", ErrMissingAPIKey, cfg.Provider)
	}

	model := cfg.Model
	if model == "" {
		model = defaults.ModelFor(cfg.Provider)
	}
	if model == "" {
		model = DefaultModelFor(cfg.Provider)
	}

	switch cfg.Provider {
	case types.ProviderGrok:
		baseURL := defaults.BaseURLFor(types.ProviderGrok)
		if baseURL == "" {
			baseURL = GrokBaseURL
		}
		return newOpenAICompatible(types.ProviderGrok, "Grok", apiKey, baseURL, model), nil

	case types.ProviderGroq:
		baseURL := defaults.BaseURLFor(types.ProviderGroq)
		if baseURL == "" {
			baseURL = GroqBaseURL
		}
		return newOpenAICompatible(types.ProviderGroq, "Groq", apiKey, baseURL, model), nil

	case types.ProviderOllama:
		return newOpenAICompatible(types.ProviderOllama, "Ollama", apiKey, OllamaChatBaseURL(resolveOllamaBase(cfg, defaults)), model), nil

	case types.ProviderClaude:
		return newAnthropic(apiKey, defaults.BaseURLFor(types.ProviderClaude), model), nil

	case types.ProviderGemini:
		return newGemini(ctx, apiKey, defaults.BaseURLFor(types.ProviderGemini), model)
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
}

// resolveOllamaBase picks the ollama server root: agent override, then config
// override, then the local default.
func resolveOllamaBase(cfg types.AgentConfig, defaults *types.Config) string {
	if base := cfg.BaseURL(); base != "" {
		return base
	}
	if base := defaults.BaseURLFor(types.ProviderOllama); base != "" {
		return base
	}
	return DefaultOllamaBaseURL
}
