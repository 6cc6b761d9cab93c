// Package types defines the serializable data model shared by the agent
// runtime, team channel, team persistence, and the HTTP surface.
package types

// Provider identifies one of the supported LLM backends.
type Provider string

const (
	ProviderGrok   Provider = "grok"
	ProviderGroq   Provider = "groq"
	ProviderGemini Provider = "gemini"
	ProviderClaude Provider = "claude"
	ProviderOllama Provider = "ollama"
)

// Providers lists every supported provider tag in a stable order.
var Providers = []Provider{ProviderGrok, ProviderGroq, ProviderGemini, ProviderClaude, ProviderOllama}

// Valid reports whether p is a known provider tag.
func (p Provider) Valid() bool {
	switch p {
	case ProviderGrok, ProviderGroq, ProviderGemini, ProviderClaude, ProviderOllama:
		return true
	}
	return false
}

// ToolCapable reports whether the provider participates in the tool loop.
// Groq and Gemini are single-pass: they receive no tool definitions and
// their first response is final.
func (p Provider) ToolCapable() bool {
	switch p {
	case ProviderGrok, ProviderClaude, ProviderOllama:
		return true
	}
	return false
}

func (p Provider) String() string { return string(p) }

// ConfigKeySentinel is written to team files in place of an API key when the
// agent inherits the process-wide config key. It keeps real secrets out of
// persisted team records; on load it resolves back to the config lookup.
const ConfigKeySentinel = "__config__"

// AgentConfig is the serializable identity of one agent. An empty APIKey
// means "use the config default for this provider"; it round-trips through
// team files as ConfigKeySentinel.
type AgentConfig struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Role         string   `json:"role"`
	SystemPrompt string   `json:"systemPrompt"`
	Provider     Provider `json:"provider"`
	Model        string   `json:"model"`
	APIKey       string   `json:"apiKey"`
	// OllamaBaseURL overrides the provider endpoint; nil selects the default.
	OllamaBaseURL *string `json:"ollamaBaseUrl"`
}

// BaseURL returns the endpoint override or the empty string.
func (c AgentConfig) BaseURL() string {
	if c.OllamaBaseURL == nil {
		return ""
	}
	return *c.OllamaBaseURL
}

// AgentStatus tracks what an agent is doing right now.
type AgentStatus string

const (
	StatusIdle     AgentStatus = "idle"
	StatusThinking AgentStatus = "thinking"
	StatusTool     AgentStatus = "tool"
	StatusError    AgentStatus = "error"
)
