package types

// ProviderDefaults holds the process-wide credentials and model default for
// one provider. Agents whose apiKey is empty (or the ConfigKeySentinel on
// disk) resolve their key from here at send time.
type ProviderDefaults struct {
	APIKey  string `json:"apiKey,omitempty"`
	BaseURL string `json:"baseUrl,omitempty"`
	Model   string `json:"model,omitempty"`
}

// Rate is per-million-token pricing for one provider, used to render the
// cost footer on agent replies.
type Rate struct {
	Input  float64 `json:"input"`
	Output float64 `json:"output"`
}

// SandboxConfig tunes the tool sandbox. Zero values mean "use the built-in
// default" so a partial config block only overrides what it names.
type SandboxConfig struct {
	SafeMode             bool     `json:"safeMode,omitempty"`
	MaxRounds            int      `json:"maxRounds,omitempty"`
	MaxToolCallsPerRound int      `json:"maxToolCallsPerRound,omitempty"`
	BashTimeoutSeconds   int      `json:"bashTimeoutSeconds,omitempty"`
	MaxResultBytes       int      `json:"maxResultBytes,omitempty"`
	AllowedPaths         []string `json:"allowedPaths,omitempty"`
}

// MCPConfig describes one MCP server to launch over stdio. Tools it exposes
// are registered as mcp_{server}_{tool}.
type MCPConfig struct {
	Command     []string          `json:"command,omitempty"`
	Environment map[string]string `json:"environment,omitempty"`
	Enabled     *bool             `json:"enabled,omitempty"`
}

// IsEnabled returns whether the server should be started. Enabled defaults
// to true when omitted.
func (m MCPConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// LogConfig controls file logging.
type LogConfig struct {
	Level  string `json:"level,omitempty"`
	File   string `json:"file,omitempty"`
	Pretty bool   `json:"pretty,omitempty"`
}

// Config is the schema of ~/.codecrew/config.json.
type Config struct {
	Providers       map[Provider]ProviderDefaults `json:"providers,omitempty"`
	DefaultProvider Provider                      `json:"defaultProvider,omitempty"`
	Sandbox         *SandboxConfig                `json:"sandbox,omitempty"`
	Rates           map[Provider]Rate             `json:"rates,omitempty"`
	MCP             map[string]MCPConfig          `json:"mcp,omitempty"`
	Log             *LogConfig                    `json:"log,omitempty"`
}

// APIKeyFor returns the config-default API key for a provider, or "" when
// none is set.
func (c *Config) APIKeyFor(p Provider) string {
	if c == nil {
		return ""
	}
	return c.Providers[p].APIKey
}

// BaseURLFor returns the config-default base URL override for a provider,
// or "" when the provider's built-in endpoint should be used.
func (c *Config) BaseURLFor(p Provider) string {
	if c == nil {
		return ""
	}
	return c.Providers[p].BaseURL
}

// ModelFor returns the config-default model for a provider, or "".
func (c *Config) ModelFor(p Provider) string {
	if c == nil {
		return ""
	}
	return c.Providers[p].Model
}

// RateFor returns the configured pricing for a provider. The second return
// is false when the config carries no rate and the caller should fall back
// to its compiled-in table.
func (c *Config) RateFor(p Provider) (Rate, bool) {
	if c == nil {
		return Rate{}, false
	}
	r, ok := c.Rates[p]
	return r, ok
}
