package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"

	"github.com/codecrew-ai/codecrew/pkg/types"
)

// Load loads configuration from multiple sources (priority order):
// 1. Global config (~/.codecrew/config.json, config.jsonc)
// 2. Project config ({dir}/.codecrew/config.json, config.jsonc)
// 3. Environment variables (fill in provider keys the files left empty)
//
// A .env file in the working directory is read before environment lookups;
// variables already set in the process are never overridden by it.
func Load(directory string) (*types.Config, error) {
	_ = godotenv.Load()

	config := &types.Config{
		Providers: make(map[types.Provider]types.ProviderDefaults),
	}

	// Track loaded files to avoid duplicates
	loaded := make(map[string]bool)

	loadOnce := func(path string, baseDir string) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if loaded[absPath] {
			return
		}
		if loadConfigFile(path, config, baseDir) == nil {
			loaded[absPath] = true
		}
	}

	// 1. Global config (~/.codecrew/)
	globalDir := GetPaths().Root
	loadOnce(filepath.Join(globalDir, "config.json"), globalDir)
	loadOnce(filepath.Join(globalDir, "config.jsonc"), globalDir)

	// 2. Project config
	if directory != "" {
		projectDir := filepath.Join(directory, ".codecrew")
		loadOnce(filepath.Join(projectDir, "config.json"), projectDir)
		loadOnce(filepath.Join(projectDir, "config.jsonc"), projectDir)
	}

	// 3. Environment variables
	applyEnvOverrides(config)

	return config, nil
}

// loadConfigFile loads a single config file with interpolation support.
func loadConfigFile(path string, config *types.Config, baseDir string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err // File doesn't exist, skip
	}

	// Strip JSONC comments using tidwall/jsonc
	data = jsonc.ToJSON(data)

	// Apply interpolation
	data = interpolate(data, baseDir)

	var fileConfig types.Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return err
	}

	mergeConfig(config, &fileConfig)
	return nil
}

// interpolate processes {env:VAR} and {file:path} placeholders.
func interpolate(data []byte, baseDir string) []byte {
	str := string(data)

	// Handle {env:VAR_NAME} placeholders
	envPattern := regexp.MustCompile(`\{env:([^}]+)\}`)
	str = envPattern.ReplaceAllStringFunc(str, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})

	// Handle {file:path} placeholders
	filePattern := regexp.MustCompile(`\{file:([^}]+)\}`)
	str = filePattern.ReplaceAllStringFunc(str, func(match string) string {
		filePath := filePattern.FindStringSubmatch(match)[1]

		// Resolve path
		if strings.HasPrefix(filePath, "~/") {
			filePath = filepath.Join(homeDir(), filePath[2:])
		} else if !filepath.IsAbs(filePath) {
			filePath = filepath.Join(baseDir, filePath)
		}

		content, err := os.ReadFile(filePath)
		if err != nil {
			return match // Keep original if file not found
		}

		// Escape for JSON string
		escaped := strings.ReplaceAll(string(content), "\\", "\\\\")
		escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
		escaped = strings.ReplaceAll(escaped, "\n", "\\n")
		escaped = strings.ReplaceAll(escaped, "\r", "\\r")
		escaped = strings.ReplaceAll(escaped, "\t", "\\t")

		return escaped
	})

	return []byte(str)
}

// mergeConfig merges source config into target. Provider entries merge
// field-by-field so a project overlay can change the model without wiping
// the global API key.
func mergeConfig(target, source *types.Config) {
	if source.DefaultProvider != "" {
		target.DefaultProvider = source.DefaultProvider
	}

	if source.Providers != nil {
		if target.Providers == nil {
			target.Providers = make(map[types.Provider]types.ProviderDefaults)
		}
		for name, p := range source.Providers {
			merged := target.Providers[name]
			if p.APIKey != "" {
				merged.APIKey = p.APIKey
			}
			if p.BaseURL != "" {
				merged.BaseURL = p.BaseURL
			}
			if p.Model != "" {
				merged.Model = p.Model
			}
			target.Providers[name] = merged
		}
	}

	if source.Sandbox != nil {
		target.Sandbox = source.Sandbox
	}

	if source.Rates != nil {
		if target.Rates == nil {
			target.Rates = make(map[types.Provider]types.Rate)
		}
		for k, v := range source.Rates {
			target.Rates[k] = v
		}
	}

	if source.MCP != nil {
		if target.MCP == nil {
			target.MCP = make(map[string]types.MCPConfig)
		}
		for k, v := range source.MCP {
			target.MCP[k] = v
		}
	}

	if source.Log != nil {
		target.Log = source.Log
	}
}

// providerKeyEnv maps each provider to the environment variable that can
// supply its API key when no config file does.
var providerKeyEnv = map[types.Provider]string{
	types.ProviderGrok:   "GROK_API_KEY",
	types.ProviderGroq:   "GROQ_API_KEY",
	types.ProviderGemini: "GEMINI_API_KEY",
	types.ProviderClaude: "CLAUDE_API_KEY",
}

// applyEnvOverrides fills provider credentials from the environment. Values
// from config files win; the environment only fills gaps.
func applyEnvOverrides(config *types.Config) {
	if config.Providers == nil {
		config.Providers = make(map[types.Provider]types.ProviderDefaults)
	}

	for provider, envVar := range providerKeyEnv {
		apiKey := os.Getenv(envVar)
		if apiKey == "" {
			continue
		}
		p := config.Providers[provider]
		if p.APIKey == "" {
			p.APIKey = apiKey
			config.Providers[provider] = p
		}
	}

	if baseURL := os.Getenv("GROK_BASE_URL"); baseURL != "" {
		p := config.Providers[types.ProviderGrok]
		if p.BaseURL == "" {
			p.BaseURL = baseURL
			config.Providers[types.ProviderGrok] = p
		}
	}
}

// Save saves the configuration to a file.
func Save(config *types.Config, path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
