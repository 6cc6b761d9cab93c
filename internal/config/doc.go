// Package config provides configuration loading, merging, and path management
// for codecrew.
//
// # Configuration Loading
//
// The Load function searches for and merges configuration from multiple
// sources in priority order:
//
//  1. Global config (~/.codecrew/config.json or config.jsonc)
//  2. Project config ({dir}/.codecrew/config.json or config.jsonc)
//  3. Environment variables
//
// Later sources override earlier ones, except that provider API keys from
// the environment only fill fields the config files left empty. A .env file
// in the working directory is loaded first (via godotenv) and never
// overrides variables already present in the process environment.
//
// # Supported Formats
//
// Both JSON and JSONC (JSON with Comments) are accepted; JSONC files are
// normalized with tidwall/jsonc before parsing.
//
// # Variable Interpolation
//
// Configuration files support two placeholder forms:
//   - {env:VAR_NAME} - expands to the environment variable's value
//   - {file:path} - expands to the file's contents, escaped for JSON
//
// File paths in {file:path} may be absolute, relative to the config file's
// directory, or ~/-prefixed.
//
// Example:
//
//	{
//	  "providers": {
//	    "claude": {
//	      "apiKey": "{env:CLAUDE_API_KEY}",
//	      "model": "claude-sonnet-4-20250514"
//	    }
//	  }
//	}
//
// # Environment Variables
//
// The recognized variables are GROK_API_KEY, GROQ_API_KEY, GEMINI_API_KEY,
// CLAUDE_API_KEY (per-provider credentials) and GROK_BASE_URL (endpoint
// override for xAI). Ollama needs no key; its base URL defaults to
// http://localhost:11434 and can be overridden per agent or in config.
//
// # Path Management
//
// All persistent state lives under ~/.codecrew:
//   - config.json - provider defaults, sandbox knobs, pricing, MCP servers
//   - teams/{safeName}.json - saved team records
//   - todos.json - shared task list
//   - logs/codecrew.log - default log file
//
// The Paths type exposes these locations; EnsurePaths creates the
// directories on first run.
package config
