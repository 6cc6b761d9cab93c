// Package provider implements the LLM provider adapters for CodeCrew.
//
// Every provider is reached through one interface: build a Request out of the
// conversation so far, call Send, and get back a Response carrying text, tool
// calls, a normalized stop reason, and token usage. The adapters own the wire
// dialects; callers never see SDK types.
//
// # Supported Providers
//
// Five provider IDs are recognized:
//
//   - grok: xAI's OpenAI-compatible API (https://api.x.ai/v1)
//   - groq: Groq's OpenAI-compatible API (https://api.groq.com/openai/v1)
//   - gemini: Google's Gemini generateContent API
//   - claude: Anthropic's Messages API
//   - ollama: a local Ollama server via its OpenAI-compatible endpoint
//
// Grok, Claude, and Ollama accept tool definitions and can return tool calls.
// Groq and Gemini run single-pass: the runtime sends them no tools, and
// Gemini additionally flattens multi-turn history into one labelled prompt.
//
// # Construction
//
//	p, err := provider.New(ctx, agentCfg, cfg)
//	if err != nil {
//	    return err
//	}
//
//	resp, err := p.Send(ctx, &provider.Request{
//	    SystemPrompt: "You are a code reviewer.",
//	    Messages:     messages,
//	    Tools:        defs,
//	})
//
// New resolves the API key and model from the agent configuration first and
// the global configuration second, falling back to per-provider default
// models. Ollama needs no key; every other provider fails fast without one.
//
// # Stop Reasons
//
// Each dialect's finish signal is normalized to one of three values:
//
//   - end_turn: the model finished its answer
//   - tool_use: the model wants tool results before continuing
//   - max_tokens: output was cut off at the token ceiling
//
// # Errors
//
// API failures surface as *Error with the HTTP status and a stable message:
// 401 maps to "Unauthorized", 404 to "Endpoint not found", 400 to
// "Bad request" with detail when the body carries one, and anything else to
// "API Error: ..." wrapping the upstream detail. Transient failures (429,
// 5xx, transport errors) retry with exponential backoff before surfacing.
//
// # Usage and Cost
//
// Token usage accumulates across a tool loop via types.Usage. UsageFooter
// renders the trailing cost block appended to final responses, and ParseCost
// recovers the dollar amount from rendered text when totalling a team run.
package provider
