package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/codecrew-ai/codecrew/internal/logging"
	"github.com/codecrew-ai/codecrew/pkg/types"
)

// geminiClient adapts the Gemini generateContent dialect. Gemini runs
// single-pass here: no tool declarations are sent, and multi-turn history is
// flattened into one labelled user turn.
type geminiClient struct {
	client *genai.Client
	model  string
	log    zerolog.Logger
}

func newGemini(ctx context.Context, apiKey, baseURL, model string) (*geminiClient, error) {
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &geminiClient{
		client: client,
		model:  model,
		log:    logging.WithComponent("provider.gemini"),
	}, nil
}

func (c *geminiClient) ID() types.Provider { return types.ProviderGemini }
func (c *geminiClient) Name() string       { return "Gemini" }
func (c *geminiClient) Model() string      { return c.model }

// Send performs one generateContent exchange.
func (c *geminiClient) Send(ctx context.Context, req *Request) (*Response, error) {
	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	config := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	prompt := flattenMessages(req.Messages)
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	c.log.Debug().
		Str("model", model).
		Int("promptChars", len(prompt)).
		Msg("sending generateContent request")

	res, err := sendWithRetry(ctx, c.log, func() (*genai.GenerateContentResponse, error) {
		r, err := c.client.Models.GenerateContent(ctx, model, contents, config)
		if err != nil {
			return nil, normalizeGeminiError(err)
		}
		return r, nil
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.convertResponse(res)
	if err != nil {
		return nil, err
	}
	c.log.Debug().
		Str("stopReason", resp.StopReason).
		Int("inputTokens", resp.Usage.InputTokens).
		Int("outputTokens", resp.Usage.OutputTokens).
		Msg("generateContent response")
	return resp, nil
}

// flattenMessages collapses a conversation into a single prompt. A lone user
// message passes through untouched; anything longer gets "User:"/"Assistant:"
// labels so the model can follow who said what.
func flattenMessages(messages []types.Message) string {
	if len(messages) == 1 && messages[0].Role == types.RoleUser {
		return messages[0].Content
	}
	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case types.RoleAssistant:
			parts = append(parts, "Assistant: "+msg.Content)
		default:
			parts = append(parts, "User: "+msg.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

func (c *geminiClient) convertResponse(res *genai.GenerateContentResponse) (*Response, error) {
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return nil, &Error{Message: "API Error: provider returned no candidates"}
	}
	candidate := res.Candidates[0]

	resp := &Response{}
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			resp.Text += part.Text
		}
	}

	switch string(candidate.FinishReason) {
	case "MAX_TOKENS":
		resp.StopReason = StopMaxTokens
	default:
		resp.StopReason = StopEndTurn
	}

	if res.UsageMetadata != nil {
		resp.Usage = types.Usage{
			InputTokens:  int(res.UsageMetadata.PromptTokenCount),
			OutputTokens: int(res.UsageMetadata.CandidatesTokenCount),
		}
	}
	return resp, nil
}
