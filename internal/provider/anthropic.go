package provider

import (
	"context"
	"encoding/json"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
	"github.com/rs/zerolog"

	"github.com/codecrew-ai/codecrew/internal/logging"
	"github.com/codecrew-ai/codecrew/pkg/types"
)

// anthropicMaxTokens is the output ceiling sent with every request; the
// Messages API requires an explicit value.
const anthropicMaxTokens = 8192

// anthropicClient adapts the Anthropic Messages dialect: content is a block
// list, tool results ride in user messages, and tool intent is signalled by
// stop_reason rather than a dedicated field.
type anthropicClient struct {
	client anthropic.Client
	model  string
	log    zerolog.Logger
}

func newAnthropic(apiKey, baseURL, model string) *anthropicClient {
	// Retry policy lives in sendWithRetry; the SDK's built-in retries would
	// stack on top of it.
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &anthropicClient{
		client: anthropic.NewClient(opts...),
		model:  model,
		log:    logging.WithComponent("provider.claude"),
	}
}

func (c *anthropicClient) ID() types.Provider { return types.ProviderClaude }
func (c *anthropicClient) Name() string       { return "Claude" }
func (c *anthropicClient) Model() string      { return c.model }

// Send performs one Messages API exchange.
func (c *anthropicClient) Send(ctx context.Context, req *Request) (*Response, error) {
	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: anthropicMaxTokens,
		Messages:  c.convertMessages(req.Messages),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if len(req.Tools) > 0 {
		params.Tools = c.convertTools(req.Tools)
	}

	c.log.Debug().
		Str("model", model).
		Int("messages", len(params.Messages)).
		Int("tools", len(params.Tools)).
		Msg("sending messages request")

	message, err := sendWithRetry(ctx, c.log, func() (*anthropic.Message, error) {
		res, err := c.client.Messages.New(ctx, params)
		if err != nil {
			return nil, normalizeAnthropicError(err)
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}

	resp := c.convertResponse(message)
	c.log.Debug().
		Str("stopReason", resp.StopReason).
		Int("toolCalls", len(resp.ToolCalls)).
		Int("inputTokens", resp.Usage.InputTokens).
		Int("outputTokens", resp.Usage.OutputTokens).
		Msg("messages response")
	return resp, nil
}

// convertMessages rebuilds the conversation as Anthropic message params.
// Consecutive role=tool results merge into one user message: when a single
// assistant turn carried several tool_use blocks, the API requires all of
// their tool_result blocks in the single following user message.
func (c *anthropicClient) convertMessages(messages []types.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	var pendingResults []anthropic.ContentBlockParamUnion
	flush := func() {
		if len(pendingResults) > 0 {
			out = append(out, anthropic.NewUserMessage(pendingResults...))
			pendingResults = nil
		}
	}

	for _, msg := range messages {
		switch msg.Role {
		case types.RoleTool:
			pendingResults = append(pendingResults, anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false))

		case types.RoleAssistant:
			flush()
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, decodeToolArguments(call.Arguments), call.Name))
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewAssistantMessage(blocks...))
			}

		default:
			flush()
			if msg.Content != "" {
				out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
			}
		}
	}
	flush()
	return out
}

// decodeToolArguments parses argument JSON into a value the SDK can
// re-serialize, returning an empty object on failure.
func decodeToolArguments(args json.RawMessage) any {
	if len(args) == 0 {
		return map[string]any{}
	}
	var decoded any
	if err := json.Unmarshal(args, &decoded); err != nil {
		return map[string]any{}
	}
	return decoded
}

func (c *anthropicClient) convertTools(defs []types.ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, def := range defs {
		var schema struct {
			Type       string         `json:"type"`
			Properties map[string]any `json:"properties"`
			Required   []string       `json:"required"`
		}
		if err := json.Unmarshal(def.Parameters, &schema); err != nil {
			c.log.Error().Err(err).Str("tool", def.Name).Msg("failed to unmarshal tool schema")
			continue
		}
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        def.Name,
				Description: anthropic.String(def.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Type:       constant.Object(schema.Type),
					Properties: schema.Properties,
					Required:   schema.Required,
				},
			},
		})
	}
	return out
}

// convertResponse flattens the content block list: text blocks concatenate,
// tool_use blocks become tool calls.
func (c *anthropicClient) convertResponse(message *anthropic.Message) *Response {
	resp := &Response{
		StopReason: string(message.StopReason),
		Usage: types.Usage{
			InputTokens:  int(message.Usage.InputTokens),
			OutputTokens: int(message.Usage.OutputTokens),
		},
	}
	for _, content := range message.Content {
		switch block := content.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Text += block.Text
		case anthropic.ToolUseBlock:
			resp.ToolCalls = append(resp.ToolCalls, types.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: json.RawMessage(block.Input),
			})
		}
	}
	if resp.StopReason == "" {
		if len(resp.ToolCalls) > 0 {
			resp.StopReason = StopToolUse
		} else {
			resp.StopReason = StopEndTurn
		}
	}
	return resp
}
