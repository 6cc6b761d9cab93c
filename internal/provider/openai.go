package provider

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/rs/zerolog"

	"github.com/codecrew-ai/codecrew/internal/logging"
	"github.com/codecrew-ai/codecrew/pkg/types"
)

// openAIClient serves every OpenAI-compatible dialect: grok against api.x.ai,
// groq against api.groq.com, and ollama against a local server's /v1 surface.
// Only the base URL and credentials differ between them.
type openAIClient struct {
	id     types.Provider
	name   string
	client openai.Client
	model  string
	log    zerolog.Logger
}

func newOpenAICompatible(id types.Provider, name, apiKey, baseURL, model string) *openAIClient {
	// Retry policy lives in sendWithRetry; the SDK's built-in retries would
	// stack on top of it.
	opts := []option.RequestOption{option.WithBaseURL(baseURL), option.WithMaxRetries(0)}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &openAIClient{
		id:     id,
		name:   name,
		client: openai.NewClient(opts...),
		model:  model,
		log:    logging.WithComponent("provider." + string(id)),
	}
}

func (c *openAIClient) ID() types.Provider { return c.id }
func (c *openAIClient) Name() string       { return c.name }
func (c *openAIClient) Model() string      { return c.model }

// Send performs one chat-completions exchange.
func (c *openAIClient) Send(ctx context.Context, req *Request) (*Response, error) {
	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: c.convertMessages(req.SystemPrompt, req.Messages),
	}
	if len(req.Tools) > 0 {
		params.Tools = c.convertTools(req.Tools)
	}

	c.log.Debug().
		Str("model", model).
		Int("messages", len(params.Messages)).
		Int("tools", len(params.Tools)).
		Msg("sending chat completion request")

	completion, err := sendWithRetry(ctx, c.log, func() (*openai.ChatCompletion, error) {
		res, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return nil, normalizeOpenAIError(err)
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return nil, &Error{Message: "API Error: provider returned no choices"}
	}

	choice := completion.Choices[0]
	resp := &Response{
		Text: choice.Message.Content,
		Usage: types.Usage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
		},
	}
	for j, call := range choice.Message.ToolCalls {
		id := call.ID
		if id == "" {
			// Some compatible servers omit tool call ids; synthesize one so
			// results can still be keyed back.
			id = fmt.Sprintf("call_%d", j)
		}
		resp.ToolCalls = append(resp.ToolCalls, types.ToolCall{
			ID:        id,
			Name:      call.Function.Name,
			Arguments: json.RawMessage(call.Function.Arguments),
		})
	}
	resp.StopReason = normalizeOpenAIStop(choice.FinishReason, len(resp.ToolCalls))

	c.log.Debug().
		Str("stopReason", resp.StopReason).
		Int("toolCalls", len(resp.ToolCalls)).
		Int("inputTokens", resp.Usage.InputTokens).
		Int("outputTokens", resp.Usage.OutputTokens).
		Msg("chat completion response")
	return resp, nil
}

// normalizeOpenAIStop folds finish_reason into the normalized stop set. The
// wire contract is the presence of tool_calls, so an empty or unknown reason
// with calls attached still reads as tool use.
func normalizeOpenAIStop(reason string, toolCalls int) string {
	switch reason {
	case "tool_calls":
		return StopToolUse
	case "stop":
		return StopEndTurn
	case "length":
		return StopMaxTokens
	}
	if toolCalls > 0 {
		return StopToolUse
	}
	if reason == "" {
		return StopEndTurn
	}
	return reason
}

// convertMessages rebuilds the conversation in OpenAI wire shape. The system
// prompt leads; assistant messages replay their tool calls so the follow-up
// role=tool results stay keyed.
func (c *openAIClient) convertMessages(systemPrompt string, messages []types.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if systemPrompt != "" {
		out = append(out, openai.ChatCompletionMessageParamUnion{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(systemPrompt),
				},
			},
		})
	}

	for _, msg := range messages {
		switch msg.Role {
		case types.RoleAssistant:
			assistant := &openai.ChatCompletionAssistantMessageParam{
				ToolCalls: c.convertToolCalls(msg.ToolCalls),
			}
			if msg.Content != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(msg.Content),
				}
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: assistant})

		case types.RoleTool:
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfTool: &openai.ChatCompletionToolMessageParam{
					Content: openai.ChatCompletionToolMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
					ToolCallID: msg.ToolCallID,
				},
			})

		default:
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
				},
			})
		}
	}
	return out
}

func (c *openAIClient) convertToolCalls(calls []types.ToolCall) []openai.ChatCompletionMessageToolCallParam {
	var out []openai.ChatCompletionMessageToolCallParam
	for _, call := range calls {
		out = append(out, openai.ChatCompletionMessageToolCallParam{
			ID: call.ID,
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      call.Name,
				Arguments: string(call.Arguments),
			},
		})
	}
	return out
}

func (c *openAIClient) convertTools(defs []types.ToolDefinition) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(defs))
	for _, def := range defs {
		var parameters shared.FunctionParameters
		if err := json.Unmarshal(def.Parameters, &parameters); err != nil {
			c.log.Error().Err(err).Str("tool", def.Name).Msg("failed to unmarshal tool schema")
			continue
		}
		out = append(out, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        def.Name,
				Description: openai.String(def.Description),
				Parameters:  parameters,
			},
		})
	}
	return out
}
