package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/codecrew-ai/codecrew/internal/permission"
	"github.com/codecrew-ai/codecrew/internal/provider"
	"github.com/codecrew-ai/codecrew/internal/sandbox"
	"github.com/codecrew-ai/codecrew/internal/tool"
	"github.com/codecrew-ai/codecrew/pkg/types"
)

// SendOptions shapes one SendMessage call.
type SendOptions struct {
	// WorkDir anchors relative tool paths for this request. Empty means the
	// sandbox policy's project root.
	WorkDir string

	// IncludeHistory replays the DM history ahead of the new user turn and
	// records the exchange afterwards. Team broadcasts leave it false; the
	// channel builds each agent's context itself.
	IncludeHistory bool

	// Gateway answers permission prompts for dangerous tools. Nil
	// auto-allows.
	Gateway permission.Gateway

	// OnToolCall fires before each tool invocation.
	OnToolCall func(name string, args json.RawMessage)

	// OnToolResult fires after each tool invocation.
	OnToolResult func(name string, ok bool)
}

// SendMessage runs one full exchange: user text in, final assistant text
// out. Tool-capable providers loop through tool rounds up to the policy
// budget; the reply is every round's text joined by blank lines, the last
// response's usage footer appended once. Provider errors abort the exchange
// and leave the agent in the error status.
func (a *Agent) SendMessage(ctx context.Context, text string, opts SendOptions) (string, error) {
	a.setStatus(types.StatusThinking)

	reply, err := a.run(ctx, text, opts)
	if err != nil {
		a.setStatus(types.StatusError)
		a.log.Error().Err(err).Msg("exchange failed")
		return "", err
	}

	a.setStatus(types.StatusIdle)
	if opts.IncludeHistory {
		a.appendExchange(text, reply)
	}
	return reply, nil
}

func (a *Agent) run(ctx context.Context, text string, opts SendOptions) (string, error) {
	var working []types.Message
	if opts.IncludeHistory {
		working = a.History()
	}
	working = append(working, types.UserMessage(text))

	toolCapable := a.cfg.Provider.ToolCapable()
	var defs []types.ToolDefinition
	if toolCapable {
		defs = a.executor.Registry().Definitions()
	}

	counter := a.executor.Policy().CounterFor()
	var sections []string
	var last *provider.Response

	for {
		counter.BeginRound()

		resp, err := a.send(ctx, working, defs)
		if err != nil {
			return "", err
		}
		last = resp
		if resp.Text != "" {
			sections = append(sections, resp.Text)
		}
		working = append(working, types.AssistantMessage(resp.Text, resp.ToolCalls))

		if !toolCapable || len(resp.ToolCalls) == 0 {
			break
		}

		working = a.dispatchToolCalls(ctx, working, resp.ToolCalls, counter, opts)

		if counter.Exhausted() {
			// Budget spent. The results are already delivered, so elicit one
			// closing response, but start no further tool round.
			final, err := a.send(ctx, working, defs)
			if err != nil {
				return "", err
			}
			last = final
			if final.Text != "" {
				sections = append(sections, final.Text)
			}
			sections = append(sections, sandbox.RoundLimitNote)
			a.log.Warn().
				Int("rounds", counter.Rounds()).
				Int("toolCalls", counter.ToolCalls()).
				Msg("tool budget exhausted")
			break
		}
	}

	reply := strings.Join(sections, "\n\n")
	reply += provider.UsageFooter(last.Usage, provider.RateFor(a.cfg.Provider, a.defaults))
	return reply, nil
}

func (a *Agent) send(ctx context.Context, messages []types.Message, defs []types.ToolDefinition) (*provider.Response, error) {
	return a.provider.Send(ctx, &provider.Request{
		SystemPrompt: a.cfg.SystemPrompt,
		Messages:     messages,
		Tools:        defs,
	})
}

// dispatchToolCalls executes one assistant turn's tool calls in emission
// order and appends each result keyed to its call id. Calls past the budget
// are not executed (and not logged); the model receives the limit sentinel
// in their place.
func (a *Agent) dispatchToolCalls(ctx context.Context, working []types.Message, calls []types.ToolCall, counter *sandbox.Counter, opts SendOptions) []types.Message {
	a.setStatus(types.StatusTool)
	defer a.setStatus(types.StatusThinking)

	for _, call := range calls {
		if opts.OnToolCall != nil {
			opts.OnToolCall(call.Name, call.Arguments)
		}

		var result string
		var ok bool
		if counter.RecordCall() {
			result, ok = a.executor.Execute(ctx, &tool.Context{
				AgentID:   a.cfg.ID,
				AgentName: a.cfg.Name,
				CallID:    call.ID,
				WorkDir:   opts.WorkDir,
				Gateway:   opts.Gateway,
			}, call)
		} else {
			result, ok = sandbox.LimitExceededResult, false
		}

		if opts.OnToolResult != nil {
			opts.OnToolResult(call.Name, ok)
		}
		working = append(working, types.ToolResultMessage(call.ID, result))
	}
	return working
}
