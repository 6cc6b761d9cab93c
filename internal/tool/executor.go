package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/codecrew-ai/codecrew/internal/logging"
	"github.com/codecrew-ai/codecrew/internal/permission"
	"github.com/codecrew-ai/codecrew/internal/sandbox"
	"github.com/codecrew-ai/codecrew/pkg/types"
)

// Executor dispatches tool calls for every agent in every mode. It asks the
// permission gateway for dangerous tools, renders sandbox blocks and
// execution failures as result strings, truncates to the policy cap and
// appends each call to the log. The agent loop never receives an error from
// a tool: whatever happens, the model gets a string keyed to its call id.
type Executor struct {
	registry *Registry
	policy   *sandbox.Policy
	log      *sandbox.CallLog
}

// NewExecutor wires a registry, policy and call log together.
func NewExecutor(registry *Registry, policy *sandbox.Policy, log *sandbox.CallLog) *Executor {
	return &Executor{registry: registry, policy: policy, log: log}
}

// Registry returns the executor's tool registry.
func (e *Executor) Registry() *Registry { return e.registry }

// Policy returns the executor's sandbox policy.
func (e *Executor) Policy() *sandbox.Policy { return e.policy }

// Log returns the executor's call log.
func (e *Executor) Log() *sandbox.CallLog { return e.log }

// Execute runs one tool call to completion and returns the result string
// delivered to the model plus a success flag. The call is logged regardless
// of outcome.
func (e *Executor) Execute(ctx context.Context, toolCtx *Context, call types.ToolCall) (string, bool) {
	result, ok := e.run(ctx, toolCtx, call)
	result = e.policy.Truncate(result)
	e.log.Record(toolCtx.AgentID, call.Name, call.Arguments, result, ok)

	logging.Debug().
		Str("agent", toolCtx.AgentID).
		Str("tool", call.Name).
		Bool("ok", ok).
		Msg("tool call executed")

	return result, ok
}

func (e *Executor) run(ctx context.Context, toolCtx *Context, call types.ToolCall) (string, bool) {
	t, found := e.registry.Get(call.Name)
	if !found {
		return fmt.Sprintf("Error: unknown tool: %s", call.Name), false
	}

	if permission.RequiresApproval(call.Name) && !e.askPermission(ctx, toolCtx, call) {
		return permission.DeniedResult(call.Name), false
	}

	res, err := t.Execute(ctx, call.Arguments, toolCtx)
	switch {
	case sandbox.IsBlocked(err):
		return err.Error(), false
	case err != nil:
		return fmt.Sprintf("Error: %s", err.Error()), false
	case res == nil:
		return "", true
	default:
		return res.Output, true
	}
}

func (e *Executor) askPermission(ctx context.Context, toolCtx *Context, call types.ToolCall) bool {
	gateway := toolCtx.Gateway
	if gateway == nil {
		return true
	}

	var details map[string]any
	if err := json.Unmarshal(call.Arguments, &details); err != nil {
		details = map[string]any{"arguments": string(call.Arguments)}
	}

	return gateway.Ask(ctx, permission.Request{
		AgentID: toolCtx.AgentID,
		Tool:    call.Name,
		Title:   fmt.Sprintf("%s wants to run %s", toolCtx.AgentName, call.Name),
		Details: details,
	})
}
