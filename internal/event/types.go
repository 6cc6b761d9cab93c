package event

import "github.com/codecrew-ai/codecrew/pkg/types"

// AgentEventData is shared by every agent.* event; it identifies the agent
// the event concerns.
type AgentEventData struct {
	AgentID   string `json:"agentId"`
	AgentName string `json:"agentName"`
}

// AgentThinkingData is the data for agent.thinking events.
type AgentThinkingData struct {
	AgentEventData
}

// AgentToolCallData is the data for agent.tool_call events. Args carries the
// sanitized argument summary, never raw file contents.
type AgentToolCallData struct {
	AgentEventData
	Tool string `json:"tool"`
	Args string `json:"args"`
}

// AgentToolResultData is the data for agent.tool_result events.
type AgentToolResultData struct {
	AgentEventData
	Tool string `json:"tool"`
	OK   bool   `json:"ok"`
}

// AgentRespondedData is the data for agent.responded events.
type AgentRespondedData struct {
	AgentEventData
	Reply string `json:"reply"`
}

// AgentErrorData is the data for agent.error events.
type AgentErrorData struct {
	AgentEventData
	Error string `json:"error"`
}

// PermissionRequiredData is the data for permission.required events. A host
// answering the prompt responds through permission.Checker.Resolve with the
// same ID.
type PermissionRequiredData struct {
	ID      string `json:"id"`
	Tool    string `json:"tool"`
	Details string `json:"details"`
}

// PermissionResolvedData is the data for permission.resolved events.
type PermissionResolvedData struct {
	ID      string `json:"id"`
	Granted bool   `json:"granted"`
}

// TeamUpdatedData is the data for team.updated events.
type TeamUpdatedData struct {
	Name string `json:"name"`
}

// TeamDeletedData is the data for team.deleted events.
type TeamDeletedData struct {
	Name string `json:"name"`
}

// ToolExecutedData is the data for tool.executed events.
type ToolExecutedData struct {
	Record types.ToolCallRecord `json:"record"`
}

// FileEditedData is the data for file.edited events, published by the write
// and edit tools.
type FileEditedData struct {
	File string `json:"file"`
	Diff string `json:"diff,omitempty"`
}

// TodoUpdatedData is the data for todo.updated events.
type TodoUpdatedData struct {
	Todos []types.TodoItem `json:"todos"`
}
