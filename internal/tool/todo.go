package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/codecrew-ai/codecrew/internal/event"
	"github.com/codecrew-ai/codecrew/internal/storage"
	"github.com/codecrew-ai/codecrew/pkg/types"
)

const todowriteDescription = `Replaces the shared task list with the given items.

Usage:
- Each item has id, content, status (pending, in_progress, completed) and priority (high, medium, low)
- Keep exactly one item in_progress at a time
- Update the list as work progresses; remove items that are no longer relevant`

const todoreadDescription = `Reads the shared task list.`

// todosKey is the storage key behind ~/.codecrew/todos.json.
var todosKey = []string{"todos"}

// TodoWriteTool replaces the shared task list.
type TodoWriteTool struct {
	store *storage.Storage
}

// TodoWriteInput is the input for the todowrite tool.
type TodoWriteInput struct {
	Todos []types.TodoItem `json:"todos"`
}

// NewTodoWriteTool creates a todowrite tool backed by the given store.
func NewTodoWriteTool(store *storage.Storage) *TodoWriteTool {
	return &TodoWriteTool{store: store}
}

func (t *TodoWriteTool) ID() string          { return "todowrite" }
func (t *TodoWriteTool) Description() string { return todowriteDescription }

func (t *TodoWriteTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"todos": {
				"type": "array",
				"description": "The complete replacement task list",
				"items": {
					"type": "object",
					"properties": {
						"id": {
							"type": "string",
							"description": "Unique identifier for the item"
						},
						"content": {
							"type": "string",
							"description": "Brief description of the task"
						},
						"status": {
							"type": "string",
							"description": "pending, in_progress or completed"
						},
						"priority": {
							"type": "string",
							"description": "high, medium or low"
						}
					},
					"required": ["id", "content", "status", "priority"]
				}
			}
		},
		"required": ["todos"]
	}`)
}

func (t *TodoWriteTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params TodoWriteInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	if err := t.store.Put(ctx, todosKey, params.Todos); err != nil {
		return nil, fmt.Errorf("failed to update todos: %w", err)
	}

	event.Publish(event.Event{
		Type: event.TodoUpdated,
		Data: event.TodoUpdatedData{Todos: params.Todos},
	})

	output, _ := json.MarshalIndent(params.Todos, "", "  ")
	return &Result{
		Title:    fmt.Sprintf("%d open todos", countOpen(params.Todos)),
		Output:   string(output),
		Metadata: map[string]any{"count": len(params.Todos)},
	}, nil
}

// TodoReadTool reads the shared task list.
type TodoReadTool struct {
	store *storage.Storage
}

// NewTodoReadTool creates a todoread tool backed by the given store.
func NewTodoReadTool(store *storage.Storage) *TodoReadTool {
	return &TodoReadTool{store: store}
}

func (t *TodoReadTool) ID() string          { return "todoread" }
func (t *TodoReadTool) Description() string { return todoreadDescription }

func (t *TodoReadTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {},
		"required": []
	}`)
}

func (t *TodoReadTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var todos []types.TodoItem
	err := t.store.Get(ctx, todosKey, &todos)
	if err == storage.ErrNotFound {
		todos = []types.TodoItem{}
	} else if err != nil {
		return nil, fmt.Errorf("failed to get todos: %w", err)
	}

	output, _ := json.MarshalIndent(todos, "", "  ")
	return &Result{
		Title:    fmt.Sprintf("%d open todos", countOpen(todos)),
		Output:   string(output),
		Metadata: map[string]any{"count": len(todos)},
	}, nil
}

func countOpen(todos []types.TodoItem) int {
	open := 0
	for _, todo := range todos {
		if todo.Status != types.TodoCompleted {
			open++
		}
	}
	return open
}
