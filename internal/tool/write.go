package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/codecrew-ai/codecrew/internal/event"
	"github.com/codecrew-ai/codecrew/internal/sandbox"
)

const writeDescription = `Writes a file to the local filesystem, creating parent directories as needed.

Usage:
- The path must stay inside the allowed directories
- Overwrites the file if it already exists
- Prefer the edit tool for partial changes to existing files`

// WriteTool writes files inside the sandbox jail.
type WriteTool struct {
	policy *sandbox.Policy
}

// WriteInput is the input for the write tool.
type WriteInput struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// NewWriteTool creates a write tool bound to a sandbox policy.
func NewWriteTool(policy *sandbox.Policy) *WriteTool {
	return &WriteTool{policy: policy}
}

func (t *WriteTool) ID() string          { return "write" }
func (t *WriteTool) Description() string { return writeDescription }

func (t *WriteTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {
				"type": "string",
				"description": "The path of the file to write"
			},
			"content": {
				"type": "string",
				"description": "The content to write to the file"
			}
		},
		"required": ["path", "content"]
	}`)
}

func (t *WriteTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params WriteInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	workDir := ""
	if toolCtx != nil {
		workDir = toolCtx.WorkDir
	}
	path, err := t.policy.ValidatePath(params.Path, workDir)
	if err != nil {
		return nil, err
	}

	before := ""
	if data, err := os.ReadFile(path); err == nil {
		before = string(data)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(params.Content), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	diff, additions, deletions := unifiedDiff(path, before, params.Content, t.policy.ProjectRoot)
	event.Publish(event.Event{
		Type: event.FileEdited,
		Data: event.FileEditedData{File: path, Diff: diff},
	})

	return &Result{
		Title:  fmt.Sprintf("Wrote %s", filepath.Base(path)),
		Output: "File written successfully",
		Metadata: map[string]any{
			"file":      path,
			"bytes":     len(params.Content),
			"additions": additions,
			"deletions": deletions,
			"diff":      diff,
		},
	}, nil
}
