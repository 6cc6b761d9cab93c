package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/codecrew-ai/codecrew/internal/event"
	"github.com/codecrew-ai/codecrew/internal/sandbox"
)

const editDescription = `Performs exact string replacements in a file.

Usage:
- oldString must match the file content exactly, including whitespace
- Without replaceAll, oldString must occur exactly once
- With replaceAll, every occurrence is replaced`

// EditTool edits files inside the sandbox jail.
type EditTool struct {
	policy *sandbox.Policy
}

// EditInput is the input for the edit tool.
type EditInput struct {
	Path       string `json:"path"`
	OldString  string `json:"oldString"`
	NewString  string `json:"newString"`
	ReplaceAll bool   `json:"replaceAll,omitempty"`
}

// NewEditTool creates an edit tool bound to a sandbox policy.
func NewEditTool(policy *sandbox.Policy) *EditTool {
	return &EditTool{policy: policy}
}

func (t *EditTool) ID() string          { return "edit" }
func (t *EditTool) Description() string { return editDescription }

func (t *EditTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {
				"type": "string",
				"description": "The path of the file to edit"
			},
			"oldString": {
				"type": "string",
				"description": "The exact text to replace"
			},
			"newString": {
				"type": "string",
				"description": "The text to replace it with"
			},
			"replaceAll": {
				"type": "boolean",
				"description": "Replace every occurrence (default: false)"
			}
		},
		"required": ["path", "oldString", "newString"]
	}`)
}

func (t *EditTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params EditInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	if params.OldString == params.NewString {
		return nil, fmt.Errorf("oldString and newString must be different")
	}

	workDir := ""
	if toolCtx != nil {
		workDir = toolCtx.WorkDir
	}
	path, err := t.policy.ValidatePath(params.Path, workDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	text := string(data)

	var newText string
	var count int
	if params.ReplaceAll {
		// The old string becomes a regex with its metacharacters escaped, so
		// the match is still literal.
		re := regexp.MustCompile(regexp.QuoteMeta(params.OldString))
		count = len(re.FindAllStringIndex(text, -1))
		if count == 0 {
			return nil, fmt.Errorf("oldString not found in file")
		}
		newText = re.ReplaceAllLiteralString(text, params.NewString)
	} else {
		count = strings.Count(text, params.OldString)
		if count == 0 {
			return nil, fmt.Errorf("oldString not found in file")
		}
		if count > 1 {
			return nil, fmt.Errorf("oldString appears %d times in file; provide more context or use replaceAll", count)
		}
		newText = strings.Replace(text, params.OldString, params.NewString, 1)
	}

	if err := os.WriteFile(path, []byte(newText), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	diff, additions, deletions := unifiedDiff(path, text, newText, t.policy.ProjectRoot)
	event.Publish(event.Event{
		Type: event.FileEdited,
		Data: event.FileEditedData{File: path, Diff: diff},
	})

	return &Result{
		Title:  fmt.Sprintf("Edited %s", filepath.Base(path)),
		Output: fmt.Sprintf("Replaced %d occurrence(s)", count),
		Metadata: map[string]any{
			"file":      path,
			"additions": additions,
			"deletions": deletions,
			"diff":      diff,
		},
	}, nil
}
