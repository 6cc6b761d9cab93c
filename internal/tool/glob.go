package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/codecrew-ai/codecrew/internal/sandbox"
)

const globDescription = `Finds files by glob pattern.

Usage:
- Supports patterns like "**/*.go" or "src/**/*.ts"
- Matches are returned relative to the searched directory, at most 100
- The optional path must stay inside the allowed directories`

const maxGlobMatches = 100

// GlobTool matches file patterns inside the sandbox jail.
type GlobTool struct {
	policy *sandbox.Policy
}

// GlobInput is the input for the glob tool.
type GlobInput struct {
	Pattern string `json:"pattern"`
	Path    string `json:"path,omitempty"`
}

// NewGlobTool creates a glob tool bound to a sandbox policy.
func NewGlobTool(policy *sandbox.Policy) *GlobTool {
	return &GlobTool{policy: policy}
}

func (t *GlobTool) ID() string          { return "glob" }
func (t *GlobTool) Description() string { return globDescription }

func (t *GlobTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"pattern": {
				"type": "string",
				"description": "The glob pattern to match files against"
			},
			"path": {
				"type": "string",
				"description": "Directory to search in (default: working directory)"
			}
		},
		"required": ["pattern"]
	}`)
}

func (t *GlobTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params GlobInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if params.Pattern == "" {
		return nil, fmt.Errorf("pattern is required")
	}

	searchDir, err := t.searchDir(params.Path, toolCtx)
	if err != nil {
		return nil, err
	}

	matches, err := doublestar.Glob(os.DirFS(searchDir), params.Pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern: %w", err)
	}

	truncated := false
	if len(matches) > maxGlobMatches {
		matches = matches[:maxGlobMatches]
		truncated = true
	}

	if len(matches) == 0 {
		return &Result{
			Title:    "No matches",
			Output:   "No files matched the pattern",
			Metadata: map[string]any{"pattern": params.Pattern, "count": 0},
		}, nil
	}

	output := strings.Join(matches, "\n")
	if truncated {
		output += fmt.Sprintf("\n\n(Showing first %d matches)", maxGlobMatches)
	}

	return &Result{
		Title:  fmt.Sprintf("Found %d files", len(matches)),
		Output: output,
		Metadata: map[string]any{
			"pattern":   params.Pattern,
			"count":     len(matches),
			"truncated": truncated,
		},
	}, nil
}

func (t *GlobTool) searchDir(path string, toolCtx *Context) (string, error) {
	workDir := ""
	if toolCtx != nil {
		workDir = toolCtx.WorkDir
	}
	if path == "" {
		if workDir != "" {
			return workDir, nil
		}
		return t.policy.ProjectRoot, nil
	}
	return t.policy.ValidatePath(path, workDir)
}
