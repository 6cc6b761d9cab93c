package tool

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/codecrew-ai/codecrew/internal/sandbox"
)

const readDescription = `Reads a file from the local filesystem with 1-indexed line number prefixes.

Usage:
- The path may be absolute or relative to the working directory, and must stay inside the allowed directories
- By default the first 2000 lines are returned; use offset (1-indexed starting line) and limit to read further
- Lines longer than 2000 characters are clipped`

const (
	defaultReadLimit = 2000
	maxLineLength    = 2000
)

// ReadTool reads files inside the sandbox jail.
type ReadTool struct {
	policy *sandbox.Policy
}

// ReadInput is the input for the read tool.
type ReadInput struct {
	Path   string `json:"path"`
	Offset int    `json:"offset,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// NewReadTool creates a read tool bound to a sandbox policy.
func NewReadTool(policy *sandbox.Policy) *ReadTool {
	return &ReadTool{policy: policy}
}

func (t *ReadTool) ID() string          { return "read" }
func (t *ReadTool) Description() string { return readDescription }

func (t *ReadTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {
				"type": "string",
				"description": "The path to the file to read"
			},
			"offset": {
				"type": "integer",
				"description": "The 1-indexed line number to start reading from"
			},
			"limit": {
				"type": "integer",
				"description": "Maximum number of lines to read (default 2000)"
			}
		},
		"required": ["path"]
	}`)
}

func (t *ReadTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params ReadInput
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

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", params.Path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", params.Path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if isBinary(f) {
		return nil, fmt.Errorf("cannot read binary file: %s", params.Path)
	}

	startLine := params.Offset
	if startLine < 1 {
		startLine = 1
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultReadLimit
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var sb strings.Builder
	lineNum := 0
	read := 0
	truncated := false
	for scanner.Scan() {
		lineNum++
		if lineNum < startLine {
			continue
		}
		if read >= limit {
			truncated = true
			break
		}
		line := scanner.Text()
		if len(line) > maxLineLength {
			line = line[:maxLineLength] + "..."
		}
		sb.WriteString(fmt.Sprintf("%d: %s\n", lineNum, line))
		read++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	output := sb.String()
	if truncated {
		output += fmt.Sprintf("\n(File has more lines. Use 'offset' to read beyond line %d)", startLine+read-1)
	}

	return &Result{
		Title:  params.Path,
		Output: output,
		Metadata: map[string]any{
			"lines":     read,
			"truncated": truncated,
		},
	}, nil
}

// isBinary sniffs the first chunk for null bytes, then rewinds.
func isBinary(f *os.File) bool {
	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	defer f.Seek(0, 0)
	return bytes.IndexByte(buf[:n], 0) >= 0
}
