package tool

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/codecrew-ai/codecrew/internal/sandbox"
)

const grepDescription = `Searches file contents with a regular expression.

Usage:
- Full Go regexp syntax (e.g. "func\\s+\\w+", "TODO.*auth")
- Filter files with include (e.g. "*.go", "**/*.ts")
- Returns at most 50 matches as file:line:content; unreadable files are skipped`

const maxGrepMatches = 50

// GrepTool searches file contents inside the sandbox jail.
type GrepTool struct {
	policy *sandbox.Policy
}

// GrepInput is the input for the grep tool.
type GrepInput struct {
	Pattern string `json:"pattern"`
	Path    string `json:"path,omitempty"`
	Include string `json:"include,omitempty"`
}

// NewGrepTool creates a grep tool bound to a sandbox policy.
func NewGrepTool(policy *sandbox.Policy) *GrepTool {
	return &GrepTool{policy: policy}
}

func (t *GrepTool) ID() string          { return "grep" }
func (t *GrepTool) Description() string { return grepDescription }

func (t *GrepTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"pattern": {
				"type": "string",
				"description": "The regex pattern to search for in file contents"
			},
			"path": {
				"type": "string",
				"description": "Directory to search in (default: working directory)"
			},
			"include": {
				"type": "string",
				"description": "File pattern to include (e.g. \"*.go\")"
			}
		},
		"required": ["pattern"]
	}`)
}

func (t *GrepTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params GrepInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	re, err := regexp.Compile(params.Pattern)
	if err != nil {
		// A bad pattern is a result the model can correct, not a failure.
		return &Result{
			Title:    "Invalid regex",
			Output:   fmt.Sprintf("Invalid regex: %v", err),
			Metadata: map[string]any{"pattern": params.Pattern},
		}, nil
	}

	searchDir, err := t.searchDir(params.Path, toolCtx)
	if err != nil {
		return nil, err
	}

	var matches []string
	walkErr := filepath.WalkDir(searchDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return fs.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(searchDir, path)
		if err != nil {
			rel = path
		}
		if params.Include != "" && !matchesInclude(params.Include, rel) {
			return nil
		}

		found, err := t.searchFile(re, path, rel, maxGrepMatches-len(matches))
		if err != nil {
			return nil
		}
		matches = append(matches, found...)
		if len(matches) >= maxGrepMatches {
			return fs.SkipAll
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("search failed: %w", walkErr)
	}

	if len(matches) == 0 {
		return &Result{
			Title:    "No matches",
			Output:   "No matches found",
			Metadata: map[string]any{"pattern": params.Pattern, "count": 0},
		}, nil
	}

	output := strings.Join(matches, "\n")
	if len(matches) >= maxGrepMatches {
		output += fmt.Sprintf("\n\n(Showing first %d matches)", maxGrepMatches)
	}

	return &Result{
		Title:  fmt.Sprintf("Found %d matches", len(matches)),
		Output: output,
		Metadata: map[string]any{
			"pattern": params.Pattern,
			"count":   len(matches),
		},
	}, nil
}

func (t *GrepTool) searchDir(path string, toolCtx *Context) (string, error) {
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

// searchFile scans one file for pattern matches, at most limit of them.
// Binary files are skipped by a null-byte sniff on the first line.
func (t *GrepTool) searchFile(re *regexp.Regexp, path, rel string, limit int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var found []string
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if lineNum == 1 && strings.ContainsRune(line, '\x00') {
			return nil, nil
		}
		if re.MatchString(line) {
			found = append(found, fmt.Sprintf("%s:%d:%s", rel, lineNum, line))
			if len(found) >= limit {
				break
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return found, nil
}

// matchesInclude applies the include filter to a file's base name first,
// then to its path relative to the search directory.
func matchesInclude(include, rel string) bool {
	if ok, err := doublestar.Match(include, filepath.Base(rel)); err == nil && ok {
		return true
	}
	ok, err := doublestar.Match(include, filepath.ToSlash(rel))
	return err == nil && ok
}
