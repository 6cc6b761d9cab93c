package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/codecrew-ai/codecrew/internal/sandbox"
)

func TestGrepTool_Execute(t *testing.T) {
	policy, root := testPolicy(t)
	if err := os.WriteFile(filepath.Join(root, "main.go"),
		[]byte("package main\n\nfunc handler() {}\nfunc main() {}\n"), 0o644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	tool := NewGrepTool(policy)
	result := mustExecute(t, tool, `{"pattern": "func \\w+"}`, testContext(root))

	if !strings.Contains(result.Output, "main.go:3:func handler() {}") {
		t.Errorf("Matches should be file:line:content, got %q", result.Output)
	}
	if result.Metadata["count"] != 2 {
		t.Errorf("Expected 2 matches, got %v", result.Metadata["count"])
	}
}

func TestGrepTool_InvalidRegex(t *testing.T) {
	policy, root := testPolicy(t)
	tool := NewGrepTool(policy)

	result, err := tool.Execute(context.Background(),
		json.RawMessage(`{"pattern": "[unclosed"}`), testContext(root))
	if err != nil {
		t.Fatalf("A bad pattern is a result, not an error: %v", err)
	}
	if !strings.HasPrefix(result.Output, "Invalid regex") {
		t.Errorf("Output should start with 'Invalid regex', got %q", result.Output)
	}
}

func TestGrepTool_IncludeFilter(t *testing.T) {
	policy, root := testPolicy(t)
	seedFiles := map[string]string{
		"a.go":  "needle\n",
		"b.txt": "needle\n",
	}
	for name, content := range seedFiles {
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}

	tool := NewGrepTool(policy)
	result := mustExecute(t, tool, `{"pattern": "needle", "include": "*.go"}`, testContext(root))
	if !strings.Contains(result.Output, "a.go") || strings.Contains(result.Output, "b.txt") {
		t.Errorf("Include filter should restrict files, got %q", result.Output)
	}
}

func TestGrepTool_SkipsGitDir(t *testing.T) {
	policy, root := testPolicy(t)
	gitDir := filepath.Join(root, ".git")
	if err := os.MkdirAll(gitDir, 0o755); err != nil {
		t.Fatalf("Failed to create .git: %v", err)
	}
	if err := os.WriteFile(filepath.Join(gitDir, "config"), []byte("needle\n"), 0o644); err != nil {
		t.Fatalf("Failed to create git config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "code.go"), []byte("needle\n"), 0o644); err != nil {
		t.Fatalf("Failed to create code file: %v", err)
	}

	tool := NewGrepTool(policy)
	result := mustExecute(t, tool, `{"pattern": "needle"}`, testContext(root))
	if strings.Contains(result.Output, ".git") {
		t.Errorf(".git contents should be skipped, got %q", result.Output)
	}
	if !strings.Contains(result.Output, "code.go") {
		t.Errorf("Regular files should be searched, got %q", result.Output)
	}
}

func TestGrepTool_SkipsBinaryFiles(t *testing.T) {
	policy, root := testPolicy(t)
	if err := os.WriteFile(filepath.Join(root, "blob.bin"),
		[]byte("needle\x00needle\n"), 0o644); err != nil {
		t.Fatalf("Failed to create binary file: %v", err)
	}

	tool := NewGrepTool(policy)
	result := mustExecute(t, tool, `{"pattern": "needle"}`, testContext(root))
	if result.Output != "No matches found" {
		t.Errorf("Binary files should be skipped, got %q", result.Output)
	}
}

func TestGrepTool_CapsAt50(t *testing.T) {
	policy, root := testPolicy(t)
	var sb strings.Builder
	for i := 0; i < 80; i++ {
		fmt.Fprintf(&sb, "match line %d\n", i)
	}
	if err := os.WriteFile(filepath.Join(root, "big.txt"), []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	tool := NewGrepTool(policy)
	result := mustExecute(t, tool, `{"pattern": "match"}`, testContext(root))
	if result.Metadata["count"] != maxGrepMatches {
		t.Errorf("Expected %d matches, got %v", maxGrepMatches, result.Metadata["count"])
	}
	if !strings.Contains(result.Output, "(Showing first 50 matches)") {
		t.Errorf("Output should note the cap, got tail %q", result.Output[len(result.Output)-60:])
	}
}

func TestGrepTool_NoMatches(t *testing.T) {
	policy, root := testPolicy(t)
	tool := NewGrepTool(policy)

	result := mustExecute(t, tool, `{"pattern": "absent"}`, testContext(root))
	if result.Output != "No matches found" {
		t.Errorf("Unexpected no-match output %q", result.Output)
	}
}

func TestGrepTool_PathOutsideJail(t *testing.T) {
	policy, root := testPolicy(t)
	tool := NewGrepTool(policy)

	_, err := tool.Execute(context.Background(),
		json.RawMessage(`{"pattern": "x", "path": "/etc"}`), testContext(root))
	if !sandbox.IsBlocked(err) {
		t.Fatalf("Expected a sandbox block, got %v", err)
	}
}
