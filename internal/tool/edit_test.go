package tool

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return path
}

func editInput(path, old, new string, replaceAll bool) string {
	input, _ := json.Marshal(EditInput{Path: path, OldString: old, NewString: new, ReplaceAll: replaceAll})
	return string(input)
}

func TestEditTool_Execute(t *testing.T) {
	policy, root := testPolicy(t)
	path := writeTestFile(t, root, "main.go", "package main\n\nfunc run() {}\n")

	tool := NewEditTool(policy)
	result := mustExecute(t, tool, editInput(path, "func run()", "func start()", false), testContext(root))

	if result.Output != "Replaced 1 occurrence(s)" {
		t.Errorf("Unexpected status string %q", result.Output)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "func start() {}") {
		t.Errorf("File should contain the replacement, got %q", data)
	}
}

func TestEditTool_NotFound(t *testing.T) {
	policy, root := testPolicy(t)
	path := writeTestFile(t, root, "f.txt", "content\n")

	tool := NewEditTool(policy)
	_, err := tool.Execute(context.Background(),
		json.RawMessage(editInput(path, "absent", "x", false)), testContext(root))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected a not-found error, got %v", err)
	}
}

func TestEditTool_AmbiguousWithoutReplaceAll(t *testing.T) {
	policy, root := testPolicy(t)
	path := writeTestFile(t, root, "f.txt", "dup\ndup\n")

	tool := NewEditTool(policy)
	_, err := tool.Execute(context.Background(),
		json.RawMessage(editInput(path, "dup", "x", false)), testContext(root))
	if err == nil || !strings.Contains(err.Error(), "2 times") {
		t.Errorf("Expected an ambiguity error, got %v", err)
	}
}

func TestEditTool_ReplaceAll(t *testing.T) {
	policy, root := testPolicy(t)
	path := writeTestFile(t, root, "f.txt", "a\nb\na\nc\na\n")

	tool := NewEditTool(policy)
	result := mustExecute(t, tool, editInput(path, "a", "z", true), testContext(root))

	if result.Output != "Replaced 3 occurrence(s)" {
		t.Errorf("Unexpected status string %q", result.Output)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "z\nb\nz\nc\nz\n" {
		t.Errorf("All occurrences should be replaced, got %q", data)
	}
}

func TestEditTool_ReplaceAllEscapesMetacharacters(t *testing.T) {
	policy, root := testPolicy(t)
	path := writeTestFile(t, root, "f.txt", "a.b\naxb\na.b\n")

	tool := NewEditTool(policy)
	result := mustExecute(t, tool, editInput(path, "a.b", "Z", true), testContext(root))

	// "a.b" must match literally, not as a regex, so "axb" stays untouched.
	if result.Output != "Replaced 2 occurrence(s)" {
		t.Errorf("Metacharacters should be escaped, got %q", result.Output)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "Z\naxb\nZ\n" {
		t.Errorf("Near-miss line should survive, got %q", data)
	}
}

func TestEditTool_ReplacementDollarIsLiteral(t *testing.T) {
	policy, root := testPolicy(t)
	path := writeTestFile(t, root, "f.sh", "price=VALUE\ncost=VALUE\n")

	tool := NewEditTool(policy)
	mustExecute(t, tool, editInput(path, "VALUE", "$1total", true), testContext(root))

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "price=$1total") {
		t.Errorf("Replacement $ must stay literal, got %q", data)
	}
}

func TestEditTool_SameStringsRejected(t *testing.T) {
	policy, root := testPolicy(t)
	path := writeTestFile(t, root, "f.txt", "x\n")

	tool := NewEditTool(policy)
	_, err := tool.Execute(context.Background(),
		json.RawMessage(editInput(path, "x", "x", false)), testContext(root))
	if err == nil || !strings.Contains(err.Error(), "different") {
		t.Errorf("Expected a must-be-different error, got %v", err)
	}
}

func TestEditTool_MissingFile(t *testing.T) {
	policy, root := testPolicy(t)
	tool := NewEditTool(policy)

	_, err := tool.Execute(context.Background(),
		json.RawMessage(editInput(filepath.Join(root, "no.txt"), "a", "b", false)), testContext(root))
	if err == nil {
		t.Error("Expected an error for a missing file")
	}
}
