package tool

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codecrew-ai/codecrew/internal/event"
	"github.com/codecrew-ai/codecrew/internal/sandbox"
)

func TestWriteTool_Execute(t *testing.T) {
	policy, root := testPolicy(t)
	target := filepath.Join(root, "out.txt")

	tool := NewWriteTool(policy)
	result := mustExecute(t, tool, `{"path": "`+target+`", "content": "hello\n"}`, testContext(root))

	if result.Output != "File written successfully" {
		t.Errorf("Expected the fixed success string, got %q", result.Output)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("File should exist: %v", err)
	}
	if string(data) != "hello\n" {
		t.Errorf("Unexpected file content %q", data)
	}
}

func TestWriteTool_CreatesParents(t *testing.T) {
	policy, root := testPolicy(t)
	target := filepath.Join(root, "a", "b", "c", "deep.txt")

	tool := NewWriteTool(policy)
	mustExecute(t, tool, `{"path": "`+target+`", "content": "x"}`, testContext(root))

	if _, err := os.Stat(target); err != nil {
		t.Errorf("Parent directories should be auto-created: %v", err)
	}
}

func TestWriteTool_OutsideJailBlocked(t *testing.T) {
	policy, root := testPolicy(t)
	tool := NewWriteTool(policy)

	input := `{"path": "/etc/codecrew-test.txt", "content": "nope"}`
	_, err := tool.Execute(context.Background(), json.RawMessage(input), testContext(root))
	if !sandbox.IsBlocked(err) {
		t.Fatalf("Expected a sandbox block, got %v", err)
	}
}

func TestWriteTool_Overwrite(t *testing.T) {
	policy, root := testPolicy(t)
	target := filepath.Join(root, "file.txt")
	if err := os.WriteFile(target, []byte("old content\n"), 0o644); err != nil {
		t.Fatalf("Failed to seed file: %v", err)
	}

	tool := NewWriteTool(policy)
	result := mustExecute(t, tool, `{"path": "`+target+`", "content": "new content\n"}`, testContext(root))

	data, _ := os.ReadFile(target)
	if string(data) != "new content\n" {
		t.Errorf("File should be overwritten, got %q", data)
	}
	if result.Metadata["additions"] != 1 || result.Metadata["deletions"] != 1 {
		t.Errorf("Expected 1 addition and 1 deletion, got %v/%v",
			result.Metadata["additions"], result.Metadata["deletions"])
	}
}

func TestWriteTool_PublishesFileEdited(t *testing.T) {
	policy, root := testPolicy(t)
	target := filepath.Join(root, "evt.txt")

	var mu sync.Mutex
	var got event.FileEditedData
	done := make(chan struct{})
	unsubscribe := event.Subscribe(event.FileEdited, func(evt event.Event) {
		mu.Lock()
		defer mu.Unlock()
		if data, ok := evt.Data.(event.FileEditedData); ok {
			got = data
			select {
			case <-done:
			default:
				close(done)
			}
		}
	})
	defer unsubscribe()

	tool := NewWriteTool(policy)
	mustExecute(t, tool, `{"path": "`+target+`", "content": "tracked\n"}`, testContext(root))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("file.edited event was not published")
	}

	mu.Lock()
	defer mu.Unlock()
	if got.File != target {
		t.Errorf("Event should carry the file path, got %q", got.File)
	}
	if !strings.Contains(got.Diff, "+") {
		t.Errorf("Event diff should show the addition, got %q", got.Diff)
	}
}
