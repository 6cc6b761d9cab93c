package tool

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/codecrew-ai/codecrew/internal/sandbox"
	"github.com/codecrew-ai/codecrew/internal/storage"
)

func TestNewDefault_RegistersBuiltins(t *testing.T) {
	policy := sandbox.DefaultPolicy(t.TempDir())
	registry := NewDefault(policy, storage.New(t.TempDir()))

	want := []string{"bash", "edit", "glob", "grep", "read", "todoread", "todowrite", "webfetch", "write"}
	got := registry.IDs()
	if len(got) != len(want) {
		t.Fatalf("Expected %d tools, got %v", len(want), got)
	}
	for i, id := range want {
		if got[i] != id {
			t.Errorf("Expected tool %q at position %d, got %q", id, i, got[i])
		}
	}
}

func TestRegistry_Get(t *testing.T) {
	policy := sandbox.DefaultPolicy(t.TempDir())
	registry := NewDefault(policy, storage.New(t.TempDir()))

	if _, ok := registry.Get("bash"); !ok {
		t.Error("bash should be registered")
	}
	if _, ok := registry.Get("teleport"); ok {
		t.Error("Unknown tools should not resolve")
	}
}

func TestRegistry_Definitions(t *testing.T) {
	policy := sandbox.DefaultPolicy(t.TempDir())
	registry := NewDefault(policy, storage.New(t.TempDir()))

	defs := registry.Definitions()
	if len(defs) != len(registry.IDs()) {
		t.Fatalf("Expected one definition per tool, got %d", len(defs))
	}
	if !sort.SliceIsSorted(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name }) {
		t.Error("Definitions should be sorted by name")
	}
	for _, def := range defs {
		if def.Description == "" {
			t.Errorf("Tool %q should have a description", def.Name)
		}
		var schema map[string]any
		if err := json.Unmarshal(def.Parameters, &schema); err != nil {
			t.Errorf("Tool %q parameters should be valid JSON: %v", def.Name, err)
		}
		if schema["type"] != "object" {
			t.Errorf("Tool %q schema should be an object schema", def.Name)
		}
	}
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	registry := NewRegistry()
	registry.Register(noisyTool{})
	registry.Register(noisyTool{})

	if len(registry.IDs()) != 1 {
		t.Errorf("Re-registering the same ID should replace, got %v", registry.IDs())
	}
}
