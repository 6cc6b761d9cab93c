package team

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codecrew-ai/codecrew/internal/event"
	"github.com/codecrew-ai/codecrew/pkg/types"
)

func TestWatcher_PublishesChanges(t *testing.T) {
	event.Reset()
	t.Cleanup(event.Reset)

	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("NewWatcher() error: %v", err)
	}
	w.Start()
	t.Cleanup(w.Stop)

	updated := make(chan string, 4)
	deleted := make(chan string, 4)
	unsubU := event.Subscribe(event.TeamUpdated, func(e event.Event) {
		if d, ok := e.Data.(event.TeamUpdatedData); ok {
			updated <- d.Name
		}
	})
	defer unsubU()
	unsubD := event.Subscribe(event.TeamDeleted, func(e event.Event) {
		if d, ok := e.Data.(event.TeamDeletedData); ok {
			deleted <- d.Name
		}
	})
	defer unsubD()

	rec := record{Name: "Squad", Agents: []types.AgentConfig{{Name: "Solo", Provider: types.ProviderGrok}}}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "Squad.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	// The write burst debounces into one update carrying the display name.
	select {
	case name := <-updated:
		if name != "Squad" {
			t.Errorf("update event for %q, want Squad", name)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no team.updated event after writing a record")
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	select {
	case name := <-deleted:
		if name != "Squad" {
			t.Errorf("delete event for %q, want Squad", name)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no team.deleted event after removing a record")
	}
}

func TestWatcher_IgnoresNonRecords(t *testing.T) {
	event.Reset()
	t.Cleanup(event.Reset)

	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("NewWatcher() error: %v", err)
	}
	w.Start()
	t.Cleanup(w.Stop)

	updated := make(chan string, 1)
	unsub := event.Subscribe(event.TeamUpdated, func(e event.Event) {
		if d, ok := e.Data.(event.TeamUpdatedData); ok {
			updated <- d.Name
		}
	})
	defer unsub()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("scratch"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case name := <-updated:
		t.Errorf("unexpected team.updated for %q from a non-record file", name)
	case <-time.After(600 * time.Millisecond):
	}
}
