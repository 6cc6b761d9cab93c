package sandbox

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codecrew-ai/codecrew/internal/storage"
)

func TestCallLog_Record(t *testing.T) {
	log := NewCallLog()

	args := json.RawMessage(`{"path":"/proj/a.txt"}`)
	entry := log.Record("agent-1", "read", args, "file contents here", true)

	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())
	assert.Equal(t, "agent-1", entry.AgentID)
	assert.Equal(t, "read", entry.Tool)
	assert.Equal(t, "file contents here", entry.Preview)
	assert.True(t, entry.Success)

	require.Equal(t, 1, log.Len())
}

func TestCallLog_SanitizesLongFields(t *testing.T) {
	log := NewCallLog()

	longContent := strings.Repeat("x", 5000)
	args, err := json.Marshal(map[string]string{
		"path":    "/proj/big.txt",
		"content": longContent,
	})
	require.NoError(t, err)

	entry := log.Record("agent-1", "write", args, strings.Repeat("y", 5000), true)

	// Every string field in the logged arguments is clipped to 200 chars
	var logged map[string]string
	require.NoError(t, json.Unmarshal([]byte(entry.Arguments), &logged))
	assert.Equal(t, "/proj/big.txt", logged["path"])
	assert.Len(t, logged["content"], maxLoggedFieldLen)

	assert.Len(t, entry.Preview, maxLoggedFieldLen)
}

func TestCallLog_UnparseableArgs(t *testing.T) {
	log := NewCallLog()

	entry := log.Record("agent-1", "bash", json.RawMessage(`not json`), "out", false)
	assert.Equal(t, "not json", entry.Arguments)
	assert.False(t, entry.Success)
}

func TestCallLog_Stats(t *testing.T) {
	log := NewCallLog()

	log.Record("a1", "bash", json.RawMessage(`{"command":"ls"}`), "ok", true)
	log.Record("a1", "bash", json.RawMessage(`{"command":"pwd"}`), "ok", true)
	log.Record("a2", "read", json.RawMessage(`{"path":"x"}`), "Error: no such file", false)

	stats := log.Stats()
	assert.Equal(t, ToolStats{Calls: 2, Successes: 2}, stats["bash"])
	assert.Equal(t, ToolStats{Calls: 1, Successes: 0}, stats["read"])

	byAgent := log.StatsByAgent()
	assert.Equal(t, ToolStats{Calls: 2, Successes: 2}, byAgent["a1"])
	assert.Equal(t, ToolStats{Calls: 1, Successes: 0}, byAgent["a2"])
}

func TestCallLog_EntriesAreCopies(t *testing.T) {
	log := NewCallLog()
	log.Record("a1", "glob", json.RawMessage(`{"pattern":"*.go"}`), "main.go", true)

	entries := log.Entries()
	entries[0].Tool = "mutated"

	assert.Equal(t, "glob", log.Entries()[0].Tool)
}

func TestCallLog_Persist(t *testing.T) {
	log := NewCallLog()
	log.Record("a1", "bash", json.RawMessage(`{"command":"ls"}`), "ok", true)

	store := storage.New(t.TempDir())
	ctx := context.Background()
	require.NoError(t, log.Persist(ctx, store, "session-1"))

	assert.True(t, store.Exists(ctx, []string{"toollog", "session-1"}))
}

func TestCounter_Budget(t *testing.T) {
	c := NewCounter(2, 3)

	assert.Equal(t, 6, c.Ceiling())
	assert.False(t, c.Exhausted())

	c.BeginRound()
	for i := 0; i < 3; i++ {
		assert.True(t, c.RecordCall())
	}
	assert.False(t, c.Exhausted())

	c.BeginRound()
	for i := 0; i < 3; i++ {
		assert.True(t, c.RecordCall())
	}

	// Both the round bound and the call ceiling are now spent
	assert.True(t, c.Exhausted())
	assert.False(t, c.RecordCall())
	assert.Equal(t, 6, c.ToolCalls())
	assert.Equal(t, 2, c.Rounds())
}

func TestCounter_RoundBoundAlone(t *testing.T) {
	c := NewCounter(1, 10)

	c.BeginRound()
	assert.True(t, c.RecordCall())
	assert.True(t, c.Exhausted(), "round budget spent even with calls remaining")
}

func TestCounter_Defaults(t *testing.T) {
	c := NewCounter(0, 0)
	assert.Equal(t, DefaultMaxRounds*DefaultMaxToolCallsPerRound, c.Ceiling())
}
