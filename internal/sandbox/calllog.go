package sandbox

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/codecrew-ai/codecrew/internal/event"
	"github.com/codecrew-ai/codecrew/internal/storage"
	"github.com/codecrew-ai/codecrew/pkg/types"
)

// maxLoggedFieldLen caps every content-bearing field in a log entry.
const maxLoggedFieldLen = 200

// CallLog is the append-only record of every tool invocation in the
// process. It is never part of any agent's conversation context.
type CallLog struct {
	mu      sync.RWMutex
	entries []types.ToolCallRecord
}

// NewCallLog returns an empty log.
func NewCallLog() *CallLog {
	return &CallLog{}
}

// Record appends one entry with sanitized arguments and a clipped result
// preview, and publishes a tool.executed event.
func (l *CallLog) Record(agentID, toolName string, args json.RawMessage, result string, success bool) types.ToolCallRecord {
	entry := types.ToolCallRecord{
		ID:        ulid.Make().String(),
		Timestamp: time.Now().UTC(),
		AgentID:   agentID,
		Tool:      toolName,
		Arguments: SanitizeArgs(args),
		Preview:   clip(result, maxLoggedFieldLen),
		Success:   success,
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()

	event.Publish(event.Event{
		Type: event.ToolExecuted,
		Data: event.ToolExecutedData{Record: entry},
	})

	return entry
}

// Entries returns a copy of the log in append order.
func (l *CallLog) Entries() []types.ToolCallRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]types.ToolCallRecord, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of recorded calls.
func (l *CallLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// ToolStats summarizes usage of one tool.
type ToolStats struct {
	Calls     int `json:"calls"`
	Successes int `json:"successes"`
}

// Stats aggregates the log per tool name.
func (l *CallLog) Stats() map[string]ToolStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := make(map[string]ToolStats)
	for _, e := range l.entries {
		s := stats[e.Tool]
		s.Calls++
		if e.Success {
			s.Successes++
		}
		stats[e.Tool] = s
	}
	return stats
}

// StatsByAgent aggregates the log per agent id.
func (l *CallLog) StatsByAgent() map[string]ToolStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := make(map[string]ToolStats)
	for _, e := range l.entries {
		s := stats[e.AgentID]
		s.Calls++
		if e.Success {
			s.Successes++
		}
		stats[e.AgentID] = s
	}
	return stats
}

// Persist writes the log under toollog/{sessionID} in the given store.
func (l *CallLog) Persist(ctx context.Context, store *storage.Storage, sessionID string) error {
	return store.Put(ctx, []string{"toollog", sessionID}, l.Entries())
}

// SanitizeArgs renders tool arguments for logging and events with every
// string field clipped, so file contents and command output never bloat
// the log. The team channel uses it for tool-call event payloads.
func SanitizeArgs(args json.RawMessage) string {
	var fields map[string]any
	if err := json.Unmarshal(args, &fields); err != nil {
		return clip(string(args), maxLoggedFieldLen)
	}

	for k, v := range fields {
		if s, ok := v.(string); ok {
			fields[k] = clip(s, maxLoggedFieldLen)
		}
	}

	out, err := json.Marshal(fields)
	if err != nil {
		return clip(string(args), maxLoggedFieldLen)
	}
	return string(out)
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
