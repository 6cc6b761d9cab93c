package channel

import (
	"sync"
	"time"

	"github.com/codecrew-ai/codecrew/pkg/types"
)

// Transcript is the team's shared conversation record. Every broadcast
// appends the user's turn and then each agent's reply or error line in
// dispatch order. Later agents read earlier entries through the prompt
// window; hosts read the whole thing for rendering.
type Transcript struct {
	mu      sync.RWMutex
	entries []types.TranscriptEntry
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// AppendUser records the user's turn. User entries carry no author id.
func (t *Transcript) AppendUser(content string) {
	t.append(types.TranscriptEntry{
		Role:      "user",
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
}

// AppendAgent records one agent's reply or error line.
func (t *Transcript) AppendAgent(id, name, role, content string) {
	t.append(types.TranscriptEntry{
		AuthorID:   &id,
		AuthorName: name,
		Role:       role,
		Content:    content,
		Timestamp:  time.Now().UTC(),
	})
}

func (t *Transcript) append(e types.TranscriptEntry) {
	t.mu.Lock()
	t.entries = append(t.entries, e)
	t.mu.Unlock()
}

// Entries returns a copy of the transcript in append order.
func (t *Transcript) Entries() []types.TranscriptEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]types.TranscriptEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Window returns a copy of the last n entries, oldest first.
func (t *Transcript) Window(n int) []types.TranscriptEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	start := len(t.entries) - n
	if start < 0 {
		start = 0
	}
	out := make([]types.TranscriptEntry, len(t.entries)-start)
	copy(out, t.entries[start:])
	return out
}
