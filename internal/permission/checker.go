package permission

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/codecrew-ai/codecrew/internal/event"
)

// Checker is the interactive Gateway: Ask publishes a permission.required
// event and blocks until the host calls Resolve with the same request ID.
// "always" grants are remembered per tool for the life of the checker.
type Checker struct {
	mu       sync.RWMutex
	approved map[string]bool          // tool -> approved for the session
	pending  map[string]chan Decision // requestID -> decision channel
}

// Decision is the host's answer to a permission request.
type Decision struct {
	RequestID string `json:"requestId"`
	Action    string `json:"action"` // "once" | "always" | "reject"
}

// NewChecker creates an interactive permission checker.
func NewChecker() *Checker {
	return &Checker{
		approved: make(map[string]bool),
		pending:  make(map[string]chan Decision),
	}
}

// Ask blocks until the host decides. Context cancellation denies.
func (c *Checker) Ask(ctx context.Context, req Request) bool {
	c.mu.RLock()
	alreadyApproved := c.approved[req.Tool]
	c.mu.RUnlock()
	if alreadyApproved {
		return true
	}

	if req.ID == "" {
		req.ID = ulid.Make().String()
	}

	decisionCh := make(chan Decision, 1)
	c.mu.Lock()
	c.pending[req.ID] = decisionCh
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
	}()

	event.Publish(event.Event{
		Type: event.PermissionRequired,
		Data: event.PermissionRequiredData{
			ID:      req.ID,
			Tool:    req.Tool,
			Details: Summarize(req),
		},
	})

	select {
	case <-ctx.Done():
		return false
	case decision := <-decisionCh:
		switch decision.Action {
		case "once":
			return true
		case "always":
			c.mu.Lock()
			c.approved[req.Tool] = true
			c.mu.Unlock()
			return true
		default:
			return false
		}
	}
}

// Resolve delivers the host's decision for a pending request and publishes
// permission.resolved. Unknown IDs are ignored.
func (c *Checker) Resolve(requestID, action string) {
	c.mu.RLock()
	ch, ok := c.pending[requestID]
	c.mu.RUnlock()

	if ok {
		ch <- Decision{RequestID: requestID, Action: action}
	}

	event.Publish(event.Event{
		Type: event.PermissionResolved,
		Data: event.PermissionResolvedData{
			ID:      requestID,
			Granted: action == "once" || action == "always",
		},
	})
}

// Summarize renders a request's details for display: the command and
// workdir for bash, the file path for write/edit, the URL for webfetch.
func Summarize(req Request) string {
	if len(req.Details) == 0 {
		return req.Title
	}

	keys := make([]string, 0, len(req.Details))
	for k := range req.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, formatDetail(req.Details[k])))
	}
	return strings.Join(parts, " ")
}

func formatDetail(v any) string {
	switch val := v.(type) {
	case string:
		if len(val) > 120 {
			return val[:120] + "…"
		}
		return val
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
