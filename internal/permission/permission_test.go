package permission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codecrew-ai/codecrew/internal/event"
)

func TestAutoAllow(t *testing.T) {
	var gw Gateway = AutoAllow{}
	assert.True(t, gw.Ask(context.Background(), Request{Tool: "bash"}))
	assert.True(t, gw.Ask(context.Background(), Request{Tool: "write"}))
}

func TestGatewayFunc(t *testing.T) {
	denyBash := GatewayFunc(func(_ context.Context, req Request) bool {
		return req.Tool != "bash"
	})

	assert.False(t, denyBash.Ask(context.Background(), Request{Tool: "bash"}))
	assert.True(t, denyBash.Ask(context.Background(), Request{Tool: "read"}))
}

func TestRequiresApproval(t *testing.T) {
	assert.True(t, RequiresApproval("bash"))
	assert.True(t, RequiresApproval("write"))
	assert.True(t, RequiresApproval("edit"))
	assert.True(t, RequiresApproval("mcp_calc_sum"))
	assert.False(t, RequiresApproval("read"))
	assert.False(t, RequiresApproval("glob"))
	assert.False(t, RequiresApproval("grep"))
}

func TestDeniedResult(t *testing.T) {
	assert.Equal(t, "Permission denied by user for bash", DeniedResult("bash"))
}

// resolveNext answers the next permission.required event with the given
// action, emulating a host's prompt handler.
func resolveNext(t *testing.T, checker *Checker, action string) func() {
	t.Helper()
	return event.Subscribe(event.PermissionRequired, func(evt event.Event) {
		data, ok := evt.Data.(event.PermissionRequiredData)
		if !ok {
			return
		}
		checker.Resolve(data.ID, action)
	})
}

func TestChecker_ResolveOnce(t *testing.T) {
	event.Reset()
	defer event.Reset()

	checker := NewChecker()
	prompts := 0
	unsubscribe := event.Subscribe(event.PermissionRequired, func(evt event.Event) {
		data, ok := evt.Data.(event.PermissionRequiredData)
		if !ok {
			return
		}
		prompts++
		checker.Resolve(data.ID, "once")
	})
	defer unsubscribe()

	assert.True(t, checker.Ask(context.Background(), Request{Tool: "bash", Title: "ls -la"}))

	// "once" does not create a standing grant: the same tool prompts again
	assert.True(t, checker.Ask(context.Background(), Request{Tool: "bash", Title: "ls -la"}))
	assert.Equal(t, 2, prompts)
}

func TestChecker_ResolveAlways(t *testing.T) {
	event.Reset()
	defer event.Reset()

	checker := NewChecker()
	unsubscribe := resolveNext(t, checker, "always")
	defer unsubscribe()

	assert.True(t, checker.Ask(context.Background(), Request{Tool: "write", Title: "write a.txt"}))

	// The standing grant answers later asks without prompting. With the
	// resolver gone, an unapproved ask would block until the deadline.
	unsubscribe()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.True(t, checker.Ask(ctx, Request{Tool: "write", Title: "write b.txt"}))
}

func TestChecker_Reject(t *testing.T) {
	event.Reset()
	defer event.Reset()

	checker := NewChecker()
	unsubscribe := resolveNext(t, checker, "reject")
	defer unsubscribe()

	assert.False(t, checker.Ask(context.Background(), Request{Tool: "bash", Title: "rm file"}))
}

func TestChecker_ContextCancelDenies(t *testing.T) {
	event.Reset()
	defer event.Reset()

	checker := NewChecker()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	assert.False(t, checker.Ask(ctx, Request{Tool: "edit", Title: "edit main.go"}))
}

func TestChecker_ResolveUnknownIDIsNoop(t *testing.T) {
	event.Reset()
	defer event.Reset()

	checker := NewChecker()
	checker.Resolve("nonexistent", "once") // must not panic or block
}

func TestSummarize(t *testing.T) {
	req := Request{
		Tool:  "bash",
		Title: "run tests",
		Details: map[string]any{
			"command": "go test ./...",
			"workdir": "/proj",
		},
	}

	summary := Summarize(req)
	assert.Contains(t, summary, "command=go test ./...")
	assert.Contains(t, summary, "workdir=/proj")

	// Falls back to the title without details
	assert.Equal(t, "run tests", Summarize(Request{Title: "run tests"}))
}

func TestSummarize_ClipsLongValues(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'a'
	}

	summary := Summarize(Request{
		Tool:    "write",
		Details: map[string]any{"content": string(long)},
	})
	require.Less(t, len(summary), 200)
}
