package tool

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/codecrew-ai/codecrew/internal/sandbox"
)

// testPolicy returns a default policy jailed to a fresh temp dir, plus the
// canonicalized root to build paths from.
func testPolicy(t *testing.T) (*sandbox.Policy, string) {
	t.Helper()
	policy := sandbox.DefaultPolicy(t.TempDir())
	return policy, policy.ProjectRoot
}

func testContext(workDir string) *Context {
	return &Context{
		AgentID:   "agent-1",
		AgentName: "Tester",
		CallID:    "call-1",
		WorkDir:   workDir,
	}
}

func mustExecute(t *testing.T, tl Tool, input string, toolCtx *Context) *Result {
	t.Helper()
	res, err := tl.Execute(context.Background(), json.RawMessage(input), toolCtx)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	return res
}
