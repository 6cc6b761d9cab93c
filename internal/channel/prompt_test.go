package channel

import (
	"strings"
	"testing"

	"github.com/codecrew-ai/codecrew/pkg/types"
)

func agentEntry(name, role, content string) types.TranscriptEntry {
	id := "agt_" + strings.ToLower(name)
	return types.TranscriptEntry{AuthorID: &id, AuthorName: name, Role: role, Content: content}
}

func userEntry(content string) types.TranscriptEntry {
	return types.TranscriptEntry{Role: "user", Content: content}
}

func TestBuildPrompt_FirstAgent(t *testing.T) {
	got := buildPrompt("add /health", nil, "Planner", "Architect", true)

	if !strings.HasPrefix(got, requestHeader+"\nadd /health") {
		t.Errorf("prompt does not open with the request section:\n%s", got)
	}
	if strings.Contains(got, responsesHeader) {
		t.Error("first agent's prompt must not carry a teammate section")
	}
	if !strings.Contains(got, assignmentHeader+"\nYou are Planner (Architect). ") {
		t.Errorf("assignment section missing or unattributed:\n%s", got)
	}
	if !strings.Contains(got, firstDirective) {
		t.Error("first agent should be told to go first with a plan")
	}
	if !strings.HasSuffix(got, toolsReminder) {
		t.Error("prompt should close with the tools reminder")
	}
}

func TestBuildPrompt_LaterAgent(t *testing.T) {
	window := []types.TranscriptEntry{
		userEntry("add /health"),
		agentEntry("Planner", "Architect", "the plan"),
		agentEntry("Builder", "Backend", "the build"),
	}
	got := buildPrompt("add /health", window, "Reviewer", "Reviewer", false)

	wantSection := responsesHeader + "\n--- Planner (Architect) ---\nthe plan\n\n--- Builder (Backend) ---\nthe build"
	if !strings.Contains(got, wantSection) {
		t.Errorf("teammate section malformed:\n%s", got)
	}
	if !strings.Contains(got, laterDirective) {
		t.Error("later agent should be told to build on teammates")
	}
	if strings.Contains(got, firstDirective) {
		t.Error("later agent must not get the go-first directive")
	}

	// Section order: request, responses, assignment.
	ri := strings.Index(got, requestHeader)
	ti := strings.Index(got, responsesHeader)
	ai := strings.Index(got, assignmentHeader)
	if !(ri < ti && ti < ai) {
		t.Errorf("sections out of order: request=%d responses=%d assignment=%d", ri, ti, ai)
	}
}

func TestBuildPrompt_SkipsEmptyTeammateSection(t *testing.T) {
	// A window holding only user turns contributes nothing; the header is
	// dropped rather than left dangling.
	window := []types.TranscriptEntry{userEntry("add /health")}
	got := buildPrompt("add /health", window, "Builder", "Backend", false)

	if strings.Contains(got, responsesHeader) {
		t.Errorf("empty teammate section should be omitted:\n%s", got)
	}
}

func TestTeammateSection_SkipsUserEntries(t *testing.T) {
	window := []types.TranscriptEntry{
		userEntry("first ask"),
		agentEntry("Planner", "Architect", "the plan"),
		userEntry("second ask"),
	}
	got := teammateSection(window)

	if strings.Contains(got, "first ask") || strings.Contains(got, "second ask") {
		t.Errorf("user turns leaked into the teammate section:\n%s", got)
	}
	if got != "--- Planner (Architect) ---\nthe plan" {
		t.Errorf("teammateSection = %q", got)
	}
}
