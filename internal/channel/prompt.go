package channel

import (
	"fmt"
	"strings"

	"github.com/codecrew-ai/codecrew/pkg/types"
)

// transcriptWindow caps how many trailing transcript entries can feed the
// teammate section. Older context silently falls off.
const transcriptWindow = 50

// Section labels of the per-agent broadcast prompt.
const (
	requestHeader    = "== USER REQUEST =="
	responsesHeader  = "== TEAMMATE RESPONSES =="
	assignmentHeader = "== YOUR ASSIGNMENT =="
)

const (
	firstDirective = "You go first: produce a detailed plan the rest of the team can build on."
	laterDirective = "Your teammates above have already responded. Build on their work; do not repeat it."
	toolsReminder  = "Use your tools when the work calls for reading or changing files, and say what you did."
)

// buildPrompt assembles the three-section prompt for one agent of a
// broadcast. first marks the team's lead agent, whose prompt carries no
// teammate section.
func buildPrompt(message string, window []types.TranscriptEntry, name, role string, first bool) string {
	var b strings.Builder

	b.WriteString(requestHeader)
	b.WriteString("\n")
	b.WriteString(message)

	if !first {
		if section := teammateSection(window); section != "" {
			b.WriteString("\n\n")
			b.WriteString(responsesHeader)
			b.WriteString("\n")
			b.WriteString(section)
		}
	}

	b.WriteString("\n\n")
	b.WriteString(assignmentHeader)
	b.WriteString("\n")
	fmt.Fprintf(&b, "You are %s (%s). ", name, role)
	if first {
		b.WriteString(firstDirective)
	} else {
		b.WriteString(laterDirective)
	}
	b.WriteString("\n")
	b.WriteString(toolsReminder)

	return b.String()
}

// teammateSection formats the agent-authored entries of the window, oldest
// first. User turns are skipped; the current request rides in the request
// section instead.
func teammateSection(window []types.TranscriptEntry) string {
	var parts []string
	for _, e := range window {
		if e.FromUser() {
			continue
		}
		parts = append(parts, fmt.Sprintf("--- %s (%s) ---\n%s", e.AuthorName, e.Role, e.Content))
	}
	return strings.Join(parts, "\n\n")
}
