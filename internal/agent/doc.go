// Package agent implements the runtime for one LLM persona.
//
// An Agent binds an AgentConfig to a provider adapter and carries the
// persona's private DM history and live status. The one primary operation is
// [Agent.SendMessage]: user text in, the final assistant text out, with the
// bounded tool loop in between.
//
// # Tool Loop
//
// For a tool-capable provider each exchange runs:
//
//  1. Send system prompt + (optional DM history) + user text.
//  2. Append the assistant turn to the working messages.
//  3. If the turn carries no tool calls, stop.
//  4. Execute the calls in emission order through the shared executor,
//     appending each result keyed to its call id.
//  5. Repeat until the provider answers without tool calls or the policy
//     budget (rounds × calls per round) runs out.
//
// Single-pass providers (groq, gemini) skip all of this: they receive no
// tool definitions and their first response is final.
//
// When the budget runs out the runtime still delivers the pending results
// and elicits one closing response, then appends the limit sentinel. Calls
// past the ceiling are never executed; the model sees the limit sentinel as
// their result instead.
//
// # Reply Assembly
//
// Text from every round is joined with blank lines, and the usage footer of
// the last provider response is appended exactly once. Adapters never touch
// the footer; it is appended here so a reply carries it once no matter how
// many rounds ran.
//
// # History
//
// The DM history is updated only when SendOptions.IncludeHistory is set, and
// only on success. Team broadcasts keep it off: the channel composes each
// agent's context from the shared transcript instead.
//
// # Status
//
// idle → thinking on entry, thinking ↔ tool around dispatch, then idle on
// success or error on a provider failure. Hosts poll [Agent.Status] for
// display; nothing in the runtime depends on it.
package agent
