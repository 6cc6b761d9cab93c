// Package channel implements the team broadcast loop: one user turn fanned
// out to every agent of a team strictly in order, each agent reading its
// teammates' earlier replies through a shared transcript.
//
// # Ordering
//
// Broadcast is a sequential loop, never a fan-out. Agent i's prompt carries
// the user request and the replies of agents 1..i-1; nothing from a later
// agent can leak backwards. The transcript grows across broadcasts; prompts
// read only its trailing window.
//
// # Prompt Shape
//
// Each agent receives three labeled sections: the verbatim user request,
// the teammate replies so far (omitted for the lead agent), and an
// assignment naming the agent and its role. Broadcast prompts bypass the
// agents' private histories on both ends: nothing is replayed in, nothing
// is recorded back.
//
// # Failures
//
// A failing agent contributes an "Error: ..." transcript entry and the
// broadcast continues; later agents see that line like any other reply.
// Only an empty roster or a canceled context aborts the loop.
package channel
