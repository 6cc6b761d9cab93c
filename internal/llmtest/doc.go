// Package llmtest provides a scripted stand-in for a chat completion API.
//
// A Script maps prompt patterns to canned replies or tool calls; Server
// speaks the OpenAI-compatible wire over httptest, so any adapter pointed
// at its URL by a base-URL override behaves exactly as it would against a
// live backend, minus the nondeterminism. Scripts load from YAML:
//
//	settings:
//	  lag_ms: 0
//	defaults:
//	  fallback: "Understood."
//	  usage: {input: 20, output: 8}
//	responses:
//	  - name: greet
//	    match: {contains: "hello"}
//	    response: "Hello there!"
//	tool_rules:
//	  - name: read-notes
//	    match: {contains: "notes"}
//	    tool: read
//	    arguments: {path: "notes.txt"}
//	    priority: 10
//
// Tool rules outrank plain responses, higher priority wins within each
// group, and the fallback answers anything unmatched. Matching runs
// against the last message of each request, which after a tool round is
// the tool result, so scripts can steer multi-round loops.
package llmtest
