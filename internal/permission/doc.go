// Package permission gates side-effecting tool calls behind host approval.
//
// The Gateway interface is deliberately minimal: given a Request describing
// the tool and its arguments, Ask returns whether the call may proceed. A
// denial is not an error; the agent runtime synthesizes a
// "Permission denied by user for <tool>" result and the model adapts.
//
// # Implementations
//
// Two gateways ship with the package:
//
//   - Checker: interactive over the event bus. Ask publishes a
//     permission.required event and blocks until the host answers via
//     Resolve(id, action) with "once", "always", or "reject". An "always"
//     grant is remembered per tool for the life of the checker, so
//     repeated bash approvals don't prompt on every call. Context
//     cancellation denies. The HTTP server runs direct messages under a
//     checker and exposes Resolve as POST /permissions/{requestID}.
//
//   - AutoAllow: unconditional approval. Team broadcasts run under it
//     because a modal prompt between two agents of a sequential broadcast
//     would stall the whole channel.
//
// GatewayFunc adapts a plain closure; the CLI's stdin prompt and most
// test doubles are ad-hoc implementations of the interface.
//
// # Gated tools
//
// Only the dangerous list (bash, write, edit) consults the gateway.
// Read-only tools (read, glob, grep, webfetch) execute without prompting;
// their safety comes from the sandbox's validation instead.
package permission
