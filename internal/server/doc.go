// Package server exposes the team API over HTTP for host UIs and scripts.
//
// The surface is small: /status for liveness, /teams for CRUD on saved
// teams, nested routes for agents, direct messages and broadcasts, and
// /events as a Server-Sent Events bridge of the internal bus. Responses
// are plain JSON; errors use a {"error":{"code","message"}} envelope.
// There is no authentication, so the listener binds loopback unless
// configured otherwise.
//
// Team mutations, broadcasts and direct messages serialize on one lock: a
// broadcast is a sequential multi-agent turn, and interleaving a roster
// edit with it would hand later agents a team that changed mid-turn.
//
// Broadcasts auto-approve tool calls; a direct message instead gates them
// through an interactive checker. The pending request rides /events as
// permission.required, and the host answers on POST /permissions with
// once, always or reject. That route stays off the serialization lock so
// the answer can land while the message that raised it is still in
// flight.
package server
