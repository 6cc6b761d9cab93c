// Package team persists and reconstructs agent teams.
//
// A team is an ordered list of agents under a display name. On disk each
// team is one JSON record in the teams directory, keyed by the
// filesystem-safe form of its name (every character outside [A-Za-z0-9_-]
// folds to an underscore).
//
// API keys never round-trip raw when they were inherited: an agent using
// the process-wide config key is serialized with the "__config__" sentinel
// in place of the key, and loading resolves the sentinel back to the
// config lookup. Explicitly assigned keys are the agent's own and are
// stored as given.
//
// The Manager owns the current team and the CRUD surface; loading a team
// rebinds every agent to a live provider adapter. A directory watcher
// turns external edits to team files into team.updated / team.deleted
// events.
package team
