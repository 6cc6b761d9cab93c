package channel

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"github.com/codecrew-ai/codecrew/internal/agent"
	"github.com/codecrew-ai/codecrew/internal/event"
	"github.com/codecrew-ai/codecrew/internal/logging"
	"github.com/codecrew-ai/codecrew/internal/permission"
	"github.com/codecrew-ai/codecrew/internal/sandbox"
)

// ErrNoAgents is returned by Broadcast when the roster is empty.
var ErrNoAgents = errors.New("no agents in the team")

// Roster supplies the ordered agent list for a broadcast. team.Team
// implements it; tests hand in a fixed slice through RosterFunc. The
// channel reads the roster fresh on every broadcast, so team edits between
// turns take effect without rebuilding the channel.
type Roster interface {
	Agents() []*agent.Agent
}

// RosterFunc adapts a function to the Roster interface.
type RosterFunc func() []*agent.Agent

// Agents implements Roster.
func (f RosterFunc) Agents() []*agent.Agent { return f() }

// Reply is one agent's outcome within a broadcast. Exactly one of Content
// and Err is set.
type Reply struct {
	AgentID   string
	AgentName string
	Role      string
	Content   string
	Err       error
}

// Channel broadcasts user turns to every agent of a team in roster order.
// It owns the shared transcript; the roster stays owned by whoever built
// it.
type Channel struct {
	roster     Roster
	transcript *Transcript
	workDir    string
	log        zerolog.Logger
}

// New returns a channel over the given roster. workDir anchors relative
// tool paths for every agent in a broadcast; empty means the sandbox
// policy root.
func New(roster Roster, workDir string) *Channel {
	return &Channel{
		roster:     roster,
		transcript: NewTranscript(),
		workDir:    workDir,
		log:        logging.WithComponent("channel"),
	}
}

// Transcript exposes the shared transcript for hosts.
func (c *Channel) Transcript() *Transcript { return c.transcript }

// Broadcast sends one user turn to every agent in order and returns their
// replies. A failing agent contributes an error entry and the broadcast
// moves on; only an empty roster or a canceled context aborts, the latter
// returning the replies collected so far. Per-call permission prompts are
// bypassed for the whole broadcast: a team turn has no user sitting on the
// other end to answer them.
func (c *Channel) Broadcast(ctx context.Context, message string) ([]Reply, error) {
	agents := c.roster.Agents()
	if len(agents) == 0 {
		return nil, ErrNoAgents
	}

	c.transcript.AppendUser(message)
	c.log.Info().Int("agents", len(agents)).Msg("broadcast started")

	replies := make([]Reply, 0, len(agents))
	for i, a := range agents {
		if err := ctx.Err(); err != nil {
			return replies, err
		}
		replies = append(replies, c.dispatch(ctx, a, message, i == 0))
	}

	c.log.Info().Int("replies", len(replies)).Msg("broadcast finished")
	return replies, nil
}

// dispatch runs one agent's turn: prompt assembly, the runtime call, the
// transcript append, and the surrounding events. Events go out through the
// synchronous path so subscribers observe thinking before tool activity
// before the outcome.
func (c *Channel) dispatch(ctx context.Context, a *agent.Agent, message string, first bool) Reply {
	meta := event.AgentEventData{AgentID: a.ID(), AgentName: a.Name()}
	event.PublishSync(event.Event{
		Type: event.AgentThinking,
		Data: event.AgentThinkingData{AgentEventData: meta},
	})

	prompt := buildPrompt(message, c.transcript.Window(transcriptWindow), a.Name(), a.Role(), first)

	content, err := a.SendMessage(ctx, prompt, agent.SendOptions{
		WorkDir: c.workDir,
		Gateway: permission.AutoAllow{},
		OnToolCall: func(name string, args json.RawMessage) {
			event.PublishSync(event.Event{
				Type: event.AgentToolCall,
				Data: event.AgentToolCallData{AgentEventData: meta, Tool: name, Args: sandbox.SanitizeArgs(args)},
			})
		},
		OnToolResult: func(name string, ok bool) {
			event.PublishSync(event.Event{
				Type: event.AgentToolResult,
				Data: event.AgentToolResultData{AgentEventData: meta, Tool: name, OK: ok},
			})
		},
	})
	if err != nil {
		c.log.Warn().Err(err).Str("agent", a.Name()).Msg("agent failed during broadcast")
		c.transcript.AppendAgent(a.ID(), a.Name(), a.Role(), "Error: "+err.Error())
		event.PublishSync(event.Event{
			Type: event.AgentError,
			Data: event.AgentErrorData{AgentEventData: meta, Error: err.Error()},
		})
		return Reply{AgentID: a.ID(), AgentName: a.Name(), Role: a.Role(), Err: err}
	}

	c.transcript.AppendAgent(a.ID(), a.Name(), a.Role(), content)
	event.PublishSync(event.Event{
		Type: event.AgentResponded,
		Data: event.AgentRespondedData{AgentEventData: meta, Reply: content},
	})
	return Reply{AgentID: a.ID(), AgentName: a.Name(), Role: a.Role(), Content: content}
}
