/*
Package event provides a type-safe pub/sub event system for codecrew.

The event system decouples the agent runtime and team channel from their
hosts: the core publishes events as work progresses, and any number of
subscribers (terminal printer, SSE bridge, tests) react without the core
depending on them.

# Architecture

The package dispatches to in-process subscribers by direct call, preserving
typed payloads, and mirrors every published event as JSON onto a watermill
gochannel stream (one topic per event type). It provides both synchronous and
asynchronous publishing patterns.

# Event Types

Agent events (emitted during a request or team broadcast):
  - agent.thinking: the agent is awaiting a provider response
  - agent.tool_call: the agent is about to execute a tool
  - agent.tool_result: a tool finished (with a success flag)
  - agent.responded: the agent produced its final reply
  - agent.error: the agent's request failed

Permission events:
  - permission.required: a gated tool needs a user decision
  - permission.resolved: the decision arrived

Team events:
  - team.updated: a team record changed on disk
  - team.deleted: a team record was removed

Sandbox events:
  - tool.executed: a tool call log record was appended
  - file.edited: the write or edit tool changed a file

# Basic Usage

Publishing events:

	// Asynchronous publishing (non-blocking)
	event.Publish(event.Event{
		Type: event.ToolExecuted,
		Data: event.ToolExecutedData{Record: rec},
	})

	// Synchronous publishing (blocking until all subscribers complete)
	event.PublishSync(event.Event{
		Type: event.AgentResponded,
		Data: event.AgentRespondedData{
			AgentEventData: event.AgentEventData{AgentID: id, AgentName: name},
			Reply:          reply,
		},
	})

Subscribing to specific events:

	unsubscribe := event.Subscribe(event.AgentResponded, func(e event.Event) {
		data := e.Data.(event.AgentRespondedData)
		fmt.Println(data.AgentName, "replied")
	})
	defer unsubscribe()

Subscribing to all events:

	unsubscribe := event.SubscribeAll(func(e event.Event) {
		log.Debug().Str("type", string(e.Type)).Msg("event")
	})
	defer unsubscribe()

# Ordering

The agent runtime publishes its lifecycle events with PublishSync, so for a
single agent request, agent.thinking is always observed before
agent.responded or agent.error. No ordering holds across the async Publish
path.

# Subscriber Safety Guidelines

When using PublishSync, subscribers are called synchronously in the
publisher's goroutine. To avoid blocking or deadlocks, subscribers MUST:

  - Complete quickly (avoid long-running operations)
  - Use non-blocking channel sends (select with default case)
  - Never call Publish/PublishSync from within a subscriber
  - Never acquire locks that the publisher might hold

# Custom Event Bus

For testing or isolation, you can create custom bus instances:

	bus := event.NewBus()
	defer bus.Close()

	unsubscribe := bus.Subscribe(event.AgentThinking, handler)
	bus.PublishSync(event.Event{Type: event.AgentThinking, Data: data})

# Testing

Reset the global bus state in test cleanup:

	event.Reset()

# Integration with Watermill

The JSON mirror of the event stream is reachable through the underlying
watermill gochannel:

	msgs, err := event.PubSub().Subscribe(ctx, string(event.AgentResponded))

Each message's payload is the marshaled Event and its "type" metadata names
the event type. Only events published after the subscription are delivered.
This also allows migration to a distributed message broker while keeping the
current API.
*/
package event
