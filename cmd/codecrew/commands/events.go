package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/codecrew-ai/codecrew/internal/agent"
	"github.com/codecrew-ai/codecrew/internal/event"
	"github.com/codecrew-ai/codecrew/internal/permission"
	"github.com/codecrew-ai/codecrew/internal/sandbox"
)

// terminalGateway answers permission prompts on the controlling terminal.
// "always" grants are remembered for the life of the process; EOF denies.
type terminalGateway struct {
	mu     sync.Mutex
	in     *bufio.Reader
	out    io.Writer
	always map[string]bool
}

func newTerminalGateway(in io.Reader, out io.Writer) *terminalGateway {
	return &terminalGateway{
		in:     bufio.NewReader(in),
		out:    out,
		always: make(map[string]bool),
	}
}

func (g *terminalGateway) Ask(_ context.Context, req permission.Request) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.always[req.Tool] {
		return true
	}

	fmt.Fprintf(g.out, "\n%s\n  %s\n[y]es / [a]lways / [N]o? ", req.Title, permission.Summarize(req))
	line, err := g.in.ReadString('\n')
	if err != nil {
		fmt.Fprintln(g.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	case "a", "always":
		g.always[req.Tool] = true
		return true
	default:
		return false
	}
}

// sendToAgent runs one exchange with progress lines on stderr. The reply
// string comes back for the caller to place on stdout.
func sendToAgent(ctx context.Context, a *agent.Agent, workDir, message string, includeHistory bool, gate permission.Gateway, progress io.Writer) (string, error) {
	fmt.Fprintf(progress, "[%s] thinking...\n", a.Name())
	return a.SendMessage(ctx, message, agent.SendOptions{
		WorkDir:        workDir,
		IncludeHistory: includeHistory,
		Gateway:        gate,
		OnToolCall: func(name string, args json.RawMessage) {
			fmt.Fprintf(progress, "[tool:%s] %s\n", name, sandbox.SanitizeArgs(args))
		},
		OnToolResult: func(name string, ok bool) {
			if !ok {
				fmt.Fprintf(progress, "[tool:%s] failed\n", name)
			}
		},
	})
}

// teamPrinter mirrors a broadcast onto the terminal as it runs: progress
// to stderr, each agent's reply to stdout the moment it lands. The channel
// publishes its events synchronously, so the handlers run in broadcast
// order.
type teamPrinter struct {
	out      io.Writer
	progress io.Writer
	unsub    []func()
}

func newTeamPrinter(out, progress io.Writer) *teamPrinter {
	return &teamPrinter{out: out, progress: progress}
}

func (p *teamPrinter) subscribe() {
	p.unsub = append(p.unsub,
		event.Subscribe(event.AgentThinking, p.handle),
		event.Subscribe(event.AgentToolCall, p.handle),
		event.Subscribe(event.AgentToolResult, p.handle),
		event.Subscribe(event.AgentResponded, p.handle),
		event.Subscribe(event.AgentError, p.handle),
	)
}

func (p *teamPrinter) close() {
	for _, unsub := range p.unsub {
		unsub()
	}
	p.unsub = nil
}

func (p *teamPrinter) handle(e event.Event) {
	switch data := e.Data.(type) {
	case event.AgentThinkingData:
		fmt.Fprintf(p.progress, "[%s] thinking...\n", data.AgentName)
	case event.AgentToolCallData:
		fmt.Fprintf(p.progress, "[%s] tool:%s %s\n", data.AgentName, data.Tool, data.Args)
	case event.AgentToolResultData:
		if !data.OK {
			fmt.Fprintf(p.progress, "[%s] tool:%s failed\n", data.AgentName, data.Tool)
		}
	case event.AgentRespondedData:
		fmt.Fprintf(p.out, "--- %s ---\n%s\n\n", data.AgentName, data.Reply)
	case event.AgentErrorData:
		fmt.Fprintf(p.out, "--- %s ---\nError: %s\n\n", data.AgentName, data.Error)
	}
}
