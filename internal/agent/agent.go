package agent

import (
	"context"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/codecrew-ai/codecrew/internal/logging"
	"github.com/codecrew-ai/codecrew/internal/provider"
	"github.com/codecrew-ai/codecrew/internal/tool"
	"github.com/codecrew-ai/codecrew/pkg/types"
)

// Agent owns one configured persona: its provider binding, its private DM
// history and its live status. Tool access goes through the shared executor;
// each request draws a fresh call budget from the executor's policy.
type Agent struct {
	cfg      types.AgentConfig
	provider provider.Provider
	executor *tool.Executor
	defaults *types.Config
	log      zerolog.Logger

	mu      sync.Mutex
	history []types.Message
	status  types.AgentStatus
}

// New binds an agent config to a freshly constructed provider adapter. Key
// and model resolution follow the factory: agent config first, process
// config second.
func New(ctx context.Context, cfg types.AgentConfig, executor *tool.Executor, defaults *types.Config) (*Agent, error) {
	p, err := provider.New(ctx, cfg, defaults)
	if err != nil {
		return nil, err
	}
	return NewWithProvider(cfg, p, executor, defaults), nil
}

// NewWithProvider binds an agent to an already-built provider. Hosts that
// pre-construct adapters (and tests that script them) use this path.
func NewWithProvider(cfg types.AgentConfig, p provider.Provider, executor *tool.Executor, defaults *types.Config) *Agent {
	if cfg.ID == "" {
		cfg.ID = NewID()
	}
	return &Agent{
		cfg:      cfg,
		provider: p,
		executor: executor,
		defaults: defaults,
		status:   types.StatusIdle,
		log:      logging.WithComponent("agent").With().Str("agent", cfg.Name).Logger(),
	}
}

// NewID returns a fresh agent id.
func NewID() string {
	return "agt_" + strings.ToLower(ulid.Make().String())
}

// ID returns the agent's stable identifier.
func (a *Agent) ID() string { return a.cfg.ID }

// Name returns the agent's display name.
func (a *Agent) Name() string { return a.cfg.Name }

// Role returns the agent's team role.
func (a *Agent) Role() string { return a.cfg.Role }

// Config returns the agent's configuration.
func (a *Agent) Config() types.AgentConfig { return a.cfg }

// Provider returns the bound provider adapter.
func (a *Agent) Provider() provider.Provider { return a.provider }

// Status returns what the agent is doing right now.
func (a *Agent) Status() types.AgentStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

func (a *Agent) setStatus(s types.AgentStatus) {
	a.mu.Lock()
	a.status = s
	a.mu.Unlock()
}

// History returns a copy of the agent's DM history.
func (a *Agent) History() []types.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]types.Message, len(a.history))
	copy(out, a.history)
	return out
}

// ClearHistory drops the DM history.
func (a *Agent) ClearHistory() {
	a.mu.Lock()
	a.history = nil
	a.mu.Unlock()
}

func (a *Agent) appendExchange(userText, reply string) {
	a.mu.Lock()
	a.history = append(a.history, types.UserMessage(userText), types.AssistantMessage(reply, nil))
	a.mu.Unlock()
}
