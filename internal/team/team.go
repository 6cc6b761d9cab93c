package team

import (
	"regexp"
	"sync"
	"time"

	"github.com/codecrew-ai/codecrew/internal/agent"
	"github.com/codecrew-ai/codecrew/pkg/types"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// SafeName folds a display name into the filesystem-safe form used for
// team file names.
func SafeName(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "_")
}

// Team is an ordered list of live agents under a display name. The order
// is the broadcast order. Team satisfies the channel's Roster interface.
type Team struct {
	mu        sync.RWMutex
	name      string
	createdAt time.Time
	updatedAt time.Time
	agents    []*agent.Agent
}

// NewTeam returns an empty team created now.
func NewTeam(name string) *Team {
	now := time.Now().UTC()
	return &Team{name: name, createdAt: now, updatedAt: now}
}

// Name returns the display name.
func (t *Team) Name() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.name
}

// CreatedAt returns the creation time.
func (t *Team) CreatedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.createdAt
}

// UpdatedAt returns the last save time.
func (t *Team) UpdatedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.updatedAt
}

// Agents returns a copy of the agent list in broadcast order.
func (t *Team) Agents() []*agent.Agent {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*agent.Agent, len(t.agents))
	copy(out, t.agents)
	return out
}

// AgentCount returns the number of agents.
func (t *Team) AgentCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.agents)
}

func (t *Team) add(a *agent.Agent) {
	t.mu.Lock()
	t.agents = append(t.agents, a)
	t.mu.Unlock()
}

// removeByID drops the agent with the given id and reports whether one
// matched.
func (t *Team) removeByID(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, a := range t.agents {
		if a.ID() == id {
			t.agents = append(t.agents[:i], t.agents[i+1:]...)
			return true
		}
	}
	return false
}

func (t *Team) rename(name string) {
	t.mu.Lock()
	t.name = name
	t.mu.Unlock()
}

// record is the on-disk shape of a team.
type record struct {
	Name      string              `json:"name"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
	Agents    []types.AgentConfig `json:"agents"`
}

// snapshot bumps the update time and renders the team for persistence.
// Agents inheriting the config key are serialized with the sentinel so no
// default key ever lands in a team file.
func (t *Team) snapshot() record {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.updatedAt = time.Now().UTC()

	cfgs := make([]types.AgentConfig, len(t.agents))
	for i, a := range t.agents {
		cfg := a.Config()
		if cfg.APIKey == "" {
			cfg.APIKey = types.ConfigKeySentinel
		}
		cfgs[i] = cfg
	}
	return record{
		Name:      t.name,
		CreatedAt: t.createdAt,
		UpdatedAt: t.updatedAt,
		Agents:    cfgs,
	}
}
