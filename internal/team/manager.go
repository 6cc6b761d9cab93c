package team

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"

	"github.com/codecrew-ai/codecrew/internal/agent"
	"github.com/codecrew-ai/codecrew/internal/config"
	"github.com/codecrew-ai/codecrew/internal/event"
	"github.com/codecrew-ai/codecrew/internal/logging"
	"github.com/codecrew-ai/codecrew/internal/tool"
	"github.com/codecrew-ai/codecrew/pkg/types"
)

var (
	// ErrNoTeam is returned by operations that need a current team when
	// none is selected.
	ErrNoTeam = errors.New("no team selected; create or load one first")

	// ErrTeamNotFound is returned when a named team has no record on disk.
	ErrTeamNotFound = errors.New("team not found")

	// ErrAgentNotFound is returned when no agent matches a given id or
	// name.
	ErrAgentNotFound = errors.New("agent not found")
)

// Summary is one row of a team listing.
type Summary struct {
	Name       string    `json:"name"`
	AgentCount int       `json:"agentCount"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Manager owns the current team and the persistence surface. Loading a
// team rebinds every serialized agent to a live provider adapter through
// the shared executor and config defaults.
type Manager struct {
	paths    *config.Paths
	defaults *types.Config
	executor *tool.Executor
	log      zerolog.Logger

	mu      sync.RWMutex
	current *Team
}

// NewManager wires a manager over the data directory layout.
func NewManager(paths *config.Paths, defaults *types.Config, executor *tool.Executor) *Manager {
	return &Manager{
		paths:    paths,
		defaults: defaults,
		executor: executor,
		log:      logging.WithComponent("team"),
	}
}

// Current returns the currently selected team, or nil.
func (m *Manager) Current() *Team {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Executor returns the shared tool executor the manager binds agents to.
func (m *Manager) Executor() *tool.Executor {
	return m.executor
}

// Create starts a fresh empty team and selects it. Nothing is persisted
// until Save.
func (m *Manager) Create(name string) (*Team, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("team name must not be empty")
	}

	t := NewTeam(name)
	m.mu.Lock()
	m.current = t
	m.mu.Unlock()

	m.log.Info().Str("team", name).Msg("team created")
	return t, nil
}

// AddAgent binds the config to a live agent and appends it to the current
// team. An empty cfg.APIKey inherits the config default for the provider.
func (m *Manager) AddAgent(ctx context.Context, cfg types.AgentConfig) (*agent.Agent, error) {
	t := m.Current()
	if t == nil {
		return nil, ErrNoTeam
	}

	a, err := agent.New(ctx, cfg, m.executor, m.defaults)
	if err != nil {
		return nil, fmt.Errorf("add agent %q: %w", cfg.Name, err)
	}

	t.add(a)
	m.log.Info().Str("team", t.Name()).Str("agent", a.Name()).Str("provider", cfg.Provider.String()).Msg("agent added")
	return a, nil
}

// FindAgent resolves an agent on the current team by id, or by name when
// exactly one agent carries it. Near-miss names draw a suggestion.
func (m *Manager) FindAgent(idOrName string) (*agent.Agent, error) {
	t := m.Current()
	if t == nil {
		return nil, ErrNoTeam
	}

	var matches []*agent.Agent
	var candidates []string
	for _, a := range t.Agents() {
		if a.ID() == idOrName {
			return a, nil
		}
		if a.Name() == idOrName {
			matches = append(matches, a)
		}
		candidates = append(candidates, a.Name(), a.ID())
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		if s := nearest(idOrName, candidates); s != "" {
			return nil, fmt.Errorf("%w: %q (did you mean %q?)", ErrAgentNotFound, idOrName, s)
		}
		return nil, fmt.Errorf("%w: %q", ErrAgentNotFound, idOrName)
	default:
		return nil, fmt.Errorf("agent name %q is ambiguous; use the id", idOrName)
	}
}

// RemoveAgent drops an agent from the current team by id, or by name when
// exactly one agent carries it.
func (m *Manager) RemoveAgent(idOrName string) error {
	a, err := m.FindAgent(idOrName)
	if err != nil {
		return err
	}

	t := m.Current()
	t.removeByID(a.ID())
	m.log.Info().Str("team", t.Name()).Str("agent", a.Name()).Msg("agent removed")
	return nil
}

// Save persists the current team under its name, or renames it first when
// name is non-empty. The record lands at teams/{safeName}.json.
func (m *Manager) Save(name string) error {
	t := m.Current()
	if t == nil {
		return ErrNoTeam
	}
	if name != "" {
		t.rename(name)
	}

	rec := t.snapshot()
	if err := os.MkdirAll(m.paths.Teams, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	path := m.paths.TeamPath(SafeName(rec.Name))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}

	m.log.Info().Str("team", rec.Name).Str("path", path).Int("agents", len(rec.Agents)).Msg("team saved")
	event.Publish(event.Event{
		Type: event.TeamUpdated,
		Data: event.TeamUpdatedData{Name: rec.Name},
	})
	return nil
}

// Load reads a team record, rebinds its agents, and selects the result as
// the current team. The sentinel key resolves back to the config lookup.
func (m *Manager) Load(ctx context.Context, name string) (*Team, error) {
	path := m.paths.TeamPath(SafeName(name))
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, m.notFound(name)
	}
	if err != nil {
		return nil, err
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("team file %s: %w", path, err)
	}

	t := &Team{name: rec.Name, createdAt: rec.CreatedAt, updatedAt: rec.UpdatedAt}
	for _, cfg := range rec.Agents {
		if cfg.APIKey == types.ConfigKeySentinel {
			cfg.APIKey = ""
		}
		a, err := agent.New(ctx, cfg, m.executor, m.defaults)
		if err != nil {
			return nil, fmt.Errorf("load team %q, agent %q: %w", rec.Name, cfg.Name, err)
		}
		t.agents = append(t.agents, a)
	}

	m.mu.Lock()
	m.current = t
	m.mu.Unlock()

	m.log.Info().Str("team", rec.Name).Int("agents", len(rec.Agents)).Msg("team loaded")
	return t, nil
}

// Describe reads a saved team's record without loading agents or touching
// the current selection. API keys are stripped from the returned configs;
// this is the view the HTTP API serves.
func (m *Manager) Describe(name string) (Summary, []types.AgentConfig, error) {
	path := m.paths.TeamPath(SafeName(name))
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Summary{}, nil, m.notFound(name)
	}
	if err != nil {
		return Summary{}, nil, err
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Summary{}, nil, fmt.Errorf("team file %s: %w", path, err)
	}

	for i := range rec.Agents {
		rec.Agents[i].APIKey = ""
	}
	sum := Summary{
		Name:       rec.Name,
		AgentCount: len(rec.Agents),
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}
	return sum, rec.Agents, nil
}

// List reads every team record in the teams directory. Unreadable records
// are skipped with a warning rather than failing the listing.
func (m *Manager) List() ([]Summary, error) {
	entries, err := os.ReadDir(m.paths.Teams)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []Summary
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(m.paths.Teams, e.Name()))
		if err != nil {
			m.log.Warn().Err(err).Str("file", e.Name()).Msg("skipping unreadable team record")
			continue
		}
		var rec record
		if err := json.Unmarshal(data, &rec); err != nil {
			m.log.Warn().Err(err).Str("file", e.Name()).Msg("skipping malformed team record")
			continue
		}
		out = append(out, Summary{
			Name:       rec.Name,
			AgentCount: len(rec.Agents),
			CreatedAt:  rec.CreatedAt,
			UpdatedAt:  rec.UpdatedAt,
		})
	}
	return out, nil
}

// Delete removes a team record. The current team is deselected when it was
// the one deleted.
func (m *Manager) Delete(name string) error {
	path := m.paths.TeamPath(SafeName(name))
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return m.notFound(name)
	} else if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return err
	}

	m.mu.Lock()
	if m.current != nil && SafeName(m.current.Name()) == SafeName(name) {
		m.current = nil
	}
	m.mu.Unlock()

	m.log.Info().Str("team", name).Msg("team deleted")
	event.Publish(event.Event{
		Type: event.TeamDeleted,
		Data: event.TeamDeletedData{Name: name},
	})
	return nil
}

func (m *Manager) notFound(name string) error {
	if summaries, err := m.List(); err == nil {
		candidates := make([]string, 0, len(summaries))
		for _, s := range summaries {
			candidates = append(candidates, s.Name)
		}
		if s := nearest(name, candidates); s != "" {
			return fmt.Errorf("%w: %q (did you mean %q?)", ErrTeamNotFound, name, s)
		}
	}
	return fmt.Errorf("%w: %q", ErrTeamNotFound, name)
}

// nearest picks the candidate with the smallest edit distance to input,
// case-folded, or "" when even the best match is too far off to be a
// plausible typo.
func nearest(input string, candidates []string) string {
	best := ""
	bestDist := -1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(strings.ToLower(input), strings.ToLower(c))
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if best == "" || bestDist > len(input)/2+1 {
		return ""
	}
	return best
}
