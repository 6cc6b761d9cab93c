package tool

import (
	"sort"
	"sync"

	"github.com/codecrew-ai/codecrew/internal/logging"
	"github.com/codecrew-ai/codecrew/internal/sandbox"
	"github.com/codecrew-ai/codecrew/internal/storage"
	"github.com/codecrew-ai/codecrew/pkg/types"
)

// Registry holds the process-wide tool set.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// NewDefault creates a registry with every built-in tool, all sharing one
// sandbox policy. The store backs the todo tools.
func NewDefault(policy *sandbox.Policy, store *storage.Storage) *Registry {
	r := NewRegistry()

	r.Register(NewBashTool(policy))
	r.Register(NewReadTool(policy))
	r.Register(NewWriteTool(policy))
	r.Register(NewEditTool(policy))
	r.Register(NewGlobTool(policy))
	r.Register(NewGrepTool(policy))
	r.Register(NewWebFetchTool(policy))
	r.Register(NewTodoReadTool(store))
	r.Register(NewTodoWriteTool(store))

	logging.Debug().Strs("tools", r.IDs()).Msg("tool registry initialized")
	return r
}

// Register adds a tool, replacing any tool with the same ID.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.ID()] = t
}

// Get retrieves a tool by ID.
func (r *Registry) Get(id string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[id]
	return t, ok
}

// IDs returns all tool IDs, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.tools))
	for id := range r.tools {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Definitions returns the provider-facing definition of every registered
// tool, sorted by name so request payloads are deterministic.
func (r *Registry) Definitions() []types.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]types.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, types.ToolDefinition{
			Name:        t.ID(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}
