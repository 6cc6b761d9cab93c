package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/codecrew-ai/codecrew/internal/agent"
	"github.com/codecrew-ai/codecrew/internal/channel"
	"github.com/codecrew-ai/codecrew/internal/mcp"
	"github.com/codecrew-ai/codecrew/internal/sandbox"
	"github.com/codecrew-ai/codecrew/internal/team"
	"github.com/codecrew-ai/codecrew/pkg/types"
)

type statusResponse struct {
	Status           string                       `json:"status"`
	Teams            int                          `json:"teams"`
	CurrentTeam      string                       `json:"currentTeam,omitempty"`
	MCPServers       []mcp.ServerInfo             `json:"mcpServers,omitempty"`
	ToolCalls        map[string]sandbox.ToolStats `json:"toolCalls,omitempty"`
	ToolCallsByAgent map[string]sandbox.ToolStats `json:"toolCallsByAgent,omitempty"`
}

type createTeamRequest struct {
	Name   string `json:"name"`
	Preset bool   `json:"preset"`
}

// agentView is the agent representation served over HTTP. API keys never
// appear in it.
type agentView struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Role          string         `json:"role"`
	SystemPrompt  string         `json:"systemPrompt"`
	Provider      types.Provider `json:"provider"`
	Model         string         `json:"model,omitempty"`
	OllamaBaseURL *string        `json:"ollamaBaseUrl,omitempty"`
}

type teamView struct {
	Name      string      `json:"name"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	Agents    []agentView `json:"agents"`
}

type broadcastRequest struct {
	Message string `json:"message"`
}

type messageRequest struct {
	Message string `json:"message"`
}

type resolveRequest struct {
	Action string `json:"action"` // "once" | "always" | "reject"
}

type replyView struct {
	AgentID   string `json:"agentId"`
	AgentName string `json:"agentName"`
	Role      string `json:"role"`
	Content   string `json:"content,omitempty"`
	Error     string `json:"error,omitempty"`
}

type broadcastResponse struct {
	Replies []replyView `json:"replies"`
}

func viewOf(cfg types.AgentConfig) agentView {
	return agentView{
		ID:            cfg.ID,
		Name:          cfg.Name,
		Role:          cfg.Role,
		SystemPrompt:  cfg.SystemPrompt,
		Provider:      cfg.Provider,
		Model:         cfg.Model,
		OllamaBaseURL: cfg.OllamaBaseURL,
	}
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	teams, err := s.manager.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	resp := statusResponse{Status: "ok", Teams: len(teams)}
	if cur := s.manager.Current(); cur != nil {
		resp.CurrentTeam = cur.Name()
	}
	if s.mcp != nil {
		resp.MCPServers = s.mcp.Servers()
	}
	log := s.manager.Executor().Log()
	if stats := log.Stats(); len(stats) > 0 {
		resp.ToolCalls = stats
		resp.ToolCallsByAgent = log.StatsByAgent()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.manager.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	if teams == nil {
		teams = []team.Summary{}
	}
	writeJSON(w, http.StatusOK, teams)
}

func (s *Server) createTeam(w http.ResponseWriter, r *http.Request) {
	var req createTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.manager.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	for _, t := range existing {
		if team.SafeName(t.Name) == team.SafeName(name) {
			writeError(w, http.StatusConflict, ErrCodeConflict, "team "+t.Name+" already exists")
			return
		}
	}

	if req.Preset {
		_, err = s.manager.CreateDefault(r.Context(), name)
	} else {
		_, err = s.manager.Create(name)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}
	if err := s.manager.Save(""); err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	sum, _, err := s.manager.Describe(name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sum)
}

func (s *Server) getTeam(w http.ResponseWriter, r *http.Request) {
	sum, agents, err := s.manager.Describe(chi.URLParam(r, "name"))
	if err != nil {
		s.writeTeamError(w, err)
		return
	}

	views := make([]agentView, 0, len(agents))
	for _, cfg := range agents {
		views = append(views, viewOf(cfg))
	}
	writeJSON(w, http.StatusOK, teamView{
		Name:      sum.Name,
		CreatedAt: sum.CreatedAt,
		UpdatedAt: sum.UpdatedAt,
		Agents:    views,
	})
}

func (s *Server) deleteTeam(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.manager.Delete(name); err != nil {
		s.writeTeamError(w, err)
		return
	}
	s.dropChannel(team.SafeName(name))
	writeSuccess(w)
}

func (s *Server) addAgent(w http.ResponseWriter, r *http.Request) {
	var cfg types.AgentConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ensureLoaded(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeTeamError(w, err)
		return
	}
	a, err := s.manager.AddAgent(r.Context(), cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}
	if err := s.manager.Save(""); err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(a.Config()))
}

func (s *Server) removeAgent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ensureLoaded(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeTeamError(w, err)
		return
	}
	if err := s.manager.RemoveAgent(chi.URLParam(r, "agentID")); err != nil {
		if errors.Is(err, team.ErrAgentNotFound) {
			writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
		} else {
			writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		}
		return
	}
	if err := s.manager.Save(""); err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeSuccess(w)
}

func (s *Server) broadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body")
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "message is required")
		return
	}

	name := chi.URLParam(r, "name")

	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.ensureLoaded(r.Context(), name)
	if err != nil {
		s.writeTeamError(w, err)
		return
	}
	ch, holder := s.channelFor(team.SafeName(name))
	holder.set(t)

	replies, err := ch.Broadcast(r.Context(), message)
	if errors.Is(err, channel.ErrNoAgents) {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}
	// Any other error is a canceled request; write what we have, which is
	// a no-op if the client is gone.
	resp := broadcastResponse{Replies: make([]replyView, 0, len(replies))}
	for _, rep := range replies {
		view := replyView{
			AgentID:   rep.AgentID,
			AgentName: rep.AgentName,
			Role:      rep.Role,
			Content:   rep.Content,
		}
		if rep.Err != nil {
			view.Error = rep.Err.Error()
		}
		resp.Replies = append(resp.Replies, view)
	}
	writeJSON(w, http.StatusOK, resp)
}

// messageAgent runs a direct exchange with one team member. Unlike a
// broadcast, the turn is gated interactively: a dangerous tool call
// surfaces as a permission.required event on /events and waits for the
// host's answer on POST /permissions/{requestID}. Disconnecting denies.
// The agent keeps its DM history across calls.
func (s *Server) messageAgent(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body")
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "message is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ensureLoaded(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeTeamError(w, err)
		return
	}
	a, err := s.manager.FindAgent(chi.URLParam(r, "agentID"))
	if err != nil {
		if errors.Is(err, team.ErrAgentNotFound) {
			writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
		} else {
			writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		}
		return
	}

	reply, err := a.SendMessage(r.Context(), message, agent.SendOptions{
		WorkDir:        s.config.WorkDir,
		IncludeHistory: true,
		Gateway:        s.checker,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, replyView{
		AgentID:   a.ID(),
		AgentName: a.Name(),
		Role:      a.Role(),
		Content:   reply,
	})
}

// resolvePermission delivers the host's verdict on a pending permission
// request. An unknown or expired id is acknowledged, not an error: the
// exchange that raised it may already be gone.
func (s *Server) resolvePermission(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body")
		return
	}
	switch req.Action {
	case "once", "always", "reject":
	default:
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, `action must be "once", "always" or "reject"`)
		return
	}

	// Deliberately not under s.mu: the direct message waiting on this
	// answer holds the lock.
	s.checker.Resolve(chi.URLParam(r, "requestID"), req.Action)
	writeSuccess(w)
}

// ensureLoaded makes the named team current, reusing the in-memory copy
// when it is already selected. Caller holds s.mu.
func (s *Server) ensureLoaded(ctx context.Context, name string) (*team.Team, error) {
	if cur := s.manager.Current(); cur != nil && team.SafeName(cur.Name()) == team.SafeName(name) {
		return cur, nil
	}
	return s.manager.Load(ctx, name)
}

func (s *Server) writeTeamError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, team.ErrTeamNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, team.ErrNoTeam):
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
	}
}
