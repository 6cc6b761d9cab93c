package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/codecrew-ai/codecrew/internal/agent"
	"github.com/codecrew-ai/codecrew/internal/channel"
	"github.com/codecrew-ai/codecrew/internal/logging"
	"github.com/codecrew-ai/codecrew/internal/mcp"
	"github.com/codecrew-ai/codecrew/internal/permission"
	"github.com/codecrew-ai/codecrew/internal/team"
)

// Config holds server configuration.
type Config struct {
	Addr         string
	WorkDir      string
	EnableCORS   bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig binds loopback; there is no auth layer in front of this API.
func DefaultConfig() *Config {
	return &Config{
		Addr:         "127.0.0.1:4096",
		EnableCORS:   true,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // SSE connections stay open indefinitely
	}
}

// Server is the HTTP host for the team API.
type Server struct {
	config  *Config
	router  *chi.Mux
	httpSrv *http.Server
	manager *team.Manager
	mcp     *mcp.Client
	log     zerolog.Logger

	// checker gates dangerous tool calls on the direct-message route.
	// Requests surface on /events; hosts answer on POST /permissions.
	checker *permission.Checker

	// mu serializes team mutation, broadcast and direct-message handlers.
	// channels keeps one Channel per team (by safe name) so transcripts
	// persist across broadcasts; rosters lets each channel follow the
	// latest loaded copy of its team.
	mu       sync.Mutex
	channels map[string]*channel.Channel
	rosters  map[string]*rosterHolder
}

// New creates a Server around an existing team manager. mcpClient may be
// nil when no MCP servers are configured.
func New(cfg *Config, mgr *team.Manager, mcpClient *mcp.Client) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		manager:  mgr,
		mcp:      mcpClient,
		log:      logging.WithComponent("server"),
		checker:  permission.NewChecker(),
		channels: make(map[string]*channel.Channel),
		rosters:  make(map[string]*rosterHolder),
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	if s.config.EnableCORS {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
}

// Start blocks serving the API until Shutdown or a listener error.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.log.Info().Str("addr", s.config.Addr).Msg("http server listening")
	return s.httpSrv.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Router exposes the chi mux for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// rosterHolder is the indirection between a long-lived Channel and the
// team instance currently loaded for its name. Reloading a team swaps the
// pointer; the channel keeps its transcript.
type rosterHolder struct {
	mu   sync.RWMutex
	team *team.Team
}

func (h *rosterHolder) set(t *team.Team) {
	h.mu.Lock()
	h.team = t
	h.mu.Unlock()
}

func (h *rosterHolder) Agents() []*agent.Agent {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.team == nil {
		return nil
	}
	return h.team.Agents()
}

// channelFor returns the team's channel, creating it on first use. Caller
// holds s.mu.
func (s *Server) channelFor(safeName string) (*channel.Channel, *rosterHolder) {
	if ch, ok := s.channels[safeName]; ok {
		return ch, s.rosters[safeName]
	}

	holder := &rosterHolder{}
	ch := channel.New(holder, s.config.WorkDir)
	s.channels[safeName] = ch
	s.rosters[safeName] = holder
	return ch, holder
}

// dropChannel forgets a deleted team's channel and transcript. Caller holds
// s.mu.
func (s *Server) dropChannel(safeName string) {
	delete(s.channels, safeName)
	delete(s.rosters, safeName)
}
