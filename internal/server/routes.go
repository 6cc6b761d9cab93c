package server

import (
	"github.com/go-chi/chi/v5"
)

func (s *Server) setupRoutes() {
	r := s.router

	r.Get("/status", s.getStatus)

	r.Route("/teams", func(r chi.Router) {
		r.Get("/", s.listTeams)
		r.Post("/", s.createTeam)

		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.getTeam)
			r.Delete("/", s.deleteTeam)
			r.Post("/agents", s.addAgent)
			r.Delete("/agents/{agentID}", s.removeAgent)
			r.Post("/agents/{agentID}/message", s.messageAgent)
			r.Post("/broadcast", s.broadcast)
		})
	})

	r.Post("/permissions/{requestID}", s.resolvePermission)
	r.Get("/events", s.streamEvents)
}
