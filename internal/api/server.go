// Package api exposes the file catalog over HTTP. It is a thin adapter:
// handlers parse the request, call one catalog operation and marshal the
// result to JSON.
package api

import (
	"context"
	"net/http"

	"github.com/arkivio/arkiv/internal/catalog"
	"github.com/arkivio/arkiv/internal/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Pinger is any backend whose reachability can be checked.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server maps HTTP routes onto catalog operations.
type Server struct {
	catalog *catalog.Service
	log     *logger.Logger
	health  map[string]Pinger
}

// NewServer builds a Server around the given catalog service.
func NewServer(svc *catalog.Service, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		catalog: svc,
		log:     log,
		health:  map[string]Pinger{},
	}
}

// SetHealthChecks registers named backends for the /healthz endpoint.
func (s *Server) SetHealthChecks(checks map[string]Pinger) {
	s.health = checks
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/files", func(r chi.Router) {
			r.Get("/", s.listFiles)
			r.Post("/", s.createFile)
			r.Get("/{id}", s.getFile)
			r.Patch("/{id}", s.updateFile)
			r.Delete("/{id}", s.deleteFile)
			r.Get("/{id}/download", s.downloadFile)
			r.Get("/{id}/content", s.fileContent)
		})
		r.Get("/search", s.searchFiles)
	})
	r.Get("/healthz", s.healthz)

	return r
}
