package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/vsdgest/internal/config"
	"github.com/dgallion1/vsdgest/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
)

// Server is the HTTP API server for vsdgest.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/decode", s.handleDecode)
		r.Post("/api/decode/batch", s.handleBatchDecode)
		r.Get("/api/decode/{jobID}/status", s.handleDecodeStatus)
		r.Get("/api/stats/decode", s.handleDecodeStats)

		// Results can be large; compress them when the client allows it.
		r.Group(func(r chi.Router) {
			r.Use(compress)
			r.Get("/api/decode/{jobID}/tree", s.handleTree)
			r.Get("/api/decode/{jobID}/outline", s.handleOutline)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func compress(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}
