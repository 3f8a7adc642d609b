package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/docpass/internal/config"
	"github.com/dgallion1/docpass/internal/imagehost"
	"github.com/dgallion1/docpass/internal/parser"
	"github.com/dgallion1/docpass/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for docpass.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	images       *imagehost.Client
	log          *slog.Logger
	cfg          config.Config
	parseOpts    parser.Options
}

// NewServer creates and configures the HTTP server. images may be nil when
// no image host is configured.
func NewServer(orch *pipeline.Orchestrator, images *imagehost.Client, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		images:       images,
		log:          log,
		cfg:          cfg,
		parseOpts: parser.Options{
			MarkdownExtensions:   cfg.MarkdownExtensions,
			PDFFallbackPdftotext: cfg.PDFFallbackPdftotext,
		},
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
		r.Use(AuthMiddleware(s.cfg.DocpassAPIKey, s.log))

		r.Post("/api/describe", s.handleDescribe)
		r.Post("/api/images", s.handleImages)
		r.Post("/api/rewrite", s.handleRewrite)

		r.Post("/api/convert", s.handleConvert)
		r.Post("/api/convert/batch", s.handleBatchConvert)
		r.Get("/api/convert/{jobID}", s.handleConvertStatus)

		r.Get("/api/stats/uploads", s.handleUploadStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
