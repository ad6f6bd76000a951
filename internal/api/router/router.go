package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/firsttier/support-triage/internal/http/handlers"
	httpmiddleware "github.com/firsttier/support-triage/internal/http/middleware"
	"github.com/firsttier/support-triage/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	TriageHandler      *handlers.TriageHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (health checks, metrics)
	r.Group(func(public chi.Router) {
		public.Get("/health", cfg.TriageHandler.HealthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	r.Route("/v1", func(v1 chi.Router) {
		v1.Post("/triage", cfg.TriageHandler.Triage)
		v1.Route("/conversations/{conversationID}", func(conv chi.Router) {
			conv.Get("/", cfg.TriageHandler.GetConversation)
			conv.Post("/answers", cfg.TriageHandler.SubmitAnswer)
		})
	})

	return r
}
