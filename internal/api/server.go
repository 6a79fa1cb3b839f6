// Package api serves the assessment HTTP API.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/sells-group/maturity-cli/internal/assessment"
	"github.com/sells-group/maturity-cli/internal/config"
)

// Server is the HTTP API server.
type Server struct {
	config  config.ServerConfig
	router  *chi.Mux
	service *assessment.Service
}

// NewServer creates a Server with all routes mounted.
func NewServer(cfg config.ServerConfig, svc *assessment.Service) *Server {
	s := &Server{config: cfg, service: svc}
	s.setupRouter()
	return s
}

// Router returns the configured router.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout()))
	if s.config.RateLimit > 0 {
		burst := s.config.RateBurst
		if burst <= 0 {
			burst = int(s.config.RateLimit) + 1
		}
		r.Use(rateLimitMiddleware(rate.NewLimiter(rate.Limit(s.config.RateLimit), burst)))
	}

	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/score", s.handleScore)

		r.Route("/assessments", func(r chi.Router) {
			r.Post("/", s.handleCreateAssessment)
			r.Post("/import", s.handleImport)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetAssessment)
				r.Put("/answers", s.handleSaveAnswers)
				r.Post("/complete", s.handleComplete)
				r.Get("/report", s.handleReport)
				r.Get("/export", s.handleExport)
			})
		})

		r.Get("/benchmarks/resolve", s.handleResolveBenchmark)

		r.Route("/cohort", func(r chi.Router) {
			r.Get("/industry", s.handleIndustry)
			r.Get("/leaderboard", s.handleLeaderboard)
		})
	})

	s.router = r
}

func (s *Server) requestTimeout() time.Duration {
	if s.config.RequestTimeoutSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.config.RequestTimeoutSecs) * time.Second
}
