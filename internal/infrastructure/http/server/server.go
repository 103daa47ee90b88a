// Package server provides the JSON API HTTP server of the planner
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/dietcompass/planner/internal/infrastructure/config"
	"github.com/dietcompass/planner/internal/infrastructure/http/handlers"
	"github.com/dietcompass/planner/internal/infrastructure/http/middleware"
	"github.com/dietcompass/planner/internal/infrastructure/monitoring"
	"github.com/dietcompass/planner/pkg/healthcheck"
)

// Handlers groups the API handlers mounted by the server
type Handlers struct {
	Planning  *handlers.PlanningHandlers
	Recipes   *handlers.RecipeHandlers
	Household *handlers.HouseholdHandlers
}

// Server represents the HTTP server
type Server struct {
	config   *config.Config
	logger   *zap.Logger
	router   *chi.Mux
	server   *http.Server
	handlers Handlers
	metrics  *monitoring.MetricsCollector
	health   *healthcheck.HealthCheck
}

// NewServer creates a new HTTP server instance. metrics may be nil.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	h Handlers,
	metrics *monitoring.MetricsCollector,
	health *healthcheck.HealthCheck,
) *Server {
	s := &Server{
		config:   cfg,
		logger:   logger.Named("http"),
		handlers: h,
		metrics:  metrics,
		health:   health,
	}
	s.router = s.setupRouter()

	s.server = &http.Server{
		Addr:              cfg.GetServerAddr(),
		Handler:           otelhttp.NewHandler(s.router, "dietcompass-api"),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    1 << 20,
	}

	return s
}

// setupRouter configures middleware and routes
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()
	healthPath := s.config.Monitoring.HealthCheckPath

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Household(s.config.Server.DefaultHousehold))
	r.Use(middleware.Logger(s.logger, healthPath, s.config.Monitoring.MetricsPath))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Security)
	r.Use(middleware.CORS(s.config.Server.AllowedOrigins))
	if s.metrics != nil {
		r.Use(s.metrics.HTTPMiddleware)
	}
	r.Use(limitBody(s.config.Server.MaxBodyBytes))

	if s.health != nil {
		r.Get(healthPath, s.health.Handler())
		r.Get(healthPath+"/live", s.health.LivenessHandler())
		r.Get(healthPath+"/ready", s.health.ReadinessHandler())
	}
	if s.metrics != nil && s.config.Monitoring.EnableMetrics {
		r.Handle(s.config.Monitoring.MetricsPath, s.metrics.Handler())
	}

	r.Route("/api/v1", s.setupAPIV1Routes)
	return r
}

// setupAPIV1Routes configures API v1 endpoints
func (s *Server) setupAPIV1Routes(r chi.Router) {
	if p := s.handlers.Planning; p != nil {
		r.Route("/plans", func(r chi.Router) {
			if limit := s.config.Server.RateLimit; limit.RequestsPerMin > 0 {
				r.Use(middleware.RateLimit(limit.RequestsPerMin, limit.Burst, s.logger))
			}
			r.Get("/current", p.CurrentPlan)
			r.Get("/history", p.History)
			r.Post("/reconcile", p.Reconcile)
			r.Post("/stream", p.Stream)
			r.Post("/generate", p.Generate)
			r.Post("/request", p.BuildRequest)
		})
	}

	if h := s.handlers.Recipes; h != nil {
		r.Route("/recipes/{id}", func(r chi.Router) {
			r.Get("/score", h.Score)
			r.Put("/favorite", h.Favorite)
			r.Put("/rating", h.Rate)
			r.Post("/cooked", h.Cooked)
			r.Post("/variations", h.LinkVariation)
		})
		r.Post("/scores", h.ScoreIngredients)
	}

	if h := s.handlers.Household; h != nil {
		r.Route("/household", func(r chi.Router) {
			r.Get("/groups", h.Groups)
			r.Get("/eaters", h.Eaters)
			r.Put("/eaters", h.SaveEaters)
			r.Get("/schedule", h.Schedule)
			r.Put("/schedule", h.SaveSchedule)
		})
		r.Get("/profiles", h.Profiles)
		r.Post("/seed", h.Seed)
	}
}

// limitBody caps request bodies at max bytes
func limitBody(max int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if max > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, max)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Handler returns the instrumented root handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server and blocks until it stops. A graceful
// shutdown is not reported as an error.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("address", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
