// Package server provides the HTTP server and routing for Holdwatch.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/holdwatch/holdwatch/internal/auth"
	"github.com/holdwatch/holdwatch/internal/config"
	"github.com/holdwatch/holdwatch/internal/database"
	assetshandlers "github.com/holdwatch/holdwatch/internal/modules/assets/handlers"
	holdingshandlers "github.com/holdwatch/holdwatch/internal/modules/holdings/handlers"
	markethandlers "github.com/holdwatch/holdwatch/internal/modules/market/handlers"
)

// Config holds server wiring
type Config struct {
	Log              zerolog.Logger
	Config           *config.Config
	DB               *database.DB
	HoldingsHandlers *holdingshandlers.Handler
	AssetsHandlers   *assetshandlers.Handler
	MarketHandlers   *markethandlers.Handler
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	db             *database.DB
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg.Config,
		db:             cfg.DB,
		systemHandlers: NewSystemHandlers(cfg.DB, cfg.Log),
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes(cfg)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Router exposes the route tree, used by tests
func (s *Server) Router() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(cfg Config) {
	// Liveness probe, outside auth
	s.router.Get("/health", s.handleHealth)

	authMiddleware := auth.NewMiddleware(s.cfg.JWTSecret, s.log)

	s.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			cfg.HoldingsHandlers.RegisterRoutes(r)
			cfg.AssetsHandlers.RegisterRoutes(r)
			cfg.MarketHandlers.RegisterRoutes(r)
		})

		r.Get("/system/status", s.systemHandlers.HandleSystemStatus)
	})
}

// Start begins listening for requests
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.QuickCheck(r.Context()); err != nil {
		s.log.Error().Err(err).Msg("Health check failed")
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"status":%q,"timestamp":%q}`, status, time.Now().Format(time.RFC3339))
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
