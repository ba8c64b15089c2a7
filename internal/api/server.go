package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mindwell/stress-engine/internal/catalog"
	"github.com/mindwell/stress-engine/internal/config"
	"github.com/mindwell/stress-engine/internal/detector"
	"github.com/mindwell/stress-engine/internal/service"
	"github.com/mindwell/stress-engine/internal/storage"
)

// Server represents the HTTP API server
type Server struct {
	config    config.ServerConfig
	router    *chi.Mux
	stress    service.Service
	exercises *catalog.Loader
	detector  *detector.Worker
	userAuth  *UserAuth
	adminAuth *AuthMiddleware
	limiter   *RateLimiter
	hub       *PatternHub
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	authCfg config.AuthConfig,
	rlCfg config.RateLimitConfig,
	stress service.Service,
	exercises *catalog.Loader,
	w *detector.Worker,
	repo storage.Repository,
) *Server {
	s := &Server{
		config:    cfg,
		stress:    stress,
		exercises: exercises,
		detector:  w,
		userAuth:  NewUserAuth(authCfg.JWTSecret),
		adminAuth: NewAuthMiddleware(repo),
		limiter:   NewRateLimiter(rlCfg.RequestsPerSecond, rlCfg.Burst),
		hub:       NewPatternHub(),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub returns the pattern watch hub, for wiring as detector notifier
func (s *Server) Hub() *PatternHub {
	return s.hub
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API - public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// API v1 routes (user-facing, JWT protected)
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.userAuth.Authenticate)

			r.Route("/stress", func(r chi.Router) {
				r.With(s.limiter.Limit).Post("/submit", s.handleSubmit)
				r.Get("/history", s.handleHistory)
				r.Get("/patterns", s.handlePatterns)
				r.Get("/patterns/watch", s.handlePatternsWatch)
				r.Get("/stats", s.handleStats)
				r.Put("/routine-effectiveness/{id}", s.handleRateRoutine)
			})

			r.Route("/exercises", func(r chi.Router) {
				r.Get("/", s.handleListExercises)
				r.Get("/{id}", s.handleGetExercise)
			})
		})

		// Admin surface (API key protected)
		r.Route("/admin", func(r chi.Router) {
			r.Use(s.adminAuth.Authenticate)

			r.With(s.adminAuth.RequirePermission("patterns:recompute")).
				Post("/patterns/recompute/{userID}", s.handleRecomputePattern)
			r.Get("/clients/me", s.handleClientMe)
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
