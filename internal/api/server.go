// Package api exposes the place and user services over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/placeshare/places-server/internal/auth"
	"github.com/placeshare/places-server/internal/store"
)

// Options configures the HTTP surface.
type Options struct {
	Title       string
	Version     string
	CORSOrigins []string

	// MutationsPerMinute caps POST, PATCH and DELETE requests per actor.
	// Zero disables the limit.
	MutationsPerMinute int
	MutationBurst      int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           store.Store
	services        *Services
	tokens          *auth.TokenService
	router          *chi.Mux
	api             huma.API
	logger          *slog.Logger
	mutationLimiter *RateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, services *Services, tokens *auth.TokenService, opts Options, logger *slog.Logger) *Server {
	if opts.Title == "" {
		opts.Title = "Places API"
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}

	s := &Server{
		store:    st,
		services: services,
		tokens:   tokens,
		router:   chi.NewRouter(),
		logger:   logger,
	}
	if opts.MutationsPerMinute > 0 {
		s.mutationLimiter = NewRateLimiter(opts.MutationsPerMinute, time.Minute, max(opts.MutationBurst, 1))
	}

	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig(opts.Title, opts.Version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerPlaceRoutes()
	s.registerSearchRoutes()
	s.registerUserRoutes()
	s.registerAdminRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, e.g. for exporting the OpenAPI document.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	if s.mutationLimiter != nil {
		s.mutationLimiter.Stop()
	}
}

func (s *Server) setupMiddleware(opts Options) {
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(requestIDMiddleware)
	s.router.Use(middleware.RealIP)
	s.router.Use(tracingMiddleware)
	s.router.Use(accessLogMiddleware(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, "Retry-After"},
		MaxAge:         300,
	}))
	s.router.Use(authMiddleware(s.tokens))
	if s.mutationLimiter != nil {
		s.router.Use(MutationRateLimitMiddleware(s.mutationLimiter, s.logger))
	}
}
