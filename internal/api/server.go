// Package api provides the HTTP API server and handlers for the Tastebook
// application.
package api

import (
	"net/http"
	"path"
	"strings"

	"log/slog"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/tastebookapp/tastebook-server/internal/http/response"
	"github.com/tastebookapp/tastebook-server/internal/media/images"
	"github.com/tastebookapp/tastebook-server/internal/search"
	"github.com/tastebookapp/tastebook-server/internal/service"
	"github.com/tastebookapp/tastebook-server/internal/store/sqlite"
)

// tokenPath is the credential exchange endpoint, rate limited per client IP.
const tokenPath = "/api/v1/users/token"

// Services bundles the application services the handlers depend on.
type Services struct {
	Auth        *service.AuthService
	Recipes     *service.RecipeService
	Tags        *service.TagService
	Ingredients *service.IngredientService
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services     *Services
	store        *sqlite.Store
	storage      *images.Storage
	search       *search.Index // nil when search is disabled
	router       *chi.Mux
	api          huma.API
	tokenLimiter *RateLimiter
	logger       *slog.Logger
}

// NewServer creates an HTTP server with all routes configured.
func NewServer(services *Services, store *sqlite.Store, storage *images.Storage, searchIndex *search.Index, tokenLimiter *RateLimiter, serverName string, logger *slog.Logger) *Server {
	s := &Server{
		services:     services,
		store:        store,
		storage:      storage,
		search:       searchIndex,
		router:       chi.NewRouter(),
		tokenLimiter: tokenLimiter,
		logger:       logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig(serverName+" API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerUserRoutes()
	s.registerRecipeRoutes()
	s.registerTagRoutes()
	s.registerIngredientRoutes()

	// Multipart upload and media serving bypass huma; they are plain chi
	// handlers sharing the same auth context.
	s.router.Post("/api/v1/recipes/{id}/image", s.handleUploadRecipeImage)
	s.router.Get("/media/*", s.handleServeMedia)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(authMiddleware(s.services.Auth))

	if s.tokenLimiter != nil {
		limited := RateLimitMiddleware(s.tokenLimiter, s.logger)
		s.router.Use(func(next http.Handler) http.Handler {
			limitedNext := limited(next)
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodPost && r.URL.Path == tokenPath {
					limitedNext.ServeHTTP(w, r)
					return
				}
				next.ServeHTTP(w, r)
			})
		})
	}
}

// handleServeMedia serves uploaded images from local storage.
// GET /media/{path}
func (s *Server) handleServeMedia(w http.ResponseWriter, r *http.Request) {
	relPath := chi.URLParam(r, "*")

	// Normalize and refuse anything escaping the media root.
	relPath = path.Clean("/" + relPath)[1:]
	if relPath == "" || strings.HasPrefix(relPath, "..") {
		response.NotFound(w, "file not found", s.logger)
		return
	}

	if !s.storage.Exists(relPath) {
		response.NotFound(w, "file not found", s.logger)
		return
	}

	http.ServeFile(w, r, s.storage.AbsPath(relPath))
}
