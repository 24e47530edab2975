package api

import (
	"net/http"

	"github.com/dom/blog-backend/internal/api/handlers"
	"github.com/dom/blog-backend/internal/api/middleware"
	"github.com/dom/blog-backend/internal/api/response"
	"github.com/dom/blog-backend/internal/config"
	"github.com/dom/blog-backend/internal/service"
	"github.com/dom/blog-backend/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

func NewRouter(services *service.Services, hub *websocket.Hub, cfg *config.Config, log *logrus.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RequestLogger(&chiMiddleware.DefaultLogFormatter{Logger: log, NoColor: true}))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.LimitBody(cfg.MaxBodyBytes))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth, log.WithField("component", "api.auth"))
	blogHandler := handlers.NewBlogHandler(services.Post, log.WithField("component", "api.blog"))
	feedHandler := handlers.NewFeedHandler(hub, log.WithField("component", "api.feed"))
	requireAuth := middleware.Auth(services.Tokens, log.WithField("component", "api.auth"))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			response.JSON(w, http.StatusOK, map[string]string{"status": "OK"})
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			// Protected auth routes
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", authHandler.Me)
			})
		})

		r.Route("/blogs", func(r chi.Router) {
			r.Get("/", blogHandler.List)
			r.Get("/feed", feedHandler.Handle)
			r.Get("/{id}", blogHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", blogHandler.Create)
				r.Put("/{id}", blogHandler.Update)
				r.Delete("/{id}", blogHandler.Delete)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "Route not found")
	})

	return r
}
