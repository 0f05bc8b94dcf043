package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"dreamlog-client/application/session"
	"dreamlog-client/infrastructure/config"
	"dreamlog-client/interfaces/http/rest/handlers"
	"dreamlog-client/interfaces/http/rest/middleware"
	"dreamlog-client/pkg/auth"
	apperrors "dreamlog-client/pkg/errors"
	"dreamlog-client/pkg/observability"
)

// Router wires the HTTP surface over the session engine.
type Router struct {
	sessions  *session.Manager
	validator *auth.Validator
	errors    *apperrors.ErrorHandler
	metrics   *observability.Collector
	config    *config.Config
	logger    *zap.Logger
}

// NewRouter creates a router instance.
func NewRouter(
	sessions *session.Manager,
	validator *auth.Validator,
	errorHandler *apperrors.ErrorHandler,
	metrics *observability.Collector,
	cfg *config.Config,
	logger *zap.Logger,
) *Router {
	return &Router{
		sessions:  sessions,
		validator: validator,
		errors:    errorHandler,
		metrics:   metrics,
		config:    cfg,
		logger:    logger,
	}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errors.Middleware)
	router.Use(middleware.Logger(rt.logger))

	if rt.config.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	if rt.config.EnableMetrics {
		router.Handle("/metrics", promhttp.HandlerFor(rt.metrics.Registry(), promhttp.HandlerOpts{}))
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.validator, rt.logger))

		entryHandler := handlers.NewEntryHandler(rt.sessions, rt.errors, rt.logger)
		feedHandler := handlers.NewFeedHandler(rt.sessions, rt.errors, rt.logger)
		socialHandler := handlers.NewSocialHandler(rt.sessions, rt.errors, rt.logger)
		commentHandler := handlers.NewCommentHandler(rt.sessions, rt.errors, rt.logger)
		sessionHandler := handlers.NewSessionHandler(rt.sessions, rt.errors, rt.logger)

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", entryHandler.ListOwn)
			r.Post("/", entryHandler.Create)
			r.Get("/{entryID}", entryHandler.Open)
			r.Put("/{entryID}", entryHandler.Update)
			r.Delete("/{entryID}", entryHandler.Delete)
			r.Post("/{entryID}/close", entryHandler.Close)
			r.Post("/{entryID}/tab", entryHandler.SwitchTab)
			r.Post("/{entryID}/visibility", entryHandler.SetVisibility)
			r.Post("/{entryID}/interpretation", entryHandler.RequestInterpretation)
			r.Post("/{entryID}/like", socialHandler.ToggleLike)

			r.Route("/{entryID}/comments", func(r chi.Router) {
				r.Get("/", commentHandler.List)
				r.Post("/", commentHandler.Create)
				r.Delete("/{commentID}", commentHandler.Delete)
			})
		})

		r.Route("/feed", func(r chi.Router) {
			r.Get("/", feedHandler.Get)
			r.Post("/refresh", feedHandler.Refresh)
			r.Get("/search", feedHandler.Search)
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/{userID}/follow", socialHandler.Follow)
			r.Delete("/{userID}/follow", socialHandler.Unfollow)
			r.Get("/{userID}/stats", socialHandler.Stats)
		})

		r.Get("/me", socialHandler.Me)
		r.Delete("/session", sessionHandler.End)
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
