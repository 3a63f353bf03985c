package api

import (
	"net/http"

	_ "github.com/blaisecz/smart-sleep/docs"
	"github.com/blaisecz/smart-sleep/internal/api/handler"
	"github.com/blaisecz/smart-sleep/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type Router struct {
	userHandler     *handler.UserHandler
	sessionHandler  *handler.SessionHandler
	insightsHandler *handler.InsightsHandler
	logger          *zap.Logger
}

func NewRouter(
	userHandler *handler.UserHandler,
	sessionHandler *handler.SessionHandler,
	insightsHandler *handler.InsightsHandler,
	logger *zap.Logger,
) *Router {
	return &Router{
		userHandler:     userHandler,
		sessionHandler:  sessionHandler,
		insightsHandler: insightsHandler,
		logger:          logger,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Tracing)
	r.Use(middleware.Logger(rt.logger))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Users
		r.Route("/users", func(r chi.Router) {
			r.Post("/", rt.userHandler.Create)
			r.Get("/{userId}", rt.userHandler.GetByID)
			r.Patch("/{userId}", rt.userHandler.Update)

			// Tracked sessions (nested under users)
			r.Route("/{userId}/sessions", func(r chi.Router) {
				r.Post("/", rt.sessionHandler.Start)
				r.Get("/", rt.sessionHandler.List)
				r.Get("/export", rt.sessionHandler.Export)

				r.Route("/active", func(r chi.Router) {
					r.Get("/", rt.sessionHandler.Active)
					r.Get("/stream", rt.sessionHandler.Stream)
					r.Post("/samples", rt.sessionHandler.RecordSamples)
					r.Post("/stop", rt.sessionHandler.Stop)
				})

				r.Get("/{sessionId}", rt.sessionHandler.Get)
				r.Post("/{sessionId}/sync", rt.sessionHandler.Sync)
			})

			// Sleep analytics
			r.Route("/{userId}/sleep", func(r chi.Router) {
				r.Get("/chronotype", rt.insightsHandler.GetChronotype)
				r.Get("/trends", rt.insightsHandler.GetTrends)
				r.Get("/insights", rt.insightsHandler.GetInsights)
				r.Post("/insights/feedback", rt.insightsHandler.PostFeedback)
			})
		})
	})

	return r
}
