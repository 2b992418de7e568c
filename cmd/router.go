package cmd

import (
	"net/http"
	"time"

	"fitpair-backend/internal/config"
	"fitpair-backend/internal/handlers"
	"fitpair-backend/internal/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// routeHandlers bundles the HTTP handlers mounted by newRouter
type routeHandlers struct {
	auth            middleware.TokenValidator
	profiles        *handlers.ProfileHandler
	friends         *handlers.FriendHandler
	workouts        *handlers.WorkoutHandler
	notifications   *handlers.NotificationHandler
	recommendations *handlers.RecommendationHandler
	websocket       *handlers.WebSocketHandler
}

func newRouter(cfg *config.Config, h *routeHandlers) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	// WebSocket route
	r.Get("/ws", h.websocket.HandleWebSocket)

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimit(cfg.RateLimit.Disabled, cfg.RateLimit.RequestsPerMinute, httprate.KeyByIP))
		r.Use(middleware.AuthMiddleware(h.auth))

		// every call costs an AI request
		r.With(rateLimit(cfg.RateLimit.Disabled, cfg.RateLimit.RecommendationsPerMinute, middleware.UserKey)).
			Get("/recommended", h.recommendations.GetRecommendations)

		r.Post("/profile", h.profiles.SaveProfile)
		r.Get("/profile", h.profiles.GetProfile)
		r.Post("/profile/picture", h.profiles.UploadPicture)
		r.Put("/profile/push-token", h.profiles.SetPushToken)

		r.Post("/friends", h.friends.AddFriend)
		r.Get("/friends", h.friends.ListFriends)

		r.Post("/workouts", h.workouts.CreateWorkout)
		r.Get("/workouts", h.workouts.ListWorkouts)

		r.Post("/notifications", h.notifications.CreateNotification)
		r.Get("/notifications", h.notifications.ListNotifications)
	})

	return r
}

func rateLimit(disabled bool, requestsPerMinute int, keyFunc httprate.KeyFunc) func(http.Handler) http.Handler {
	if disabled || requestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return httprate.Limit(requestsPerMinute, time.Minute, httprate.WithKeyFuncs(keyFunc))
}
