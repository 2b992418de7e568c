package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fitpair-backend/internal/cache"
	"fitpair-backend/internal/config"
	"fitpair-backend/internal/gemini"
	"fitpair-backend/internal/handlers"
	"fitpair-backend/internal/recommend"
	"fitpair-backend/internal/repository"
	"fitpair-backend/internal/services"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	ctx := context.Background()

	// Open document store
	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("Failed to open store")
	}
	defer store.Close()
	log.Info().Str("driver", cfg.Store.Driver).Msg("Store connection established")

	// Optional recommendation cache
	var recommendCache recommend.Cache
	if cfg.Redis.Addr != "" {
		client, err := cache.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer client.Close()

		recommendCache = cache.NewRedisCache(client, cfg.Recommend.CacheTTL)
	}

	// Optional push notifications
	var pusher services.Pusher
	if cfg.APNs.KeyFile != "" {
		p, err := services.NewPushSender(&cfg.APNs)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create push sender")
		}
		pusher = p
	}

	// Optional profile picture uploads
	var pictureService *services.PictureService
	if cfg.AWS.S3Bucket != "" {
		pictureService, err = services.NewPictureService(ctx, store.Users, &cfg.AWS)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create picture service")
		}
	}

	// Initialize services
	authService := services.NewAuthService(cfg.JWT.Secret)
	hub := services.NewNotificationHub()
	notificationService := services.NewNotificationService(store.Notifications, store.Users, hub, pusher)
	profileService := services.NewProfileService(store.Users)
	friendService := services.NewFriendService(store.Users, store.Friends, notificationService)
	workoutService := services.NewWorkoutService(store.Workouts)

	geminiClient := gemini.NewClient(gemini.Config{
		BaseURL:         cfg.AI.BaseURL,
		Model:           cfg.AI.Model,
		APIKey:          cfg.AI.APIKey,
		MaxRetries:      cfg.AI.MaxRetries,
		RetryDelay:      cfg.AI.RetryDelay,
		BreakerFailures: cfg.AI.Breaker.ConsecutiveFailures,
		BreakerTimeout:  cfg.AI.Breaker.OpenTimeout,
	})
	recommendService := recommend.NewService(
		recommend.NewCandidateGatherer(store.Users, store.Friends),
		geminiClient,
		recommend.Options{
			GymPolicy: cfg.Recommend.GymPolicy,
			Timeout:   cfg.AI.Timeout,
			Cache:     recommendCache,
		},
	)

	// Initialize handlers
	router := newRouter(cfg, &routeHandlers{
		auth:            authService,
		profiles:        handlers.NewProfileHandler(profileService, pictureService),
		friends:         handlers.NewFriendHandler(friendService),
		workouts:        handlers.NewWorkoutHandler(workoutService),
		notifications:   handlers.NewNotificationHandler(notificationService),
		recommendations: handlers.NewRecommendationHandler(recommendService),
		websocket:       handlers.NewWebSocketHandler(hub, authService, cfg.CORS.AllowedOrigins),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Str("model", cfg.AI.Model).
			Str("gym_policy", cfg.Recommend.GymPolicy).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Hijacked WebSocket connections are not closed by Shutdown
	hub.Close()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func openStore(ctx context.Context, cfg *config.Config) (*repository.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		return repository.NewPostgresStore(ctx, cfg.Database.DSN())
	case config.DriverFirestore:
		return repository.NewFirestoreStore(ctx, cfg.Firestore.ProjectID, cfg.Firestore.CredentialsFile)
	case config.DriverMemory:
		log.Warn().Msg("Using in-memory store, data is lost on restart")
		return repository.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
