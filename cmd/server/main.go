package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/deefind/detector-server-go/internal/config"
	"github.com/deefind/detector-server-go/internal/database"
	"github.com/deefind/detector-server-go/internal/handler"
	"github.com/deefind/detector-server-go/internal/middleware"
	"github.com/deefind/detector-server-go/internal/redis"
	"github.com/deefind/detector-server-go/internal/service"
	"github.com/deefind/detector-server-go/internal/storage"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()

	var store storage.Store
	switch cfg.StorageBackend {
	case config.StorageBackendPostgres:
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		if err := db.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ping database")
		}

		pg := storage.NewPostgres(db.DB)
		if err := pg.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate storage schema")
		}
		store = pg
		log.Info().Msg("postgres storage connected")

	case config.StorageBackendRedis:
		client, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()

		store = storage.NewRedis(client.Client)
		log.Info().Msg("redis storage connected")

	default:
		store = storage.NewMemory()
		log.Info().Msg("in-memory storage ready")
	}

	accountService, err := service.NewAccountService(ctx, store)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load account store")
	}
	usageService, err := service.NewUsageService(ctx, store, cfg.FreeDetectionLimit)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load usage tracker")
	}

	inferenceClient := service.NewInferenceClient(
		cfg.PredictURL, time.Duration(cfg.PredictTimeoutSecs)*time.Second,
	)
	detectionService := service.NewDetectionService(accountService, usageService, inferenceClient)

	loginLimiter := middleware.NewLoginRateLimiter()
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(cfg.MaxUploadBytes)

	authHandler := handler.NewAuthHandler(accountService, usageService, loginLimiter)
	usageHandler := handler.NewUsageHandler(accountService, usageService)
	detectionHandler := handler.NewDetectionHandler(detectionService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Mount("/auth", authHandler.Routes())
		r.Get("/usage", usageHandler.Get)
		r.Mount("/detections", detectionHandler.Routes())
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
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
