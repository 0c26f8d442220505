package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/ksred/klear-datagen/internal/app"
	"github.com/ksred/klear-datagen/internal/auth"
	"github.com/ksred/klear-datagen/internal/config"
	"github.com/ksred/klear-datagen/internal/database"
	"github.com/ksred/klear-datagen/internal/events"
	"github.com/ksred/klear-datagen/internal/marketdata"
	"github.com/ksred/klear-datagen/internal/scenario"
	"github.com/ksred/klear-datagen/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// main runs the generator API with graceful shutdown. Datasets written by
// earlier runs under the output directory are loaded at startup.
func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load config")
	}
	app.ConfigureLogging(cfg.App)
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := database.NewDatabase(cfg.DB.Path)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	cache, closeCache, err := app.NewCache(ctx, cfg)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize market data")
	}
	defer closeCache()

	files := scenario.NewFileStore(cfg.Generator.OutputDir)
	registry, err := files.LoadAll(ctx)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		registry = scenario.NewRegistry()
	case err != nil:
		zlog.Fatal().Err(err).Str("dir", files.Dir()).Msg("Failed to load stored scenarios")
	default:
		zlog.Info().Int("scenarios", registry.Len()).Msg("Loaded stored scenarios")
	}

	orchestrator := scenario.NewOrchestrator(cache, scenario.Options{
		Seed:     cfg.Generator.Seed,
		Registry: registry,
	})

	var publisher events.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			TopicPrefix:  cfg.Kafka.TopicPrefix,
			BatchTimeout: cfg.Kafka.BatchTimeout,
		})
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	// Initialize services and handlers
	authService := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService.RegisterAPICredentials(cfg.Auth.APIKey, cfg.Auth.APISecret)
	if cfg.Auth.InternalAPIKey != "" {
		authService.RegisterAPICredentials(cfg.Auth.InternalAPIKey, cfg.Auth.InternalAPISecret,
			auth.PermissionGenerate, auth.PermissionInternal)
	}
	authHandlers := auth.NewGinHandlers(authService)

	scenarioHandlers := scenario.NewGinHandlers(orchestrator, database.NewDocumentStore(db), publisher, database.NewSeeder(db))
	snapshotHandlers := marketdata.NewGinHandlers(cache)

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), middleware.RateLimit())
	setupRoutes(router, cfg.Auth.JWTSecret, authHandlers, scenarioHandlers, snapshotHandlers)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		zlog.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("Server forced to shutdown")
	}

	if err := files.SaveAll(context.Background(), orchestrator.Registry()); err != nil {
		zlog.Error().Err(err).Msg("Failed to persist scenarios")
	}
	zlog.Info().Msg("Server exiting")
}

// setupRoutes groups the endpoints and applies their middleware:
// - Auth routes: public token issue
// - Scenario and snapshot routes: JWT
// - Internal routes: JWT with the internal permission
func setupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authHandlers *auth.GinHandlers,
	scenarioHandlers *scenario.GinHandlers,
	snapshotHandlers *marketdata.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		tokens := v1.Group("/auth")
		{
			tokens.POST("/token", authHandlers.GenerateTokenHandler())
		}

		scenarios := v1.Group("/scenarios")
		scenarios.Use(middleware.JWTAuth(jwtSecret))
		{
			scenarios.POST("/trade", scenarioHandlers.GenerateTradeHandler())
			scenarios.POST("/round-trip", scenarioHandlers.GenerateRoundTripHandler())
			scenarios.GET("", scenarioHandlers.ListHandler())
			scenarios.GET("/:scenario_id", scenarioHandlers.GetHandler())
		}

		snapshots := v1.Group("/snapshots")
		snapshots.Use(middleware.JWTAuth(jwtSecret))
		{
			snapshots.GET("/:symbol", snapshotHandlers.GetSnapshotHandler())
		}

		internal := v1.Group("/internal")
		internal.Use(middleware.InternalAuth(jwtSecret, auth.PermissionInternal))
		{
			internal.POST("/scenarios/:scenario_id/publish", scenarioHandlers.PublishHandler())
			internal.POST("/scenarios/:scenario_id/seed", scenarioHandlers.SeedHandler())
		}
	}
}

// requestLogger logs each request with the authenticated client, if any
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		claims, _ := c.Get("claims")
		zlog.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_id", auth.GetClientID(claims)).
			Msg("request")
	}
}
