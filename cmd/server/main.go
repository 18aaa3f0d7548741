package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"spotifyetl.com/m/internal/config"
	"spotifyetl.com/m/internal/db"
	"spotifyetl.com/m/internal/pipeline"
	"spotifyetl.com/m/internal/scheduler"
	"spotifyetl.com/m/internal/server"
	"spotifyetl.com/m/internal/spotify"
)

func main() {
	var logger *zap.Logger
	var err error

	if os.Getenv("DEBUG") == "true" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Initialize loggers for all packages
	spotify.InitializeLogger(logger)
	pipeline.InitializeLogger(logger)
	db.InitializeLogger(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.New(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer store.Close()

	client := spotify.NewClient(cfg.Spotify)
	extractor := pipeline.NewSpotifyExtractor(client, cfg.Pipeline.PlaylistNameFilter)
	p := pipeline.New(extractor, store)

	sched := scheduler.NewScheduler(p, scheduler.Config{
		FullInterval:        cfg.Scheduler.FullInterval,
		IncrementalInterval: cfg.Scheduler.IncrementalInterval,
		Limit:               cfg.Pipeline.DefaultLimit,
		HoursBack:           cfg.Pipeline.DefaultHoursBack,
	}, scheduler.NewMetrics(), logger)
	go sched.Start(ctx)

	srv := server.New(p, logger, cfg.Pipeline.DefaultLimit, cfg.Pipeline.DefaultHoursBack)
	router := srv.Router()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		logger.Info("Defaulting to port", zap.String("port", port))
	}

	logger.Info("Server starting", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		logger.Fatal("Failed to run server", zap.Error(err))
	}
}
