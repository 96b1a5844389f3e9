package main

import (
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learnhub/backend/config"
	"learnhub/backend/routes"
	"learnhub/backend/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize logger
	logger := utils.InitLogger(utils.LoggerConfig{
		Format:       cfg.LogFormat,
		Level:        utils.ParseLogLevel(cfg.LogLevel),
		Output:       os.Stdout,
		EnableColors: cfg.AppEnv == "dev",
	})
	slog.SetDefault(logger)

	// Initialize database
	db, err := utils.InitDB(cfg, logger)
	if err != nil {
		logger.Error("database init failed", slog.Any("error", err))
		os.Exit(1)
	}
	if err := utils.AutoMigrate(db); err != nil {
		logger.Error("migration failed", slog.Any("error", err))
		os.Exit(1)
	}

	app := routes.NewApp(db, cfg, logger)

	go func() {
		if err := app.Listen(":" + cfg.ServerPort); err != nil {
			logger.Error("server stopped", slog.Any("error", err))
		}
	}()
	logger.Info("server started", slog.String("port", cfg.ServerPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown failed", slog.Any("error", err))
	}
	if err := utils.CloseDB(db); err != nil {
		logger.Error("closing database failed", slog.Any("error", err))
	}
}
