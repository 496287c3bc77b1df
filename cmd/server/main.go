// Package main is the entry point for the Holdwatch portfolio tracker backend.
// It serves the REST API for portfolio positions, the watchlist and commodity
// assets, proxies the market-data providers, and runs the background price
// refresh and backup jobs.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/holdwatch/holdwatch/internal/clients/finnhub"
	"github.com/holdwatch/holdwatch/internal/clients/marketaux"
	"github.com/holdwatch/holdwatch/internal/clients/metalprice"
	"github.com/holdwatch/holdwatch/internal/config"
	"github.com/holdwatch/holdwatch/internal/database"
	"github.com/holdwatch/holdwatch/internal/modules/assets"
	assetshandlers "github.com/holdwatch/holdwatch/internal/modules/assets/handlers"
	"github.com/holdwatch/holdwatch/internal/modules/holdings"
	holdingshandlers "github.com/holdwatch/holdwatch/internal/modules/holdings/handlers"
	markethandlers "github.com/holdwatch/holdwatch/internal/modules/market/handlers"
	"github.com/holdwatch/holdwatch/internal/reliability"
	"github.com/holdwatch/holdwatch/internal/scheduler"
	"github.com/holdwatch/holdwatch/internal/server"
	"github.com/holdwatch/holdwatch/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting Holdwatch")

	// Database
	db, err := database.New(database.Config{
		Path: filepath.Join(cfg.DataDir, "holdwatch.db"),
		Name: "holdwatch",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(database.Schema); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	// Outbound clients
	quoteClient := finnhub.NewClient(finnhub.Config{
		APIKey: cfg.FinnhubAPIKey,
		Pacing: cfg.QuotePacing,
	}, log)
	defer quoteClient.Close()

	metalClient := metalprice.NewClient(cfg.MetalPriceAPIKey, log)
	newsClient := marketaux.NewClient(cfg.MarketauxAPIKey, log)

	// Repositories and services
	holdingsRepo := holdings.NewRepository(db.Conn(), log)
	holdingsService := holdings.NewService(holdingsRepo, quoteClient, log)

	assetsRepo := assets.NewRepository(db.Conn(), log)
	assetsService := assets.NewService(assetsRepo, metalClient, log)

	// HTTP server
	srv := server.New(server.Config{
		Log:              log,
		Config:           cfg,
		DB:               db,
		HoldingsHandlers: holdingshandlers.NewHandler(holdingsService, quoteClient, log),
		AssetsHandlers:   assetshandlers.NewHandler(assetsService, log),
		MarketHandlers:   markethandlers.NewHandler(quoteClient, newsClient, log),
	})

	// Background jobs
	sched := scheduler.New(log)

	refreshSchedule := fmt.Sprintf("@every %s", cfg.RefreshInterval)
	if err := sched.AddJob(refreshSchedule, scheduler.NewPriceRefreshJob(holdingsService, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register price refresh job")
	}
	if err := sched.AddJob("@hourly", scheduler.NewAssetRefreshJob(assetsService, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register asset refresh job")
	}
	// 04:00 UTC, after the nightly backup window
	if err := sched.AddJob("0 4 * * *", scheduler.NewMaintenanceJob(db, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register maintenance job")
	}

	if cfg.Backup.Enabled() {
		s3Client, err := reliability.NewS3Client(cfg.Backup, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize backup storage")
		}
		backupService := reliability.NewBackupService(db, s3Client, cfg.DataDir, log)
		// 03:30 UTC, outside US market hours
		if err := sched.AddJob("30 3 * * *", scheduler.NewBackupJob(backupService, log)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register backup job")
		}
	} else {
		log.Info().Msg("Backups disabled, no storage credentials configured")
	}

	sched.Start()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("Server started")

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}
