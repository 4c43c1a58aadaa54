// Package main provides the HTTP API server for Thinkable.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thinkable-app/thinkable-go/internal/auth"
	"github.com/thinkable-app/thinkable-go/internal/config"
	"github.com/thinkable-app/thinkable-go/internal/db"
	"github.com/thinkable-app/thinkable-go/internal/metrics"
	"github.com/thinkable-app/thinkable-go/internal/server"
	"github.com/thinkable-app/thinkable-go/internal/storage"
)

const version = "0.1.0"

// pushTables are the tables whose changes fan out over the push channel.
var pushTables = []string{"conversation", "project", "profile"}

func main() {
	// Parse flags
	wipeDB := flag.Bool("wipe", false, "wipe all data from database on startup (testing only)")
	flag.Parse()

	// Load configuration
	cfg := config.Load()

	// Setup logger (dual output: stderr text + file JSON)
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	logger.Info("thinkable-server starting",
		"version", version,
		"surrealdb_url", cfg.SurrealDBURL,
		"listen_addr", cfg.ListenAddr,
	)

	collector := metrics.NewCollector()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	dbClient, err := db.NewClient(ctx, db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}, logger, collector)
	cancel()
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(context.Background()); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	err = dbClient.InitSchema(ctx)
	cancel()
	if err != nil {
		logger.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	// Wipe database if requested (via flag or env var)
	if *wipeDB || os.Getenv("THINKABLE_WIPE_DB") == "true" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := dbClient.WipeData(ctx)
		cancel()
		if err != nil {
			logger.Error("failed to wipe database", "error", err)
			os.Exit(1)
		}
		logger.Warn("database wiped")
	}

	sessions, err := auth.New(cfg.AuthSecret, dbClient, logger)
	if err != nil {
		logger.Error("failed to create authenticator", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewLocal(cfg.StoragePath, logger)
	if err != nil {
		logger.Error("failed to open attachment storage", "error", err)
		os.Exit(1)
	}

	// Root context cancelled on shutdown signals.
	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := server.NewHub(logger, collector)
	events := make(chan server.PushEvent)
	for _, table := range pushTables {
		changes, err := dbClient.Subscribe(runCtx, table, "")
		if err != nil {
			logger.Error("failed to open live query", "table", table, "error", err)
			os.Exit(1)
		}
		go func() {
			for ev := range changes {
				select {
				case events <- server.EventFromChange(ev):
				case <-runCtx.Done():
					return
				}
			}
		}()
	}
	go hub.Run(runCtx, events)

	srv := server.New(server.Config{
		ListenAddr:      cfg.ListenAddr,
		HomepageBoardID: cfg.HomepageBoardID,
	}, db.NewAdmin(dbClient), sessions, store, hub, logger)

	if err := srv.Run(runCtx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
