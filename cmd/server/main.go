package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shuttle/internal/api"
	"shuttle/internal/app"
	"shuttle/internal/config"
	"shuttle/internal/coordinator"
	"shuttle/internal/domain"
	"shuttle/internal/health"
	"shuttle/internal/logger"
	"shuttle/internal/logsink"
	"shuttle/internal/storage"
	"shuttle/internal/transfer"
	"shuttle/internal/ws"

	"go.uber.org/zap"
)

func main() {
	fmt.Println("Starting Shuttle coordinator...")

	configDir, err := config.Dir()
	if err != nil {
		log.Fatalf("Error getting user config directory: %v", err)
	}
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	var store domain.Store
	if cfg.DatabasePath != "" {
		gs, err := storage.NewGormStore(cfg.DatabasePath, zlog.Named("storage"))
		if err != nil {
			zlog.Fatal("could not open database", zap.String("path", cfg.DatabasePath), zap.Error(err))
		}
		store = gs
		zlog.Info("using database", zap.String("path", cfg.DatabasePath))
	} else {
		store = storage.NewMemStore()
		zlog.Info("using in-memory store")
	}

	if cfg.Seed {
		seeded, err := storage.Seed(store)
		if err != nil {
			zlog.Fatal("could not seed demo fleet", zap.Error(err))
		}
		if seeded {
			zlog.Info("seeded demo fleet")
		}
	}

	sink := logsink.New(cfg.LogCapacity, zlog.Named("logsink"))
	hub := ws.NewHub(cfg.LogCapacity, zlog.Named("ws"))
	hub.Attach(sink)
	go hub.Run()

	var tr transfer.Transferer
	switch cfg.Migration.Transfer {
	case config.TransferAgent:
		tr = transfer.NewAgent(cfg.Migration.Timeout, sink, zlog.Named("transfer"))
	default:
		tr = transfer.NewSimulated(cfg.Migration.SimulatedDelay, cfg.Migration.FailureRate)
	}
	zlog.Info("transfer backend", zap.String("kind", cfg.Migration.Transfer))

	coord := coordinator.New(store, sink, tr, coordinator.Options{
		Timeout: cfg.Migration.Timeout,
		Log:     zlog.Named("coordinator"),
	})
	if n, err := coord.Reconcile(); err != nil {
		zlog.Fatal("could not reconcile interrupted migrations", zap.Error(err))
	} else if n > 0 {
		zlog.Warn("failed interrupted migrations", zap.Int("count", n))
	}
	sink.Info("system", "Coordinator started")

	var prober *health.Prober
	if cfg.Health.Enabled {
		probe := health.AgentProbe(&http.Client{Timeout: cfg.Health.Timeout})
		prober = health.NewProber(coord, probe, cfg.Health.Interval, cfg.Health.Timeout, zlog.Named("health"))
		prober.Start(context.Background())
	}

	container := &app.Container{
		Config:      cfg,
		Store:       store,
		Sink:        sink,
		Coordinator: coord,
		Hub:         hub,
		Prober:      prober,
		Log:         zlog,
	}

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
		<-sigs
		zlog.Info("shutting down")
		if prober != nil {
			prober.Stop()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := coord.Close(ctx); err != nil {
			zlog.Warn("migrations still running at shutdown", zap.Error(err))
		}
		hub.Stop()
		if c, ok := store.(interface{ Close() error }); ok {
			_ = c.Close()
		}
		_ = zlog.Sync()
		os.Exit(0)
	}()

	apiServer := api.NewAPIServer(container)
	listenAddr := fmt.Sprintf(":%d", cfg.Port)
	if err := apiServer.Start(listenAddr); err != nil {
		zlog.Fatal("API error", zap.Error(err))
	}
}
