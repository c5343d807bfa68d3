package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edulive/internal/app/registry"
	"edulive/internal/app/server"
	"edulive/internal/app/server/handlers"
	"edulive/internal/app/worker"
	"edulive/internal/config"
	"edulive/internal/core/services"
	"edulive/internal/platform/logger"
	"edulive/internal/platform/telemetry"
	"edulive/internal/plugins/postgres"
	redisPlugin "edulive/internal/plugins/redis"

	"github.com/redis/go-redis/v9"
)

func main() {
	// Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Config
	cfg := config.Load()

	// Logger
	log := logger.NewLogger(*cfg)
	log.Info("starting hub")

	otelShutdown, err := telemetry.InitTelemetry(ctx, *cfg)
	if err != nil {
		log.Error("failed to initialize telemetry", "err", err)
	}
	defer func() {
		if otelShutdown == nil {
			return
		}
		log.Info("flushing telemetry...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown failed", "err", err)
		}
	}()

	// Infra
	var pdb *sql.DB
	if pdb, err = postgres.New(ctx, *cfg.Postgres); err != nil {
		log.Error("postgres connection failed", "err", err)
		return
	}
	log.Info("postgres connected")
	var rdb *redis.Client
	if rdb, err = redisPlugin.NewRedisClient(ctx, *cfg.Redis); err != nil {
		log.Error("redis connection failed", "url", cfg.Redis.URL, "err", err)
		return
	}
	log.Info("redis connected")

	// Adapters
	msgRepo := postgres.NewMessageRepo(pdb)
	noteRepo := postgres.NewNoteRepo(pdb)
	progressRepo := postgres.NewProgressRepo(pdb)
	txManager := postgres.NewTxManager(pdb)
	presStore := redisPlugin.NewRedisPresenceStore(rdb)
	deltaQueue := redisPlugin.NewRedisDeltaQueue(rdb, log)

	// Core services
	hub := registry.NewRegistry()
	tokenSvc := services.NewTokenService(cfg.SecretToken)
	msgSvc := services.NewMessageService(log, msgRepo, hub, txManager)
	noteSvc := services.NewNoteService(log, noteRepo, hub)
	progressSvc := services.NewProgressService(log, progressRepo, hub, deltaQueue, cfg.Worker.DeltaStream)
	roomSvc := services.NewRoomService(log, hub, presStore)

	// Worker
	wrkr := worker.NewProgressWorker(log, deltaQueue, progressSvc, cfg.Worker.DeltaStream, cfg.Worker.DeltaGroup)
	if err := wrkr.Run(ctx); err != nil {
		log.Error("worker start failed", "err", err)
		return
	}

	// Server
	authHandler := handlers.NewAuthHandler(tokenSvc)
	hubHandler := handlers.NewHubHandler(roomSvc, tokenSvc)
	apiHandler := handlers.NewAPIHandler(msgSvc, noteSvc, progressSvc, roomSvc)
	srv := server.NewServer(log, cfg.Service.Name, cfg.Service.Addr, tokenSvc, authHandler, hubHandler, apiHandler)
	if err := srv.Start(); err != nil {
		log.Error("server stopped", "err", err)
	}
}
