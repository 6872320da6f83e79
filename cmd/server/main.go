package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"campustube/cmd/config"
	"campustube/pkg/auth"
	"campustube/pkg/database"
	"campustube/pkg/events"
	"campustube/pkg/handlers"
	"campustube/pkg/logging"
	"campustube/pkg/s3"
)

func main() {
	cfg, err := config.Load(os.Getenv("CAMPUSTUBE_CONFIG_DIR"))
	if err != nil {
		log.Fatalf("Error loading config: %s", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("Error building logger: %s", err)
	}
	defer logger.Sync()

	db, err := database.Init(cfg.Database.Dialect, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	denylist := auth.NewDBDenylist(db)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Fatal("failed to connect to redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		denylist = auth.NewRedisDenylist(rdb)
	}

	publisher := events.Nop()
	if cfg.NATS.URL != "" {
		publisher, err = events.Connect(cfg.NATS.URL, logger)
		if err != nil {
			logger.Fatal("failed to connect to nats", zap.String("url", cfg.NATS.URL), zap.Error(err))
		}
	}
	defer publisher.Close()

	objects, err := s3.New(s3.Config{
		Region:   cfg.AWS.Region,
		Bucket:   cfg.AWS.S3Bucket,
		Endpoint: cfg.AWS.Endpoint,
	})
	if err != nil {
		logger.Fatal("failed to set up object storage", zap.Error(err))
	}

	h := handlers.New(handlers.Options{
		Store:           database.NewStore(db),
		Objects:         objects,
		Tokens:          auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, denylist),
		Events:          publisher,
		Log:             logger,
		ModeratorEmails: cfg.Auth.ModeratorEmails,
		MaxUploadBytes:  cfg.Server.MaxUploadBytes,
	})

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(logging.Gin(logger), gin.Recovery())
	h.Register(r)

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: r}
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
