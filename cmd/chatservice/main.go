package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/campushub/chat-service/internal/api"
	"github.com/campushub/chat-service/internal/auth"
	"github.com/campushub/chat-service/internal/config"
	"github.com/campushub/chat-service/internal/directory"
	"github.com/campushub/chat-service/internal/events"
	"github.com/campushub/chat-service/internal/logger"
	"github.com/campushub/chat-service/internal/presence"
	"github.com/campushub/chat-service/internal/profanity"
	"github.com/campushub/chat-service/internal/repository"
	"github.com/campushub/chat-service/internal/service"
	"github.com/campushub/chat-service/internal/storage"
	"github.com/campushub/chat-service/internal/ws"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	zlog, err := logger.New(logger.Config{Development: cfg.App.Development})
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	// Mongo
	mc, err := repository.ConnectMongo(cfg.Mongo.URI)
	if err != nil {
		zlog.Fatalw("mongo connect", "err", err)
	}
	defer func() { _ = mc.Disconnect(context.Background()) }()
	db := mc.Database(cfg.Mongo.Database)

	repo := repository.NewMongoRepository(db.Collection("messages"))
	users := directory.NewMongoDirectory(db.Collection("users"))

	// Presence: redis when configured, in-process otherwise.
	var tracker presence.Tracker = presence.NewMemoryTracker()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		tracker = presence.NewRedisTracker(rdb, cfg.Redis.Prefix)
	}

	// Notification fan-out
	var pub events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled() {
		kp := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() { _ = kp.Close() }()
		pub = kp
	}

	filter := profanity.New(append(profanity.SupplementalWords, cfg.Profanity.ExtraWords...)...)
	chat := service.NewChatService(repo, users, filter, pub, zlog)

	hub := ws.NewHub()
	gw := ws.NewGateway(hub, chat, tracker, users, pub, zlog)

	// Attachment storage
	var store storage.Store
	switch cfg.Upload.Backend {
	case "s3":
		store, err = storage.NewS3Store(context.Background(), cfg.Upload.S3.Region, cfg.Upload.S3.Bucket, cfg.Upload.S3.PublicRead)
	default:
		store, err = storage.NewLocalStore(cfg.Upload.Dir, cfg.Upload.BaseURL)
	}
	if err != nil {
		zlog.Fatalw("storage init", "backend", cfg.Upload.Backend, "err", err)
	}

	jv, err := auth.NewJWTValidator(cfg.JWT.SigningMethod, cfg.JWT.Secret, cfg.JWT.PublicKeyPath)
	if err != nil {
		zlog.Fatalw("jwt validator", "err", err)
	}

	app := api.NewServer(cfg, chat, gw, store, jv, zlog)

	go func() {
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			zlog.Fatalw("server listen", "err", err)
		}
	}()
	zlog.Infow("chat-service started", "port", cfg.App.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)
	zlog.Info("chat-service stopped")
}
