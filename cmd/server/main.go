// Command main is the entry point for the Gyma backend server.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gyma/internal/cache"
	"gyma/internal/config"
	"gyma/internal/database"
	"gyma/internal/events"
	"gyma/internal/mail"
	"gyma/internal/middleware"
	"gyma/internal/observability"
	"gyma/internal/server"
	"gyma/internal/service"
	"gyma/internal/session"
	"gyma/internal/storage"

	"github.com/redis/go-redis/v9"
)

const version = "1.0.0"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	middleware.Logger = middleware.NewLogger(cfg.Env, os.Stdout)
	slog.SetDefault(middleware.Logger)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "gyma-api",
		ServiceVersion: version,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	rdb, err := cache.NewClient(context.Background(), cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}

	images, err := imageStore(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize image storage: %v", err)
	}

	publisher := eventPublisher(cfg, rdb)

	srv := server.NewServer(cfg, server.Deps{
		DB:        db,
		Redis:     rdb,
		Sessions:  session.NewStore(rdb, cfg.SessionTTL(), cfg.SessionTTLTrusted()),
		Images:    images,
		Publisher: publisher,
		Mailer:    mailer(cfg),
	})

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		slog.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if err := publisher.Close(); err != nil {
			slog.Error("event publisher close error", "error", err)
		}
		if err := shutdownTracing(ctx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
		if err := database.Close(db); err != nil {
			slog.Error("database close error", "error", err)
		}
		if err := rdb.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatal(err)
	}
}

func imageStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.ImageStorage != "minio" {
		local, err := storage.NewLocal(cfg.LargeImagePath, cfg.MediumImagePath, cfg.ArchivePath)
		if err != nil {
			return nil, err
		}
		return local, nil
	}
	store, err := storage.NewMinio(storage.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}
	return store, nil
}

func eventPublisher(cfg *config.Config, rdb *redis.Client) events.Publisher {
	switch cfg.EventsBackend {
	case "redis":
		return events.NewRedisPublisher(rdb)
	case "kafka":
		return events.NewKafkaPublisher(cfg.Brokers(), cfg.KafkaTopicPrefix)
	default:
		return events.Noop{}
	}
}

func mailer(cfg *config.Config) service.Mailer {
	if cfg.EmailHost == "" {
		slog.Warn("EMAIL_HOST is not set; verification links are logged instead of mailed")
		return mail.NoopMailer{WebsiteURL: cfg.WebsiteURL}
	}
	return mail.NewSMTPMailer(mail.Config{
		Host:       cfg.EmailHost,
		Port:       cfg.EmailPort,
		Username:   cfg.EmailUsername,
		Password:   cfg.EmailPassword,
		SenderName: cfg.EmailName,
		Domain:     cfg.EmailDomain,
		WebsiteURL: cfg.WebsiteURL,
	})
}
