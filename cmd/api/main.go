package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/famtree/internal/api"
	"github.com/your-org/famtree/internal/api/handlers"
	"github.com/your-org/famtree/internal/api/ws"
	"github.com/your-org/famtree/internal/config"
	"github.com/your-org/famtree/internal/family"
	"github.com/your-org/famtree/internal/models"
	"github.com/your-org/famtree/internal/observability"
	"github.com/your-org/famtree/internal/queue"
	"github.com/your-org/famtree/internal/storage"
	"github.com/your-org/famtree/pkg/dto"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting famtree API service", "port", cfg.Server.Port, "db_driver", cfg.Database.Driver)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checks := map[string]handlers.Check{}

	// Family store
	var store family.Store
	if cfg.Database.Driver == "memory" {
		slog.Warn("using in-memory store, data is lost on restart")
		store = storage.NewMemoryStore()
	} else {
		if cfg.Database.AutoMigrate {
			if err := storage.Migrate(cfg.Database.DSN(), cfg.Database.MigrationsPath); err != nil {
				slog.Error("run migrations", "error", err)
				os.Exit(1)
			}
		}
		db, err := storage.NewPostgresStore(ctx, cfg.Database)
		if err != nil {
			slog.Error("connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store = db
		checks["postgres"] = db.Ping
	}

	// Media objects
	var objects family.ObjectStore
	if cfg.MinIO.Enabled {
		minioStore, err := storage.NewMinIOStore(cfg.MinIO)
		if err != nil {
			slog.Error("connect to minio", "error", err)
			os.Exit(1)
		}
		if err := minioStore.EnsureBucket(ctx); err != nil {
			slog.Warn("ensure minio bucket", "error", err)
		}
		objects = minioStore
		checks["minio"] = minioStore.Ping
	} else {
		slog.Warn("minio disabled, media is kept in memory")
		objects = storage.NewMemoryObjects()
	}

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	opts := family.Options{
		Objects:      objects,
		CacheEnabled: cfg.Cache.Enabled,
		MediaBaseURL: cfg.Media.PublicBaseURL,
	}

	// NATS carries tree events to every replica's hub and purge tasks to the worker.
	if cfg.NATS.Enabled {
		producer, err := queue.NewProducer(cfg.NATS.URL)
		if err != nil {
			slog.Error("connect to nats", "error", err)
			os.Exit(1)
		}
		defer producer.Close()

		if err := producer.EnsureStreams(ctx); err != nil {
			slog.Warn("ensure nats streams", "error", err)
		}
		opts.Publisher = producer
		checks["nats"] = func(context.Context) error { return producer.Ping() }

		consumer, err := queue.NewConsumer(cfg.NATS.URL)
		if err != nil {
			slog.Error("create event consumer", "error", err)
			os.Exit(1)
		}
		defer consumer.Close()

		err = consumer.ConsumeTreeEvents(ctx, func(_ context.Context, ev models.TreeEvent) error {
			hub.BroadcastEvent(ev.UserID, wsEvent(ev))
			return nil
		})
		if err != nil {
			slog.Warn("start tree event consumer", "error", err)
		}
	} else {
		slog.Warn("nats disabled, websocket clients receive events from this replica only")
		opts.Publisher = localPublisher{hub: hub, purger: family.NewPurger(objects)}
	}

	svc := family.NewService(store, opts)

	gin.SetMode(gin.ReleaseMode)
	router, err := api.NewRouter(api.RouterConfig{
		JWTSecret:      cfg.Auth.JWTSecret,
		JWTIssuer:      cfg.Auth.Issuer,
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxUploadBytes: cfg.Media.MaxUploadBytes,
		Service:        svc,
		Hub:            hub,
		Checks:         checks,
	})
	if err != nil {
		slog.Error("build router", "error", err)
		os.Exit(1)
	}

	// Start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("API server stopped")
}

func wsEvent(ev models.TreeEvent) dto.WSEvent {
	return dto.WSEvent{
		Type:      string(ev.Type),
		MemberIDs: ev.MemberIDs,
		Role:      string(ev.Role),
		At:        ev.At.UTC().Format(time.RFC3339),
	}
}

// localPublisher feeds the hub and purges objects in-process when NATS is off.
type localPublisher struct {
	hub    *ws.Hub
	purger *family.Purger
}

func (p localPublisher) PublishTreeEvent(_ context.Context, ev models.TreeEvent) error {
	p.hub.BroadcastEvent(ev.UserID, wsEvent(ev))
	return nil
}

func (p localPublisher) PublishPurge(ctx context.Context, task models.PurgeTask) error {
	return p.purger.Purge(ctx, task)
}
