package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-ops-scorecard/internal/app"
	"ai-ops-scorecard/internal/config"
	"ai-ops-scorecard/internal/infra/memory"
	pgloader "ai-ops-scorecard/internal/infra/postgres"
	infraredis "ai-ops-scorecard/internal/infra/redis"
	"ai-ops-scorecard/internal/infra/sqlite"
	"ai-ops-scorecard/internal/infra/webhook"
	"ai-ops-scorecard/internal/logger"
	"ai-ops-scorecard/internal/metrics"
	transport "ai-ops-scorecard/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the scorecard server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger.Init()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}
	log := logger.Named("server")
	m := metrics.Default()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger.Named("migrate")); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 48*time.Hour)
	progressExpiry := config.TTLDuration(cfg.Quiz.ProgressExpiry, app.DefaultProgressExpiry)

	var progress app.ProgressStore
	switch {
	case redisClient != nil:
		progress = infraredis.NewProgressStore(redisClient, redisTTL)
	case cfg.SQLite.Path != "":
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		if pruned, err := store.Prune(ctx, progressExpiry); err != nil {
			log.Warn(ctx, "failed to prune stale progress", logger.Error(err))
		} else if pruned > 0 {
			log.Info(ctx, "pruned stale progress", logger.Int("records", int(pruned)))
		}
		progress = store
	default:
		progress = memory.NewProgressStore()
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.CatalogLoader = memory.NewDefaultCatalogLoader()
	switch {
	case cfg.Catalog.File != "":
		loader = memory.NewFileCatalogLoader(cfg.Catalog.File)
	case pool != nil:
		loader = pgloader.NewCatalogLoader(pool)
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var catalogs app.CatalogRepository
	if redisClient != nil {
		catalogs = infraredis.NewCatalogRepository(redisClient, loader, catalogTTL)
	} else {
		catalogs = memory.NewCatalogRepository(loader, catalogTTL)
	}

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = infraredis.NewSessionStore(redisClient, redisTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	var notifier app.Notifier
	endpoints := webhook.Endpoints{
		Lead:         cfg.Webhook.LeadURL,
		Consultation: cfg.Webhook.ConsultationURL,
		Guide:        cfg.Webhook.GuideURL,
	}
	deliveryTimeout := config.TTLDuration(cfg.Webhook.Timeout, app.DefaultDeliveryTimeout)
	if endpoints != (webhook.Endpoints{}) {
		notifier = webhook.NewClient(endpoints, deliveryTimeout)
	} else {
		log.Warn(ctx, "no webhook urls configured, submissions will not be delivered")
	}

	service := app.NewQuizService(sessions, catalogs, progress, notifier,
		app.WithCatalogID(cfg.Catalog.ID),
		app.WithStorageKeyPrefix(cfg.Quiz.StorageKey),
		app.WithDeliveryTimeout(deliveryTimeout),
		app.WithServiceLogger(logger.Named("quiz")),
		app.WithServiceMetrics(m),
		app.WithSessionOptions(
			app.WithAdvanceDelay(config.TTLDuration(cfg.Quiz.AdvanceDelay, app.DefaultAdvanceDelay)),
			app.WithProgressExpiry(progressExpiry),
		),
	)

	// Fail fast on a broken catalog rather than on the first connection.
	if _, err := service.Catalog(ctx); err != nil {
		return err
	}

	router := transport.NewRouter(service, transport.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger.Named("http"),
		Metrics:        m,
	})

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		log.Info(ctx, "starting scorecard service", logger.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "failed to start server", logger.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info(ctx, "shutting down server")
	case <-ctx.Done():
		log.Info(ctx, "context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = server.Shutdown(shutdownCtx)
	service.Drain()
	return err
}
