package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"news_sentiment/internal/api"
	"news_sentiment/internal/app"
	"news_sentiment/internal/config"
	"news_sentiment/internal/logging"
	"news_sentiment/internal/publisher"
	"news_sentiment/internal/scheduler"
	"news_sentiment/internal/service"
	"news_sentiment/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := logging.New("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = logging.New(cfg.LogLevel)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	sources, err := app.Sources(cfg.Providers, logger)
	if err != nil {
		logger.Error("failed to build sources", "error", err)
		os.Exit(1)
	}

	// Interfaces stay nil unless the backend is enabled.
	var (
		store     service.AnalysisStore
		txManager service.TransactionManager
		pub       service.Publisher
	)

	if cfg.Database.Enabled {
		db, err := sqlx.Connect("postgres", cfg.Database.DSN())
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		logger.Info("connected to database", "host", cfg.Database.Host, "dbname", cfg.Database.DBName)

		store = postgres.NewAnalysisStore(db)
		txManager = postgres.NewTransactionManager(db)
	}

	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	analysisService, err := service.NewAnalysisService(sources, store, txManager, pub, logger, cfg.Analysis)
	if err != nil {
		logger.Error("failed to create analysis service", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	providers := make([]string, 0, len(sources))
	for _, s := range sources {
		providers = append(providers, s.Name())
	}
	logger.Info("starting news sentiment service",
		"providers", providers,
		"history", store != nil,
		"events", pub != nil,
		"schedule", cfg.Schedule.Enabled,
	)

	g, gCtx := errgroup.WithContext(ctx)

	server := api.NewServer(cfg.Server, api.NewHandlers(analysisService), logger)
	g.Go(func() error {
		return server.Start(gCtx)
	})

	if cfg.Schedule.Enabled {
		sched := scheduler.NewScheduler(analysisService, cfg.Schedule.Spec, cfg.Schedule.Timeout, logger)
		g.Go(func() error {
			return sched.Start(gCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("service error", "error", err)
		os.Exit(1)
	}
}
