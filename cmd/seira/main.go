package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Viru154/SEIRA/internal/batch"
	"github.com/Viru154/SEIRA/internal/config"
	"github.com/Viru154/SEIRA/internal/events"
	"github.com/Viru154/SEIRA/internal/nlp"
	"github.com/Viru154/SEIRA/internal/observability"
	"github.com/Viru154/SEIRA/internal/persistence"
	"github.com/Viru154/SEIRA/internal/repository"
	"github.com/Viru154/SEIRA/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var (
		ticketRepo   repository.TicketRepository
		analysisRepo repository.AnalysisRepository
		resultsRepo  repository.ResultsRepository
		runRepo      repository.RunRepository
	)
	if pool := pg.PoolHandle(); pool != nil {
		ticketRepo = repository.NewTicketRepository(pool)
		analysisRepo = repository.NewAnalysisRepository(pool)
		resultsRepo = repository.NewResultsRepository(pool)
		runRepo = repository.NewRunRepository(pool)
	} else {
		logger.Warn("no database configured; using in-memory store")
		store := repository.NewMemoryStore()
		ticketRepo = store
		analysisRepo = store
		resultsRepo = store
		runRepo = store.Runs()
	}

	var queue batch.Queue = batch.NewMemoryQueue()
	if err := redis.Ping(ctx); err == nil {
		queue = batch.NewRedisQueue(redis.Client)
	} else {
		logger.Warn("redis unavailable; using in-memory queue", zap.Error(err))
	}

	extractor := nlp.NewExtractor(nlp.NewSpanishBackend())

	dispatcher := events.NewInMemoryDispatcher()
	events.RegisterLoggingSubscriber(dispatcher, logger)

	metrics := observability.NewPipelineMetrics()
	orchestrator := batch.NewOrchestrator(cfg.Batch, batch.Dependencies{
		Tickets:    ticketRepo,
		Analyses:   analysisRepo,
		Extractor:  extractor,
		Queue:      queue,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})

	pipeline, err := service.NewPipelineService(*cfg, ticketRepo, analysisRepo, resultsRepo, runRepo, extractor, orchestrator, logger)
	if err != nil {
		logger.Fatal("invalid pipeline configuration", zap.Error(err))
	}

	go waitForShutdown(logger, func() {
		pipeline.Stop()
		cancel()
	})

	run, err := pipeline.RunPipeline(ctx)
	if err != nil {
		logger.Fatal("pipeline run failed", zap.Error(err))
	}
	logger.Info("done", zap.String("summary", service.Summary(run)))
}

func waitForShutdown(logger *zap.Logger, stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
	stop()
}
