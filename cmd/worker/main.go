package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/zahlentech/str8up_server/config"
	"github.com/zahlentech/str8up_server/internal/database"
	"github.com/zahlentech/str8up_server/internal/pkg/logger"
	"github.com/zahlentech/str8up_server/internal/pkg/pubsub"
	"github.com/zahlentech/str8up_server/internal/pkg/queue"
	"github.com/zahlentech/str8up_server/internal/pkg/storage"
	"github.com/zahlentech/str8up_server/internal/repository"
	"github.com/zahlentech/str8up_server/internal/worker"
)

const requeueLimit = 500

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zl.Sync()

	if err := run(cfg, zl); err != nil {
		zl.Error("worker exited", "error", err)
		os.Exit(1)
	}
	zl.Info("worker shutdown complete")
}

func run(cfg *config.Config, zl logger.Logger) error {
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		return err
	}
	zl.Info("database connected", "driver", cfg.Database.Driver)

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		return err
	}
	zl.Info("redis connected")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// documents stay in the database when the bucket is unreachable
	store, err := storage.New(ctx, cfg)
	if err != nil {
		zl.Warn("object storage disabled", "provider", cfg.Storage.Provider, "error", err)
		store = nil
	} else {
		zl.Info("object storage ready", "provider", cfg.Storage.Provider)
	}

	jobQueue := queue.NewQueue(rdb, cfg.Queue.AnalysisQueue)
	publisher := pubsub.NewPublisher(rdb)

	assessmentRepo := repository.NewAssessmentRepository(db)
	jobRepo := repository.NewJobRepository(db)

	processor := worker.NewProcessor(jobRepo, assessmentRepo, store, publisher, cfg, zl)

	if _, err := worker.RequeueOrphans(ctx, jobRepo, jobQueue, requeueLimit, zl); err != nil {
		zl.Warn("requeue orphaned jobs failed", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Queue.MaxWorkers; i++ {
		workerID := i
		g.Go(func() error {
			return processor.Consume(ctx, jobQueue, workerID)
		})
	}
	if store != nil {
		rearchiver := worker.NewRearchiver(assessmentRepo, store, zl)
		g.Go(func() error {
			return rearchiver.Start(ctx)
		})
	}

	zl.Info("worker started", "max_workers", cfg.Queue.MaxWorkers)
	return g.Wait()
}
