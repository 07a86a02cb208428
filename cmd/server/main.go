package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zahlentech/str8up_server/config"
	"github.com/zahlentech/str8up_server/internal/api"
	"github.com/zahlentech/str8up_server/internal/api/handler"
	"github.com/zahlentech/str8up_server/internal/database"
	"github.com/zahlentech/str8up_server/internal/pkg/cron"
	"github.com/zahlentech/str8up_server/internal/pkg/email"
	"github.com/zahlentech/str8up_server/internal/pkg/leadstream"
	"github.com/zahlentech/str8up_server/internal/pkg/logger"
	"github.com/zahlentech/str8up_server/internal/pkg/pubsub"
	"github.com/zahlentech/str8up_server/internal/pkg/queue"
	"github.com/zahlentech/str8up_server/internal/pkg/ws"
	"github.com/zahlentech/str8up_server/internal/repository"
	"github.com/zahlentech/str8up_server/internal/service"
)

const shutdownTimeout = 10 * time.Second

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

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		zl.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	zl.Info("database connected", "driver", cfg.Database.Driver)

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		zl.Error("failed to connect redis", "error", err)
		os.Exit(1)
	}
	zl.Info("redis connected")

	jobQueue := queue.NewQueue(rdb, cfg.Queue.AnalysisQueue)

	stream, err := leadstream.NewFromConfig(cfg.Kafka)
	if err != nil {
		zl.Error("failed to init lead stream", "error", err)
		os.Exit(1)
	}
	defer stream.Close()

	// interface vars stay nil when SMTP is not configured
	var (
		confirmMailer service.ConfirmationMailer
		resultsMailer service.ResultsMailer
	)
	if cfg.Email.Enabled() {
		mailer := email.NewService(&cfg.Email, cfg.Server.SiteURL)
		confirmMailer = mailer
		resultsMailer = mailer
		zl.Info("email enabled", "smtp_host", cfg.Email.SMTPHost)
	}

	assessmentRepo := repository.NewAssessmentRepository(db)
	jobRepo := repository.NewJobRepository(db)
	leadRepo := repository.NewLeadRepository(db)

	assessmentService := service.NewAssessmentService(assessmentRepo, jobRepo, jobQueue, cfg, zl)
	leadService := service.NewLeadService(leadRepo, assessmentRepo, stream, confirmMailer, zl)
	resultsService := service.NewResultsService(assessmentService, resultsMailer, zl)
	adminService := service.NewAdminService(cfg)

	wsHub := ws.NewHub(zl)
	websocketHandler := handler.NewWebSocketHandler(wsHub, assessmentService, cfg.CORS.AllowedOrigins, zl)

	router := api.NewRouter(
		handler.NewStr8upHandler(assessmentService, leadService, zl),
		handler.NewResultsHandler(resultsService, zl),
		handler.NewAdminHandler(adminService, leadService, zl),
		websocketHandler,
		cfg,
		zl,
	)
	engine := router.Setup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// worker progress reaches the browsers through redis pub/sub
	subscriber := pubsub.NewSubscriber(rdb)
	go func() {
		if err := subscriber.Subscribe(ctx, websocketHandler.Relay); err != nil && !errors.Is(err, context.Canceled) {
			zl.Error("progress subscription ended", "error", err)
		}
	}()

	sweeper := cron.NewService(assessmentRepo, cfg.Session.ExpireHours, zl)
	sweeper.Start()
	defer sweeper.Stop()

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: engine,
	}
	go func() {
		zl.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("server shutdown", "error", err)
	}
	leadService.Wait()
	zl.Info("server stopped")
}
