package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zahlentech/str8up_server/internal/gateway"
	"github.com/zahlentech/str8up_server/internal/pkg/logger"
	"github.com/zahlentech/str8up_server/internal/tui"
	"github.com/zahlentech/str8up_server/internal/workflow"
)

var (
	assessBaseURL string
	assessLogFile string
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Run the assessment in the terminal",
	Long: `Walks through Info, Onboarding, Processing, Results and the contact form
against a running str8up server.`,
	RunE: runAssess,
}

func init() {
	assessCmd.Flags().StringVar(&assessBaseURL, "base-url", "", "analysis service base URL (overrides gateway.base_url)")
	assessCmd.Flags().StringVar(&assessLogFile, "log-file", "", "write structured logs to this file")
}

func runAssess(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if assessBaseURL != "" {
		cfg.Gateway.BaseURL = assessBaseURL
	}

	log, closeLog, err := fileLogger(assessLogFile, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer closeLog()

	client, err := gateway.NewFromConfig(cfg.Gateway, log)
	if err != nil {
		return err
	}

	wf := workflow.New(client, workflow.Options{
		PollInterval: cfg.Gateway.PollInterval,
		Logger:       log,
	})
	defer wf.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return tui.Run(ctx, wf)
}

// fileLogger keeps log output off the terminal the UI draws on.
func fileLogger(path, level string) (logger.Logger, func(), error) {
	if path == "" {
		return logger.Nop(), func() {}, nil
	}
	lvl, err := logger.ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{path}
	zc.ErrorOutputPaths = []string{path}
	l, err := zc.Build()
	if err != nil {
		return nil, nil, err
	}
	return logger.NewZap(l), func() { _ = l.Sync() }, nil
}
