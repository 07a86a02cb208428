package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zahlentech/str8up_server/config"
	"github.com/zahlentech/str8up_server/internal/database"
	"github.com/zahlentech/str8up_server/internal/pkg/logger"
	"github.com/zahlentech/str8up_server/internal/repository"
)

type options struct {
	configPath string
	dryRun     bool
	grace      time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "cleanup",
		Short:        "Delete expired assessment sessions that never produced a lead",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "config/config.yaml"
	}
	cmd.Flags().StringVar(&opts.configPath, "config", defaultConfig, "path to config.yaml")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", true, "only count, don't delete")
	cmd.Flags().DurationVar(&opts.grace, "grace", 0, "keep sessions this long past their expiry")
	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Printf("Failed to init logger: %v", err)
		return err
	}
	defer zl.Sync()

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	repo := repository.NewAssessmentRepository(db)

	before := time.Now().Add(-opts.grace)
	zl.Info("cleanup started", "dry_run", opts.dryRun, "expired_before", before.Format(time.RFC3339))

	out := cmd.OutOrStdout()
	line := strings.Repeat("=", 48)

	if opts.dryRun {
		count, err := repo.CountExpiredWithoutLeads(before)
		if err != nil {
			return fmt.Errorf("count expired sessions: %w", err)
		}
		fmt.Fprintln(out, line)
		fmt.Fprintf(out, "Expired sessions without leads: %d\n", count)
		fmt.Fprintln(out, "DRY RUN - nothing was deleted. Re-run with --dry-run=false to delete.")
		fmt.Fprintln(out, line)
		return nil
	}

	deleted, err := repo.DeleteExpiredWithoutLeads(before)
	if err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	zl.Info("cleanup completed", "deleted", deleted)
	fmt.Fprintln(out, line)
	fmt.Fprintf(out, "Deleted sessions: %d\n", deleted)
	fmt.Fprintln(out, line)
	return nil
}
