package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"freshgrocer/internal/config"
	applog "freshgrocer/internal/log"
	"freshgrocer/internal/repos"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "freshgrocer",
	Short: "FreshGrocer farmers' marketplace",
	Long: `FreshGrocer lets farmers list produce and customers browse, review,
save and cart it.

Configuration comes from defaults, freshgrocer.yaml (or CONFIG_FILE),
.env and the environment, later sources winning.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		setupLogging(cfg)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// setupLogging tees the JSON log to LOG_FILE when it can be opened.
func setupLogging(cfg config.Config) {
	applog.SetLevel(cfg.LogLevel)
	if cfg.LogFile == "" {
		return
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		applog.L().Warn("log.file.unavailable", zap.String("path", cfg.LogFile), zap.Error(err))
		return
	}
	applog.SetOutput(io.MultiWriter(os.Stdout, f))
}

func openDB(seed bool) (*sqlx.DB, error) {
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if seed {
		if err := repos.Seed(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
	}
	return db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
