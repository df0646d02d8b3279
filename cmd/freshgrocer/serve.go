package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"freshgrocer/internal/http/handlers"
	applog "freshgrocer/internal/log"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDB(cfg.SeedDemo)
	if err != nil {
		return err
	}
	defer db.Close()

	app := handlers.NewApp(handlers.NewDeps(db, cfg))
	log := applog.L()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server.start", zap.String("port", cfg.Port), zap.String("db", cfg.Redacted()), zap.String("media", cfg.MediaDir))
		return app.Listen(":" + cfg.Port)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("server.shutdown")
		return app.ShutdownWithTimeout(10 * time.Second)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
