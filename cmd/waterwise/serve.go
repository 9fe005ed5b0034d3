package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/waterwise/internal/api/http"
	"github.com/i474232898/waterwise/internal/scheduler"
)

func serveCommand(rt *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the watering digest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), rt)
		},
	}
}

func serve(parent context.Context, rt *deps) error {
	if parent == nil {
		parent = context.Background()
	}
	log := rt.log

	// Scheduler that periodically reports plants due for watering.
	sched := scheduler.New(rt.store, rt.garden, rt.cfg.DigestInterval, rt.cfg.Location, log)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	app := httpapi.NewApp(rt.weather, rt.garden, true)

	listenErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("port", rt.cfg.Port))
		listenErr <- app.Listen(":" + rt.cfg.Port)
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-listenErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}
	log.Info("server stopped")
	return nil
}
