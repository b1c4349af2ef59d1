package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/illegalcall/mentor-tracker/internal/api"
	"github.com/illegalcall/mentor-tracker/internal/config"
	"github.com/illegalcall/mentor-tracker/pkg/database"
	"github.com/illegalcall/mentor-tracker/pkg/kafka"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clients, err := database.NewClients(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := clients.Close(context.Background()); err != nil {
			slog.Error("Failed to close data stores", "error", err)
		}
	}()

	accessor, err := clients.Accessor(ctx)
	if err != nil {
		return err
	}

	producer, err := kafka.NewProducer(ctx, cfg.Kafka)
	if err != nil {
		return err
	}
	defer producer.Close()
	slog.Info("✅ Connected to Kafka")

	server, err := api.NewServer(cfg, clients, accessor, producer)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
