package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/illegalcall/mentor-tracker/internal/config"
	"github.com/illegalcall/mentor-tracker/internal/leaderboard"
	"github.com/illegalcall/mentor-tracker/internal/worker"
	"github.com/illegalcall/mentor-tracker/pkg/database"
	"github.com/illegalcall/mentor-tracker/pkg/kafka"
)

func main() {
	cfg := config.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clients, err := database.NewRedisClients(ctx, cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer clients.Close(context.Background())

	consumer, err := kafka.NewConsumer(ctx, cfg.Kafka)
	if err != nil {
		slog.Error("Failed to create Kafka consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()
	slog.Info("✅ Connected to Kafka")

	w := worker.NewWorker(cfg, leaderboard.New(clients.Redis), consumer)
	if err := w.Start(ctx); err != nil {
		slog.Error("Worker error", "error", err)
		os.Exit(1)
	}
}
