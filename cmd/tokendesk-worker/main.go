package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"tokendesk/internal/amqp"
	"tokendesk/internal/cli"
	"tokendesk/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting tokendesk-worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result := cli.InitBackend(ctx, logger, cfg)
	defer result.Cleanup()

	summaryWorker := worker.NewSummaryWorker(result.Store, cfg.SummaryExportDir)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return summaryWorker.Run(ctx, cfg.SummaryInterval)
	})

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			return amqpClient.ConsumeTokenEvents(ctx, func(ev *amqp.TokenEvent) error {
				return summaryWorker.HandleTokenEvent(ctx, ev)
			})
		})
		logger.Info("Consuming token events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - running on interval only", "interval", cfg.SummaryInterval)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
