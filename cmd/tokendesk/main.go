package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"tokendesk/internal/amqp"
	"tokendesk/internal/cli"
	apphttp "tokendesk/internal/http"
	"tokendesk/internal/services"
	"tokendesk/internal/store"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	result := cli.InitBackend(ctx, logger, cfg)
	defer result.Cleanup()

	state, err := result.Store.Load(ctx)
	if err != nil {
		logger.Error("Failed to load application state", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	st := store.New(state, result.Store)
	logger.Info("Application state loaded", "backend", cfg.DataBackend, "tokens", len(state.Tokens))

	// AMQP is optional: without a broker the app runs standalone and
	// token events are simply not published.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	tokens := services.NewTokenService(st, amqpClient)
	defer tokens.Close()

	srv := apphttp.NewServer(":"+cfg.Port, st, tokens, cfg.IssuedBy)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer stopCancel()
		if err := srv.Shutdown(stopCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting tokendesk server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
