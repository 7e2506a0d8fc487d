package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pujabook/internal/api"
	"pujabook/internal/config"
	"pujabook/internal/logger"
	"pujabook/internal/validation"
)

func main() {
	// Проверяем, нужно ли запустить валидацию
	if len(os.Args) > 1 && os.Args[1] == "validate" {
		runValidation(os.Args[2:])
		return
	}

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", "error", err)
	}

	server, err := api.NewServer(cfg)
	if err != nil {
		logger.Fatal("Failed to start API", "error", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.GetRouter(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port, "app", cfg.AppName, "version", cfg.AppVersion)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Ждем сигнал для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	if err := server.Cleanup(ctx); err != nil {
		slog.Error("Error during cleanup", "error", err)
	}

	slog.Info("Server stopped")
}

// runValidation - api validate [-url http://localhost:8000] [-mobile 9999999999]
func runValidation(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	baseURL := fs.String("url", "http://localhost:8000", "Base URL of a running API")
	mobile := fs.String("mobile", "9999900000", "Mobile number used for the OTP login")
	timeout := fs.Duration("timeout", 2*time.Minute, "Overall timeout")
	_ = fs.Parse(args)

	logger.Init("info", "text")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := validation.NewSmokeChecker(*baseURL, *mobile).Run(ctx); err != nil {
		slog.Error("Validation failed", "error", err)
		os.Exit(1)
	}
}
