package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mama165/sdk-go/logs"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"Agora/internal/chat"
	"Agora/internal/chatservice"
	"Agora/internal/config"
	"Agora/internal/handlers"
	"Agora/internal/storage"
	"Agora/internal/websocket"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Agora terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	cfg, err := config.Load(".env")
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(cfg.LogLevel)
	slog.SetDefault(logger)
	log := logger.With("component", "server")

	store, err := storage.Open(cfg.StorageDriver, cfg.DSN())
	if err != nil {
		return exitRuntime, fmt.Errorf("storage opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing storage...")
		if err := store.Close(); err != nil {
			log.Warn("Failed to close storage", "error", err)
		}
	}()
	log.Info("Storage ready", "driver", cfg.StorageDriver)

	hub := websocket.NewHub(logger, websocket.Options{AllowedOrigins: cfg.Origins()})
	go hub.Run()

	channels := chat.NewChannelService(store, hub, logger)
	messages := chat.NewMessageService(store, hub, chat.MessageConfig{
		StaticRoot:       cfg.StaticURL,
		PageSize:         cfg.PageSize,
		MaxContentLength: cfg.MaxContentLength,
	}, logger)

	chatHandler := handlers.NewChatHandler(channels, messages, store, logger)
	router := handlers.NewRouter(chatHandler, hub.ServeWS, handlers.StaticConfig{
		Dir: cfg.StaticDir,
		URL: cfg.StaticURL,
	})
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	grpcServer, healthServer := chatservice.NewServer(
		chatservice.NewChatService(channels, messages, store, logger), logger)

	errCh := make(chan error, 2)
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			_ = hub.Shutdown(cfg.ShutdownTimeout)
			return exitRuntime, fmt.Errorf("failed to listen on %s: %w", cfg.GRPCAddr, err)
		}
		go func() {
			log.Info("gRPC server listening", "address", lis.Addr())
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}
	go func() {
		log.Info("HTTP server listening", "address", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := exitOK
	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err = <-errCh:
		log.Error("Server failed", "error", err)
		code = exitRuntime
	}

	healthServer.SetServingStatus(chatservice.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Warn("HTTP server shutdown incomplete", "error", shutdownErr)
	}
	stopGRPC(grpcServer.GracefulStop, grpcServer.Stop, cfg.ShutdownTimeout, log)
	if shutdownErr := hub.Shutdown(cfg.ShutdownTimeout); shutdownErr != nil {
		log.Warn("Hub shutdown incomplete", "error", shutdownErr)
	}

	log.Info("Agora stopped")
	return code, err
}

// stopGRPC waits for in-flight calls at most timeout before forcing the stop.
func stopGRPC(graceful, force func(), timeout time.Duration, log *slog.Logger) {
	done := make(chan struct{})
	go func() {
		graceful()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		log.Info("gRPC server stopped gracefully")
	case <-timer.C:
		log.Warn("Force stopping gRPC server")
		force()
	}
}
