package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/enzoh7/graphist-analyst/internal/logger"
	"github.com/enzoh7/graphist-analyst/internal/server"
	"github.com/enzoh7/graphist-analyst/internal/store"
	"github.com/enzoh7/graphist-analyst/internal/trace"
)

const (
	serviceName    = "graphist-bridge"
	serviceVersion = "1.0.0"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := initializeSystem(); err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := store.LoadConfig(*configPath)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		os.Exit(1)
	}

	compressOldLogs(ctx)

	conn := initializeTerminal(ctx, cfg)
	dispatcher := initializeDispatcher(ctx, cfg, conn)
	srv := server.New(cfg.Listen, dispatcher)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		logger.Info(ctx, "Bridge listening", "addr", cfg.Listen, "terminal", cfg.Terminal.Backend, "connected", conn.Connected())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorWithErr(ctx, "Server failed", err)
		}
	case <-sigc:
		logger.Info(ctx, "Shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "Server shutdown incomplete", "error", err)
	}
	if err := trace.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "Tracer shutdown incomplete", "error", err)
	}
}
