package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/enzoh7/graphist-analyst/internal/bridge"
	"github.com/enzoh7/graphist-analyst/internal/history"
	"github.com/enzoh7/graphist-analyst/internal/logger"
	"github.com/enzoh7/graphist-analyst/internal/resolver"
	"github.com/enzoh7/graphist-analyst/internal/store"
	"github.com/enzoh7/graphist-analyst/internal/terminal"
	"github.com/enzoh7/graphist-analyst/internal/terminal/kite"
	"github.com/enzoh7/graphist-analyst/internal/terminal/mt5"
	"github.com/enzoh7/graphist-analyst/internal/terminal/termobs"
	"github.com/enzoh7/graphist-analyst/internal/trace"
	"github.com/enzoh7/graphist-analyst/internal/trade"
	"github.com/enzoh7/graphist-analyst/internal/tradelog"
)

// initializeSystem initializes environment, logger and tracer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(trace.Config{ServiceName: serviceName, Version: serviceVersion}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// compressOldLogs compresses old trade journal files if retention is configured
func compressOldLogs(ctx context.Context) {
	if v := os.Getenv("BRIDGE_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := tradelog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old trade journals", "error", err)
		}
	}
}

// initializeTerminal builds the configured terminal backend wrapped with
// observability. A backend that fails to connect is kept: the bridge serves
// connected:false through health rather than refusing to start.
func initializeTerminal(ctx context.Context, cfg *store.Config) terminal.Conn {
	switch cfg.Terminal.Backend {
	case "KITE":
		conn := kite.New(kite.Params{
			APIKey:      os.Getenv("KITE_API_KEY"),
			AccessToken: os.Getenv("KITE_ACCESS_TOKEN"),
			Exchange:    cfg.Terminal.Exchange,
		})
		if err := conn.Connect(ctx); err != nil {
			logger.Warn(ctx, "Kite session not available, serving degraded", "error", err)
		}
		return termobs.Wrap(conn)
	default:
		conn := mt5.New(mt5.Params{
			GatewayURL: cfg.Terminal.GatewayURL,
			Timeout:    time.Duration(cfg.CallTimeoutSec) * time.Second,
		})
		if err := conn.Connect(ctx); err != nil {
			logger.Warn(ctx, "Terminal gateway not available, serving degraded", "error", err)
		}
		return termobs.Wrap(conn)
	}
}

// initializeHistoryStore builds the configured history cache backend,
// falling back to the file store when Redis is unreachable.
func initializeHistoryStore(ctx context.Context, cfg *store.Config) history.Store {
	if cfg.History.Backend == "REDIS" {
		rs := history.NewRedisStore(history.RedisParams{
			Addr:     cfg.History.Redis.Addr,
			Password: cfg.History.Redis.Password,
			DB:       cfg.History.Redis.DB,
			Prefix:   cfg.History.Redis.Prefix,
		})
		if err := rs.Ping(ctx); err != nil {
			logger.Warn(ctx, "Redis history store unreachable, falling back to file store", "error", err)
			return history.NewFileStore(cfg.History.Dir)
		}
		logger.Info(ctx, "Using Redis history store", "addr", cfg.History.Redis.Addr)
		return rs
	}
	return history.NewFileStore(cfg.History.Dir)
}

// initializeDispatcher wires resolver, history store and normalizer into
// the request dispatcher.
func initializeDispatcher(ctx context.Context, cfg *store.Config, conn terminal.Conn) *bridge.Dispatcher {
	res := resolver.New(conn, cfg.StripUSDT())
	st := initializeHistoryStore(ctx, cfg)
	norm := trade.New(conn, cfg.Trade.DefaultFilling)

	return bridge.New(conn, res, st, norm, bridge.Params{
		OrderTag:    cfg.Trade.Comment,
		OrderMagic:  cfg.Trade.Magic,
		CallTimeout: time.Duration(cfg.CallTimeoutSec) * time.Second,
	})
}
