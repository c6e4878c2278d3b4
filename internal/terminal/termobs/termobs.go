package termobs

import (
	"context"

	"github.com/enzoh7/graphist-analyst/internal/logger"
	"github.com/enzoh7/graphist-analyst/internal/terminal"
	"github.com/enzoh7/graphist-analyst/internal/trace"
	"github.com/enzoh7/graphist-analyst/internal/types"
)

// observableConn wraps a terminal connection with observability (logging & tracing)
type observableConn struct {
	conn terminal.Conn
}

// Compile-time interface check
var _ terminal.Conn = (*observableConn)(nil)

// Wrap wraps a terminal connection with observability middleware
func Wrap(conn terminal.Conn) terminal.Conn {
	return &observableConn{conn: conn}
}

func (oc *observableConn) Connected() bool {
	return oc.conn.Connected()
}

// ListSymbols fetches the broker symbol listing with observability
func (oc *observableConn) ListSymbols(ctx context.Context) ([]types.ListedSymbol, error) {
	ctx, span := trace.StartSpan(ctx, "terminal.ListSymbols")
	defer span.End()

	symbols, err := oc.conn.ListSymbols(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to list symbols", err)
		return nil, err
	}

	logger.Debug(ctx, "Symbols listed", "count", len(symbols))
	return symbols, nil
}

func (oc *observableConn) SelectSymbol(ctx context.Context, name string) error {
	ctx, span := trace.StartSpan(ctx, "terminal.SelectSymbol")
	defer span.End()

	if err := oc.conn.SelectSymbol(ctx, name); err != nil {
		logger.ErrorWithErr(ctx, "Failed to select symbol", err, "symbol", name)
		return err
	}
	return nil
}

// GetTick fetches the current quote with observability
func (oc *observableConn) GetTick(ctx context.Context, name string) (*types.Tick, error) {
	ctx, span := trace.StartSpan(ctx, "terminal.GetTick")
	defer span.End()

	tick, err := oc.conn.GetTick(ctx, name)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch tick", err, "symbol", name)
		return nil, err
	}

	if tick == nil {
		logger.Debug(ctx, "No tick available", "symbol", name)
	} else {
		logger.Debug(ctx, "Tick fetched", "symbol", name, "bid", tick.Bid, "ask", tick.Ask)
	}
	return tick, nil
}

func (oc *observableConn) GetSymbolInfo(ctx context.Context, name string) (*types.SymbolInfo, error) {
	ctx, span := trace.StartSpan(ctx, "terminal.GetSymbolInfo")
	defer span.End()

	info, err := oc.conn.GetSymbolInfo(ctx, name)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch symbol info", err, "symbol", name)
		return nil, err
	}
	return info, nil
}

// GetCandles fetches candles with observability
func (oc *observableConn) GetCandles(ctx context.Context, name, timeframe string, count int) ([]types.Candle, error) {
	ctx, span := trace.StartSpan(ctx, "terminal.GetCandles")
	defer span.End()

	candles, err := oc.conn.GetCandles(ctx, name, timeframe, count)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch candles", err, "symbol", name, "timeframe", timeframe, "count", count)
		return nil, err
	}

	logger.Debug(ctx, "Candles fetched", "symbol", name, "timeframe", timeframe, "count", len(candles))
	return candles, nil
}

// SubmitOrder submits an order with observability
func (oc *observableConn) SubmitOrder(ctx context.Context, spec types.OrderSpec) (*types.OrderResult, error) {
	ctx, span := trace.StartSpan(ctx, "terminal.SubmitOrder")
	defer span.End()

	logger.Info(ctx, "Submitting order",
		"symbol", spec.Symbol,
		"side", spec.Side,
		"volume", spec.Volume,
		"price", spec.Price,
		"filling", spec.Filling,
	)

	result, err := oc.conn.SubmitOrder(ctx, spec)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to submit order", err, "symbol", spec.Symbol, "side", spec.Side)
		return nil, err
	}

	if result == nil {
		logger.Error(ctx, "Terminal returned no order result", "symbol", spec.Symbol)
	} else {
		logger.Order(ctx, spec.Symbol, spec.Side, spec.Volume, spec.Price, result.OrderID, "retcode", result.Retcode)
	}
	return result, nil
}

func (oc *observableConn) ListPositions(ctx context.Context) ([]types.Position, error) {
	ctx, span := trace.StartSpan(ctx, "terminal.ListPositions")
	defer span.End()

	positions, err := oc.conn.ListPositions(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to list positions", err)
		return nil, err
	}

	logger.Debug(ctx, "Positions listed", "count", len(positions))
	return positions, nil
}

// Authenticate re-authenticates the terminal session with observability.
// The password is never logged.
func (oc *observableConn) Authenticate(ctx context.Context, login, password, server string) error {
	ctx, span := trace.StartSpan(ctx, "terminal.Authenticate")
	defer span.End()

	logger.Info(ctx, "Re-authenticating terminal session", "login", login, "server", server)

	if err := oc.conn.Authenticate(ctx, login, password, server); err != nil {
		logger.ErrorWithErr(ctx, "Terminal authentication failed", err, "login", login, "server", server)
		return err
	}

	logger.Info(ctx, "Terminal session re-authenticated", "login", login, "server", server)
	return nil
}

func (oc *observableConn) AccountInfo(ctx context.Context) (*types.AccountInfo, error) {
	ctx, span := trace.StartSpan(ctx, "terminal.AccountInfo")
	defer span.End()

	return oc.conn.AccountInfo(ctx)
}
