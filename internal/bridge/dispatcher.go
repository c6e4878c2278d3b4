// Package bridge routes decoded requests to the terminal connection,
// orchestrating symbol resolution, trade normalization and the history
// cache. It always produces a response; no fault escapes to the caller.
package bridge

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/enzoh7/graphist-analyst/internal/history"
	"github.com/enzoh7/graphist-analyst/internal/logger"
	"github.com/enzoh7/graphist-analyst/internal/resolver"
	"github.com/enzoh7/graphist-analyst/internal/terminal"
	"github.com/enzoh7/graphist-analyst/internal/trace"
	"github.com/enzoh7/graphist-analyst/internal/trade"
	"github.com/enzoh7/graphist-analyst/internal/tradelog"
	"github.com/enzoh7/graphist-analyst/internal/types"
)

const defaultHistoryLimit = 500

type Params struct {
	OrderTag    string
	OrderMagic  int
	CallTimeout time.Duration
}

type Dispatcher struct {
	// The terminal session is not safe for concurrent use; mu serializes
	// request processing, one request at a time in arrival order.
	mu sync.Mutex

	conn        terminal.Conn
	resolver    *resolver.Resolver
	store       history.Store
	normalizer  *trade.Normalizer
	orderTag    string
	orderMagic  int
	callTimeout time.Duration
}

func New(conn terminal.Conn, res *resolver.Resolver, store history.Store, norm *trade.Normalizer, p Params) *Dispatcher {
	if p.CallTimeout == 0 {
		p.CallTimeout = 30 * time.Second
	}
	if p.OrderTag == "" {
		p.OrderTag = "Pro Analyst Trade"
	}
	if p.OrderMagic == 0 {
		p.OrderMagic = 2026
	}
	return &Dispatcher{
		conn:        conn,
		resolver:    res,
		store:       store,
		normalizer:  norm,
		orderTag:    p.OrderTag,
		orderMagic:  p.OrderMagic,
		callTimeout: p.CallTimeout,
	}
}

// Handle services one request and always returns a response. Panics are
// recovered into an InternalError outcome, and every request runs under a
// deadline so one stuck terminal call cannot wedge the bridge forever.
func (d *Dispatcher) Handle(ctx context.Context, req Request) (resp Response) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := uuid.NewString()

	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "Panic while handling request", "action", req.Action, "panic", fmt.Sprintf("%v", r))
			resp = errorResponse(CodeInternalError, "internal error")
		}
		resp.ID = id
	}()

	ctx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	action := strings.ToLower(strings.TrimSpace(req.Action))
	ctx, span := trace.StartSpan(ctx, "bridge."+action)
	defer span.End()

	logger.Debug(ctx, "Handling request", "id", id, "action", action, "symbol", req.Symbol)

	switch action {
	case "health":
		return d.handleHealth(ctx)
	case "price":
		return d.handlePrice(ctx, req)
	case "history":
		return d.handleHistory(ctx, req)
	case "trade":
		return d.handleTrade(ctx, req)
	case "positions":
		return d.handlePositions(ctx)
	case "symbols":
		return d.handleSymbols(ctx)
	case "switch_account":
		return d.handleSwitchAccount(ctx, req)
	case "":
		return errorResponse(CodeUnknownAction, "missing action")
	default:
		return errorResponse(CodeUnknownAction, fmt.Sprintf("unknown action %q", req.Action))
	}
}

func (d *Dispatcher) handleHealth(ctx context.Context) Response {
	connected := d.conn.Connected()
	resp := Response{Status: StatusSuccess, Connected: &connected}
	if connected {
		if account, err := d.conn.AccountInfo(ctx); err == nil && account != nil {
			resp.Account = account
		}
	}
	return resp
}

func (d *Dispatcher) handlePrice(ctx context.Context, req Request) Response {
	if req.Symbol == "" {
		return errorResponse(CodeInvalidRequest, "symbol is required")
	}
	if !d.conn.Connected() {
		return errorResponse(CodeConnectionUnavailable, "terminal not connected")
	}

	symbol := d.resolver.Resolve(ctx, req.Symbol)
	if err := d.conn.SelectSymbol(ctx, symbol); err != nil {
		logger.Warn(ctx, "Symbol select failed", "symbol", symbol, "error", err)
	}

	tick, err := d.conn.GetTick(ctx, symbol)
	if err != nil {
		return errorResponse(CodeConnectionUnavailable, err.Error())
	}
	if tick == nil {
		// No tick for a valid symbol means the market is closed; an
		// unknown symbol is an explicit error.
		info, err := d.conn.GetSymbolInfo(ctx, symbol)
		if err != nil {
			return errorResponse(CodeConnectionUnavailable, err.Error())
		}
		if info == nil {
			return errorResponse(CodeSymbolNotFound, fmt.Sprintf("symbol %s not found", symbol))
		}
		return Response{Status: StatusMarketClosed, Symbol: symbol, Message: "no tick available"}
	}

	return Response{
		Status: StatusSuccess,
		Symbol: symbol,
		Bid:    tick.Bid,
		Ask:    tick.Ask,
		Time:   tick.Time,
	}
}

func (d *Dispatcher) handleHistory(ctx context.Context, req Request) Response {
	if req.Symbol == "" {
		return errorResponse(CodeInvalidRequest, "symbol is required")
	}

	timeframe := strings.ToLower(req.Timeframe)
	if !terminal.ValidTimeframe(timeframe) {
		timeframe = "1m"
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	// The cache is keyed by the normalized ticker, not the resolved broker
	// name: resolution needs a live symbol listing, and the cache must stay
	// reachable precisely when the terminal is down.
	normalized := d.resolver.Normalize(req.Symbol)
	symbol := d.resolver.Resolve(ctx, req.Symbol)
	if err := d.conn.SelectSymbol(ctx, symbol); err != nil {
		logger.Warn(ctx, "Symbol select failed", "symbol", symbol, "error", err)
	}

	candles, err := d.conn.GetCandles(ctx, symbol, timeframe, limit)
	if err != nil {
		// A failed live fetch degrades to the cache exactly like an
		// empty one; the prior cache entry is never destroyed.
		logger.Warn(ctx, "Live candle fetch failed, consulting cache", "symbol", symbol, "timeframe", timeframe, "error", err)
		candles = nil
	}

	fromCache := false
	if len(candles) > 0 {
		if err := d.store.Save(ctx, normalized, timeframe, candles); err != nil {
			logger.Warn(ctx, "Failed to persist history cache entry", "symbol", normalized, "timeframe", timeframe, "error", err)
		}
		return Response{Status: StatusSuccess, Symbol: symbol, Candles: &candles, FromCache: &fromCache}
	}

	cached, ok, err := d.store.Load(ctx, normalized, timeframe)
	if err != nil {
		logger.Warn(ctx, "History cache load failed", "symbol", normalized, "timeframe", timeframe, "error", err)
	}
	if !ok && symbol != normalized {
		// Entries written when callers address the broker name directly.
		cached, ok, err = d.store.Load(ctx, symbol, timeframe)
		if err != nil {
			logger.Warn(ctx, "History cache load failed", "symbol", symbol, "timeframe", timeframe, "error", err)
		}
	}
	if ok {
		fromCache = true
		return Response{
			Status:    StatusSuccess,
			Symbol:    symbol,
			Candles:   &cached,
			FromCache: &fromCache,
			Message:   "market closed, serving last cached history",
		}
	}

	empty := make([]types.Candle, 0)
	return Response{
		Status:  StatusNoData,
		Code:    CodeMarketClosedNoCache,
		Symbol:  symbol,
		Candles: &empty,
		Message: fmt.Sprintf("no data for %s %s", symbol, timeframe),
	}
}

func (d *Dispatcher) handleTrade(ctx context.Context, req Request) Response {
	side := strings.ToLower(req.Type)
	if side != "buy" && side != "sell" {
		return errorResponse(CodeInvalidRequest, fmt.Sprintf("invalid order type %q", req.Type))
	}
	if req.Symbol == "" {
		return errorResponse(CodeInvalidRequest, "symbol is required")
	}
	if !d.conn.Connected() {
		return errorResponse(CodeConnectionUnavailable, "terminal not connected")
	}

	symbol := d.resolver.Resolve(ctx, req.Symbol)
	if err := d.conn.SelectSymbol(ctx, symbol); err != nil {
		logger.Warn(ctx, "Symbol select failed", "symbol", symbol, "error", err)
	}

	prepared, err := d.normalizer.Prepare(ctx, symbol, side, req.Volume, req.SL, req.TP)
	if err != nil {
		switch {
		case err == trade.ErrInvalidVolume:
			return errorResponse(CodeInvalidRequest, err.Error())
		case err == trade.ErrInvalidSymbol:
			return errorResponse(CodeSymbolNotFound, fmt.Sprintf("symbol %s not found", symbol))
		case err == trade.ErrNoQuote:
			return errorResponse(CodeNoQuote, fmt.Sprintf("no quote for %s", symbol))
		default:
			return errorResponse(CodeConnectionUnavailable, err.Error())
		}
	}

	spec := types.OrderSpec{
		Symbol:  symbol,
		Side:    side,
		Volume:  req.Volume,
		Price:   prepared.Price,
		SL:      prepared.SL,
		TP:      prepared.TP,
		HasSL:   prepared.HasSL,
		HasTP:   prepared.HasTP,
		Filling: prepared.Filling,
		Magic:   d.orderMagic,
		Tag:     d.orderTag,
	}

	result, err := d.conn.SubmitOrder(ctx, spec)
	if err != nil {
		return errorResponse(CodeConnectionUnavailable, err.Error())
	}
	if result == nil {
		return errorResponse(CodeInternalError, "terminal returned no order result")
	}
	if result.Retcode != terminal.RetcodeDone {
		// The broker's own wording goes back verbatim so the caller can
		// react (re-price and retry, adjust volume, ...).
		return errorResponse(CodeBrokerRejected, result.Comment)
	}

	if err := tradelog.Append(tradelog.Entry{
		Symbol:  symbol,
		Side:    side,
		Volume:  req.Volume,
		Price:   prepared.Price,
		SL:      prepared.SL,
		TP:      prepared.TP,
		OrderID: result.OrderID,
		Status:  "FILLED",
	}); err != nil {
		logger.Warn(ctx, "Failed to append trade journal entry", "order_id", result.OrderID, "error", err)
	}

	return Response{Status: StatusSuccess, Symbol: symbol, OrderID: result.OrderID}
}

func (d *Dispatcher) handlePositions(ctx context.Context) Response {
	if !d.conn.Connected() {
		return errorResponse(CodeConnectionUnavailable, "terminal not connected")
	}

	positions, err := d.conn.ListPositions(ctx)
	if err != nil {
		return errorResponse(CodeConnectionUnavailable, err.Error())
	}
	if positions == nil {
		positions = make([]types.Position, 0)
	}
	return Response{Status: StatusSuccess, Positions: &positions}
}

func (d *Dispatcher) handleSymbols(ctx context.Context) Response {
	if !d.conn.Connected() {
		return errorResponse(CodeConnectionUnavailable, "terminal not connected")
	}

	listed, err := d.conn.ListSymbols(ctx)
	if err != nil {
		return errorResponse(CodeConnectionUnavailable, err.Error())
	}

	names := make([]string, 0, len(listed))
	for _, s := range listed {
		if s.Visible {
			names = append(names, s.Name)
		}
	}
	return Response{Status: StatusSuccess, Symbols: names}
}

func (d *Dispatcher) handleSwitchAccount(ctx context.Context, req Request) Response {
	if req.Login == "" || req.Password == "" || req.Server == "" {
		// No authentication attempt with incomplete credentials:
		// re-authentication is not safe to fire blindly.
		return errorResponse(CodeMissingCredentials, "login, password and server are all required")
	}

	if err := d.conn.Authenticate(ctx, req.Login, req.Password, req.Server); err != nil {
		return errorResponse(CodeBrokerRejected, err.Error())
	}

	resp := Response{Status: StatusSuccess, Message: "account switched"}
	if account, err := d.conn.AccountInfo(ctx); err == nil && account != nil {
		resp.Account = account
	}
	return resp
}
