package terminal

import (
	"context"

	"github.com/enzoh7/graphist-analyst/internal/types"
)

// Order fulfillment modes a terminal may advertise for market orders.
const (
	FillingFOK    = "FOK"    // fill-or-kill
	FillingReturn = "RETURN" // partial fills allowed, remainder returned
)

// RetcodeDone is the terminal return code for a fully executed order.
const RetcodeDone = 10009

// Timeframe tags accepted by GetCandles.
var Timeframes = []string{"1m", "5m", "15m", "30m", "1h", "4h", "1d", "1w"}

// ValidTimeframe reports whether tf is a recognized timeframe tag.
func ValidTimeframe(tf string) bool {
	for _, t := range Timeframes {
		if t == tf {
			return true
		}
	}
	return false
}

// Conn is the capability surface the bridge needs from a trading terminal
// session. Implementations are not safe for concurrent use; the dispatcher
// serializes all calls.
//
// Lookup methods return a nil result with a nil error when the terminal has
// no data for the symbol (unknown symbol, or no quote while the market is
// closed). Errors are reserved for transport and session failures.
type Conn interface {
	Connected() bool
	ListSymbols(ctx context.Context) ([]types.ListedSymbol, error)
	SelectSymbol(ctx context.Context, name string) error
	GetTick(ctx context.Context, name string) (*types.Tick, error)
	GetSymbolInfo(ctx context.Context, name string) (*types.SymbolInfo, error)
	GetCandles(ctx context.Context, name, timeframe string, count int) ([]types.Candle, error)
	SubmitOrder(ctx context.Context, spec types.OrderSpec) (*types.OrderResult, error)
	ListPositions(ctx context.Context) ([]types.Position, error)
	Authenticate(ctx context.Context, login, password, server string) error
	AccountInfo(ctx context.Context) (*types.AccountInfo, error)
}
