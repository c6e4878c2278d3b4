// Package resolver maps caller-supplied tickers to the broker's listed
// symbol names. Broker feeds frequently suffix instrument names
// (XAUUSD -> XAUUSDc), so a charting caller's generic ticker rarely matches
// the listing verbatim.
package resolver

import (
	"context"
	"strings"

	"github.com/enzoh7/graphist-analyst/internal/logger"
	"github.com/enzoh7/graphist-analyst/internal/terminal"
	"github.com/enzoh7/graphist-analyst/internal/types"
)

type Resolver struct {
	conn      terminal.Conn
	stripUSDT bool
	cache     map[string]string
}

func New(conn terminal.Conn, stripUSDT bool) *Resolver {
	return &Resolver{
		conn:      conn,
		stripUSDT: stripUSDT,
		cache:     make(map[string]string),
	}
}

// Normalize upper-cases the ticker and optionally rewrites a trailing USDT
// to USD. Exchange-style crypto tickers quote against USDT while broker
// feeds list the same pairs against USD.
func (r *Resolver) Normalize(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if r.stripUSDT && strings.HasSuffix(t, "USDT") {
		t = strings.TrimSuffix(t, "USDT") + "USD"
	}
	return t
}

// Resolve maps a caller ticker to the broker's listed symbol name. Resolution
// is best-effort and never fails: when nothing in the listing matches, the
// normalized ticker is returned unchanged and the downstream terminal call
// reports the missing symbol explicitly. The result is memoized under the
// original ticker, whichever rule matched; the full-listing scan is expensive
// and symbol naming is stable for the life of a connection.
func (r *Resolver) Resolve(ctx context.Context, ticker string) string {
	if resolved, ok := r.cache[ticker]; ok {
		return resolved
	}

	normalized := r.Normalize(ticker)
	resolved := normalized

	symbols, err := r.conn.ListSymbols(ctx)
	if err != nil {
		logger.Warn(ctx, "Symbol listing unavailable, using ticker as-is", "ticker", ticker, "error", err)
		// Not cached: a later call may succeed once the listing is reachable.
		return normalized
	}

	if match, ok := findMatch(symbols, normalized); ok {
		resolved = match
	} else {
		logger.Warn(ctx, "No listed symbol matches ticker", "ticker", ticker, "normalized", normalized)
	}

	r.cache[ticker] = resolved
	logger.Debug(ctx, "Ticker resolved", "ticker", ticker, "symbol", resolved)
	return resolved
}

// findMatch searches the listing: exact name first, then prefix, then
// substring.
func findMatch(symbols []types.ListedSymbol, normalized string) (string, bool) {
	for _, s := range symbols {
		if s.Name == normalized {
			return s.Name, true
		}
	}
	for _, s := range symbols {
		if strings.HasPrefix(s.Name, normalized) {
			return s.Name, true
		}
	}
	for _, s := range symbols {
		if strings.Contains(s.Name, normalized) {
			return s.Name, true
		}
	}
	return "", false
}
