// Package history persists the most recent successful candle fetch per
// (symbol, timeframe) pair so history requests stay answerable while the
// market is closed and the live terminal returns nothing.
package history

import (
	"context"
	"strings"

	"github.com/enzoh7/graphist-analyst/internal/types"
)

// Store persists candle series keyed by (symbol, timeframe).
//
// Save is called only after a non-empty live fetch and overwrites the prior
// entry for the key. Load is consulted only when a live fetch came back
// empty; a missing or unreadable entry is reported as absent, never as a
// failure of the history request itself.
//
// Callers key entries by the normalized ticker rather than the resolved
// broker symbol. Resolving needs a live symbol listing; the cache has to
// stay addressable when the terminal is down, which is the only time it is
// read.
type Store interface {
	Load(ctx context.Context, symbol, timeframe string) ([]types.Candle, bool, error)
	Save(ctx context.Context, symbol, timeframe string, candles []types.Candle) error
}

// cacheKey derives the stable storage identifier for a (symbol, timeframe)
// pair. Symbol names can carry characters unsafe for filenames and Redis
// key conventions, so they are sanitized.
func cacheKey(symbol, timeframe string) string {
	sanitize := func(s string) string {
		var b strings.Builder
		for _, r := range s {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
				b.WriteRune(r)
			default:
				b.WriteRune('_')
			}
		}
		return b.String()
	}
	return sanitize(symbol) + "_" + sanitize(timeframe)
}
