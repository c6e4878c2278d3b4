package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/enzoh7/graphist-analyst/internal/types"
)

type fakeConn struct {
	listings  []types.ListedSymbol
	listCalls int
	listErr   error
}

func (f *fakeConn) Connected() bool { return true }

func (f *fakeConn) ListSymbols(ctx context.Context) ([]types.ListedSymbol, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listings, nil
}

func (f *fakeConn) SelectSymbol(ctx context.Context, name string) error { return nil }
func (f *fakeConn) GetTick(ctx context.Context, name string) (*types.Tick, error) {
	return nil, nil
}
func (f *fakeConn) GetSymbolInfo(ctx context.Context, name string) (*types.SymbolInfo, error) {
	return nil, nil
}
func (f *fakeConn) GetCandles(ctx context.Context, name, timeframe string, count int) ([]types.Candle, error) {
	return nil, nil
}
func (f *fakeConn) SubmitOrder(ctx context.Context, spec types.OrderSpec) (*types.OrderResult, error) {
	return nil, nil
}
func (f *fakeConn) ListPositions(ctx context.Context) ([]types.Position, error) { return nil, nil }
func (f *fakeConn) Authenticate(ctx context.Context, login, password, server string) error {
	return nil
}
func (f *fakeConn) AccountInfo(ctx context.Context) (*types.AccountInfo, error) { return nil, nil }

func listed(names ...string) []types.ListedSymbol {
	out := make([]types.ListedSymbol, 0, len(names))
	for _, n := range names {
		out = append(out, types.ListedSymbol{Name: n, Visible: true})
	}
	return out
}

func TestResolveExactMatch(t *testing.T) {
	conn := &fakeConn{listings: listed("EURUSD", "XAUUSD", "XAUUSDc")}
	r := New(conn, true)

	got := r.Resolve(context.Background(), "XAUUSD")
	if got != "XAUUSD" {
		t.Errorf("Expected exact match XAUUSD, got %s", got)
	}
}

func TestResolvePrefixMatch(t *testing.T) {
	conn := &fakeConn{listings: listed("EURUSD", "XAUUSDc")}
	r := New(conn, true)

	got := r.Resolve(context.Background(), "XAUUSD")
	if got != "XAUUSDc" {
		t.Errorf("Expected prefix match XAUUSDc, got %s", got)
	}
}

func TestResolveSubstringMatch(t *testing.T) {
	conn := &fakeConn{listings: listed("mXAUUSDc")}
	r := New(conn, true)

	got := r.Resolve(context.Background(), "XAUUSD")
	if got != "mXAUUSDc" {
		t.Errorf("Expected substring match mXAUUSDc, got %s", got)
	}
}

func TestResolveNoMatchReturnsNormalizedTicker(t *testing.T) {
	conn := &fakeConn{listings: listed("EURUSD")}
	r := New(conn, true)

	got := r.Resolve(context.Background(), "GBPJPY")
	if got != "GBPJPY" {
		t.Errorf("Expected fallback GBPJPY, got %s", got)
	}
}

func TestResolveStripsUSDTSuffix(t *testing.T) {
	conn := &fakeConn{listings: listed("BTCUSD")}
	r := New(conn, true)

	got := r.Resolve(context.Background(), "BTCUSDT")
	if got != "BTCUSD" {
		t.Errorf("Expected BTCUSD, got %s", got)
	}
}

func TestResolveKeepsUSDTWhenDisabled(t *testing.T) {
	conn := &fakeConn{listings: listed("BTCUSDT", "BTCUSD")}
	r := New(conn, false)

	got := r.Resolve(context.Background(), "btcusdt")
	if got != "BTCUSDT" {
		t.Errorf("Expected BTCUSDT, got %s", got)
	}
}

func TestResolveIdempotentAndMemoized(t *testing.T) {
	conn := &fakeConn{listings: listed("XAUUSDc")}
	r := New(conn, true)

	first := r.Resolve(context.Background(), "XAUUSD")
	second := r.Resolve(context.Background(), "XAUUSD")

	if first != second {
		t.Errorf("Expected identical results, got %s then %s", first, second)
	}
	if conn.listCalls != 1 {
		t.Errorf("Expected a single listing scan, got %d", conn.listCalls)
	}
}

func TestResolveCachesFallbackResult(t *testing.T) {
	conn := &fakeConn{listings: listed("EURUSD")}
	r := New(conn, true)

	r.Resolve(context.Background(), "GBPJPY")
	r.Resolve(context.Background(), "GBPJPY")

	if conn.listCalls != 1 {
		t.Errorf("Expected fallback result to be cached, got %d listing scans", conn.listCalls)
	}
}

func TestResolveListingErrorNotCached(t *testing.T) {
	conn := &fakeConn{listErr: errors.New("terminal down")}
	r := New(conn, true)

	got := r.Resolve(context.Background(), "EURUSD")
	if got != "EURUSD" {
		t.Errorf("Expected ticker passthrough on listing error, got %s", got)
	}

	// Listing recovers; the next call should scan again and find the match.
	conn.listErr = nil
	conn.listings = listed("EURUSDm")

	got = r.Resolve(context.Background(), "EURUSD")
	if got != "EURUSDm" {
		t.Errorf("Expected EURUSDm after listing recovered, got %s", got)
	}
}
