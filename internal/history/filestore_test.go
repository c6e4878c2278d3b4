package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/enzoh7/graphist-analyst/internal/types"
)

func sampleCandles(n int) []types.Candle {
	out := make([]types.Candle, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, types.Candle{
			Ts:    1700000000 + int64(i*60),
			Open:  100 + float64(i),
			High:  101 + float64(i),
			Low:   99 + float64(i),
			Close: 100.5 + float64(i),
			Vol:   float64(10 * (i + 1)),
		})
	}
	return out
}

func TestFileStoreRoundTrip(t *testing.T) {
	fs := NewFileStore(t.TempDir())
	ctx := context.Background()

	saved := sampleCandles(80)
	if err := fs.Save(ctx, "BTCUSD", "1h", saved); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, ok, err := fs.Load(ctx, "BTCUSD", "1h")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected cache entry to be present")
	}
	if len(loaded) != len(saved) {
		t.Fatalf("Expected %d candles, got %d", len(saved), len(loaded))
	}
	for i := range saved {
		if loaded[i] != saved[i] {
			t.Errorf("Candle %d mismatch: saved %+v loaded %+v", i, saved[i], loaded[i])
		}
	}
}

func TestFileStoreLoadAbsent(t *testing.T) {
	fs := NewFileStore(t.TempDir())

	_, ok, err := fs.Load(context.Background(), "EURUSD", "1m")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ok {
		t.Error("Expected no cache entry")
	}
}

func TestFileStoreEmptySaveKeepsPriorEntry(t *testing.T) {
	fs := NewFileStore(t.TempDir())
	ctx := context.Background()

	saved := sampleCandles(5)
	if err := fs.Save(ctx, "XAUUSD", "1d", saved); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// An empty save must never destroy the prior entry.
	if err := fs.Save(ctx, "XAUUSD", "1d", nil); err != nil {
		t.Fatalf("Empty save failed: %v", err)
	}

	loaded, ok, _ := fs.Load(ctx, "XAUUSD", "1d")
	if !ok || len(loaded) != 5 {
		t.Errorf("Expected prior entry to survive empty save, ok=%v len=%d", ok, len(loaded))
	}
}

func TestFileStoreOverwrite(t *testing.T) {
	fs := NewFileStore(t.TempDir())
	ctx := context.Background()

	if err := fs.Save(ctx, "EURUSD", "5m", sampleCandles(3)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := fs.Save(ctx, "EURUSD", "5m", sampleCandles(7)); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	loaded, ok, _ := fs.Load(ctx, "EURUSD", "5m")
	if !ok || len(loaded) != 7 {
		t.Errorf("Expected 7 candles after overwrite, ok=%v len=%d", ok, len(loaded))
	}
}

func TestFileStoreCorruptEntryTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStore(dir)
	ctx := context.Background()

	if err := fs.Save(ctx, "GBPUSD", "1m", sampleCandles(2)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	p := filepath.Join(dir, "GBPUSD_1m.json")
	if err := os.WriteFile(p, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("Failed to corrupt entry: %v", err)
	}

	_, ok, err := fs.Load(ctx, "GBPUSD", "1m")
	if err != nil {
		t.Fatalf("Load of corrupt entry should not fail: %v", err)
	}
	if ok {
		t.Error("Expected corrupt entry to be reported absent")
	}
}

func TestFileStoreKeysAreIsolated(t *testing.T) {
	fs := NewFileStore(t.TempDir())
	ctx := context.Background()

	if err := fs.Save(ctx, "BTCUSD", "1h", sampleCandles(4)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	_, ok, _ := fs.Load(ctx, "BTCUSD", "1d")
	if ok {
		t.Error("Expected different timeframe key to be absent")
	}
	_, ok, _ = fs.Load(ctx, "ETHUSD", "1h")
	if ok {
		t.Error("Expected different symbol key to be absent")
	}
}

func TestCacheKeySanitizesSymbol(t *testing.T) {
	key := cacheKey("EUR/USD.micro", "1m")
	if key != "EUR_USD_micro_1m" {
		t.Errorf("Unexpected cache key %q", key)
	}
}
