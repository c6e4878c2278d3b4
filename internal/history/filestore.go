package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/enzoh7/graphist-analyst/internal/logger"
	"github.com/enzoh7/graphist-analyst/internal/types"
)

// FileStore keeps one JSON file per (symbol, timeframe) key under a
// directory. It is the default backend: no external service, survives
// process restarts.
type FileStore struct {
	dir string
}

var _ Store = (*FileStore)(nil)

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

type fileEntry struct {
	Symbol    string         `json:"symbol"`
	Timeframe string         `json:"timeframe"`
	Candles   []types.Candle `json:"candles"`
}

func (fs *FileStore) path(symbol, timeframe string) string {
	return filepath.Join(fs.dir, cacheKey(symbol, timeframe)+".json")
}

// Load reads the cached series for the key. Corrupt or unreadable entries
// are logged and reported as absent.
func (fs *FileStore) Load(ctx context.Context, symbol, timeframe string) ([]types.Candle, bool, error) {
	p := fs.path(symbol, timeframe)

	b, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		logger.Warn(ctx, "History cache entry unreadable, treating as absent", "path", p, "error", err)
		return nil, false, nil
	}

	var entry fileEntry
	if err := json.Unmarshal(b, &entry); err != nil {
		logger.Warn(ctx, "History cache entry corrupt, treating as absent", "path", p, "error", err)
		return nil, false, nil
	}
	if len(entry.Candles) == 0 {
		return nil, false, nil
	}
	return entry.Candles, true, nil
}

// Save overwrites the cached series for the key. The write goes through a
// temp file and rename so a crash mid-write cannot corrupt the prior entry.
func (fs *FileStore) Save(ctx context.Context, symbol, timeframe string, candles []types.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	if err := os.MkdirAll(fs.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create history cache dir: %w", err)
	}

	b, err := json.Marshal(fileEntry{Symbol: symbol, Timeframe: timeframe, Candles: candles})
	if err != nil {
		return fmt.Errorf("failed to marshal history cache entry: %w", err)
	}

	p := fs.path(symbol, timeframe)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("failed to write history cache entry: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("failed to replace history cache entry: %w", err)
	}

	logger.Debug(ctx, "History cache entry saved", "symbol", symbol, "timeframe", timeframe, "count", len(candles))
	return nil
}
