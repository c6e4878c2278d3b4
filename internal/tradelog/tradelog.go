package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var mu sync.Mutex

// Entry is one submitted order, journaled as a JSON line in a daily file.
type Entry struct {
	Time    string  `json:"time"`
	Symbol  string  `json:"symbol"`
	Side    string  `json:"side"`
	Volume  float64 `json:"volume"`
	Price   float64 `json:"price"`
	SL      float64 `json:"sl,omitempty"`
	TP      float64 `json:"tp,omitempty"`
	OrderID string  `json:"order_id"`
	Status  string  `json:"status"`
}

func logDir() string {
	if v := os.Getenv("BRIDGE_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func dailyFilepath(t time.Time) string {
	d := t.UTC().Format("2006-01-02")
	return filepath.Join(logDir(), d+".txt")
}

func Append(e Entry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().UTC()
	e.Time = now.Format("2006-01-02 15:04:05")
	p := dailyFilepath(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, _ := json.Marshal(e)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips journal files older than the given number of days and
// removes the originals. A zero or negative retention is a no-op.
func CompressOlder(days int) error {
	if days <= 0 {
		return nil
	}
	mu.Lock()
	defer mu.Unlock()

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	entries, err := os.ReadDir(logDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".txt" {
			continue
		}
		day, err := time.Parse("2006-01-02", name[:len(name)-len(".txt")])
		if err != nil || !day.Before(cutoff) {
			continue
		}
		if err := gzipFile(filepath.Join(logDir(), name)); err != nil {
			return err
		}
	}
	return nil
}

func gzipFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	defer dst.Close()

	zw := gzip.NewWriter(dst)
	if _, err := io.Copy(zw, src); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return os.Remove(path)
}
