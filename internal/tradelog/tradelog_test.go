package tradelog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAppendWritesJSONLine(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BRIDGE_LOG_DIR", dir)

	err := Append(Entry{Symbol: "EURUSD", Side: "buy", Volume: 0.1, Price: 1.23456, OrderID: "42", Status: "FILLED"})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	err = Append(Entry{Symbol: "XAUUSDc", Side: "sell", Volume: 0.5, Price: 2030.15, SL: 2040, OrderID: "43", Status: "FILLED"})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	day := time.Now().UTC().Format("2006-01-02")
	f, err := os.Open(filepath.Join(dir, day+".txt"))
	if err != nil {
		t.Fatalf("Daily journal not created: %v", err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("Journal line is not valid JSON: %v", err)
		}
		entries = append(entries, e)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 journal lines, got %d", len(entries))
	}
	if entries[0].OrderID != "42" || entries[1].OrderID != "43" {
		t.Error("Entries out of order or missing order ids")
	}
	if entries[0].Time == "" {
		t.Error("Expected timestamp to be stamped on append")
	}
	if entries[1].SL != 2040 {
		t.Errorf("Expected sl 2040, got %v", entries[1].SL)
	}
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BRIDGE_LOG_DIR", dir)

	old := time.Now().UTC().AddDate(0, 0, -10).Format("2006-01-02")
	recent := time.Now().UTC().Format("2006-01-02")
	for _, name := range []string{old + ".txt", recent + ".txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}\n"), 0o644); err != nil {
			t.Fatalf("Failed to seed journal: %v", err)
		}
	}

	if err := CompressOlder(7); err != nil {
		t.Fatalf("CompressOlder failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, old+".txt.gz")); err != nil {
		t.Error("Expected old journal to be gzipped")
	}
	if _, err := os.Stat(filepath.Join(dir, old+".txt")); !os.IsNotExist(err) {
		t.Error("Expected old journal original to be removed")
	}
	if _, err := os.Stat(filepath.Join(dir, recent+".txt")); err != nil {
		t.Error("Recent journal must be left alone")
	}
}

func TestCompressOlderZeroRetentionIsNoop(t *testing.T) {
	t.Setenv("BRIDGE_LOG_DIR", t.TempDir())
	if err := CompressOlder(0); err != nil {
		t.Errorf("Zero retention must be a no-op, got %v", err)
	}
}
