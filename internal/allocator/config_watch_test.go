package allocator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchTuningConfigReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.json")
	if err := os.WriteFile(path, []byte(`{"min_free":1,"max_free":2}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan TuningConfig, 1)
	stop, err := WatchTuningConfig(ctx, path, NopLogger{}, func(cfg TuningConfig) {
		received <- cfg
	})
	if err != nil {
		t.Fatalf("WatchTuningConfig: %v", err)
	}
	defer stop()

	if err := os.WriteFile(path, []byte(`{"min_free":5,"max_free":10}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case cfg := <-received:
		if cfg.MinFree != 5 || cfg.MaxFree != 10 {
			t.Fatalf("cfg = %+v, want {MinFree:5 MaxFree:10}", cfg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for tuning config reload")
	}
}
