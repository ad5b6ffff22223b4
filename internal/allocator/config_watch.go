package allocator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
)

// TuningConfig is the subset of a Pool's tunables safe to change on a
// running allocator: the high/low water marks Replenish targets. Base,
// Slack and the size-class table are fixed at construction, since changing
// them would require re-partitioning already-issued blocks.
type TuningConfig struct {
	MinFree int `json:"min_free"`
	MaxFree int `json:"max_free"`
}

// LoadTuningConfig reads and parses a TuningConfig from a JSON file.
func LoadTuningConfig(path string) (TuningConfig, error) {
	var cfg TuningConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("allocator: read tuning config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("allocator: parse tuning config: %w", err)
	}
	return cfg, nil
}

// WatchTuningConfig watches path for writes and invokes onChange with the
// newly parsed TuningConfig after each one. Parse failures are logged and
// otherwise ignored, so a transient half-written file never tears down the
// watch loop. The returned cleanup stops the watcher; callers should defer
// it or call it when ctx is done.
//
// A single watcher backs this: a background goroutine drains Events/Errors,
// torn down on context cancellation.
func WatchTuningConfig(ctx context.Context, path string, logger Logger, onChange func(TuningConfig)) (func() error, error) {
	if logger == nil {
		logger = NopLogger{}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("allocator: create config watcher: %w", err)
	}
	if err := w.Add(path); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("allocator: watch config path %s: %w", path, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := LoadTuningConfig(path)
				if err != nil {
					logger.Warn("tuning config reload failed", map[string]any{"path": path, "error": err.Error()})
					continue
				}
				onChange(cfg)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("tuning config watch error", map[string]any{"path": path, "error": err.Error()})
			}
		}
	}()

	return w.Close, nil
}
