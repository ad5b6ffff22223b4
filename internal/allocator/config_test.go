package allocator

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAlignUp(t *testing.T) {
	cases := []struct{ size, alignment, want uintptr }{
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{9, 8, 16},
		{17, 16, 32},
		{5, 0, 5},
	}
	for _, c := range cases {
		if got := alignUp(c.size, c.alignment); got != c.want {
			t.Errorf("alignUp(%d, %d) = %d, want %d", c.size, c.alignment, got, c.want)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()
	if cfg.Base != DefaultBase {
		t.Errorf("Base = %d, want %d", cfg.Base, DefaultBase)
	}
	if cfg.Slack != DefaultSlack {
		t.Errorf("Slack = %d, want %d", cfg.Slack, DefaultSlack)
	}
	if _, ok := cfg.Logger.(NopLogger); !ok {
		t.Errorf("Logger = %T, want NopLogger", cfg.Logger)
	}
}

func TestNewWithOptions(t *testing.T) {
	sa, err := New(2000, 1, 2, true,
		WithBase(512),
		WithSlack(50),
		WithAlignment(16),
		WithLogger(NopLogger{}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sa.Close()

	if sa.base != 512 || sa.slack != 50 {
		t.Fatalf("base/slack = %d/%d, want 512/50", sa.base, sa.slack)
	}

	blk := sa.Allocate(100)
	if blk == nil {
		t.Fatal("Allocate(100) returned nil")
	}
	sa.Deallocate(blk)
}

func TestTuningConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.json")
	if err := os.WriteFile(path, []byte(`{"min_free":3,"max_free":9}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("LoadTuningConfig: %v", err)
	}
	if cfg.MinFree != 3 || cfg.MaxFree != 9 {
		t.Fatalf("cfg = %+v, want {MinFree:3 MaxFree:9}", cfg)
	}
}

func TestLoadTuningConfigMissingFile(t *testing.T) {
	if _, err := LoadTuningConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestSizedAllocatorSetWaterMarks(t *testing.T) {
	sa, err := NewSizedAllocator(SizedAllocatorConfig{MaxPayload: 2000, MinFree: 1, MaxFree: 2})
	if err != nil {
		t.Fatalf("NewSizedAllocator: %v", err)
	}
	defer sa.Close()

	if err := sa.SetWaterMarks(4, 8); err != nil {
		t.Fatalf("SetWaterMarks: %v", err)
	}
	for i, p := range sa.pools {
		if p.minFreeValue() != 4 || p.maxFreeValue() != 8 {
			t.Fatalf("pool %d water marks = %d/%d, want 4/8", i, p.minFreeValue(), p.maxFreeValue())
		}
	}

	sa.Replenish()
	for i, p := range sa.pools {
		if got := p.FreeCount(); got < 4 {
			t.Fatalf("pool %d FreeCount() = %d, want >= 4 after replenish", i, got)
		}
	}
}
