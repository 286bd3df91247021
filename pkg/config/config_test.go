package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Version != 1 {
		t.Errorf("version = %d, want 1", cfg.Version)
	}
	if cfg.Conversion.OutputDir != "." {
		t.Errorf("output dir = %q, want .", cfg.Conversion.OutputDir)
	}
	if cfg.Conversion.RainfallPeriod != 24*time.Hour {
		t.Errorf("rainfall period = %v, want 24h", cfg.Conversion.RainfallPeriod)
	}
	if cfg.Batch.Workers != 0 {
		t.Errorf("workers = %d, want 0 (auto)", cfg.Batch.Workers)
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("debounce = %v, want 2s", cfg.Watch.Debounce)
	}
	if len(cfg.Watch.Patterns) != 2 {
		t.Errorf("patterns = %v", cfg.Watch.Patterns)
	}
	if cfg.Diagnostics.Capacity != 1000 {
		t.Errorf("capacity = %d, want 1000", cfg.Diagnostics.Capacity)
	}
}

func TestMergeOverridesNonZeroOnly(t *testing.T) {
	m := NewManager()
	m.merge(&Config{
		Conversion: ConversionConfig{OutputDir: "/data/out"},
		Batch:      BatchConfig{Workers: 4},
	})

	cfg := m.Get()
	if cfg.Conversion.OutputDir != "/data/out" {
		t.Errorf("output dir = %q", cfg.Conversion.OutputDir)
	}
	if cfg.Batch.Workers != 4 {
		t.Errorf("workers = %d", cfg.Batch.Workers)
	}
	// Untouched fields keep their defaults.
	if cfg.Conversion.RainfallPeriod != 24*time.Hour {
		t.Errorf("rainfall period = %v, want default", cfg.Conversion.RainfallPeriod)
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("debounce = %v, want default", cfg.Watch.Debounce)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	// Durations are plain int64 nanoseconds in yaml.
	content := "version: 1\n" +
		"conversion:\n" +
		"  output_dir: /srv/fdv\n" +
		"  rainfall_period: 3600000000000\n" +
		"watch:\n" +
		"  patterns: [\"*.csv\"]\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m := NewManager()
	if err := m.loadFile(path); err != nil {
		t.Fatalf("loadFile: %v", err)
	}

	cfg := m.Get()
	if cfg.Conversion.OutputDir != "/srv/fdv" {
		t.Errorf("output dir = %q", cfg.Conversion.OutputDir)
	}
	if cfg.Conversion.RainfallPeriod != time.Hour {
		t.Errorf("rainfall period = %v, want 1h", cfg.Conversion.RainfallPeriod)
	}
	if len(cfg.Watch.Patterns) != 1 || cfg.Watch.Patterns[0] != "*.csv" {
		t.Errorf("patterns = %v", cfg.Watch.Patterns)
	}
}

func TestLoadFileRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("conversion: [not a mapping"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := NewManager().loadFile(path); err == nil {
		t.Error("malformed yaml accepted")
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("HYDROFLOW_OUTPUT_DIR", "/env/out")
	t.Setenv("HYDROFLOW_WORKERS", "8")
	t.Setenv("HYDROFLOW_RAINFALL_PERIOD", "30m")

	m := NewManager()
	m.loadEnv()

	cfg := m.Get()
	if cfg.Conversion.OutputDir != "/env/out" {
		t.Errorf("output dir = %q", cfg.Conversion.OutputDir)
	}
	if cfg.Batch.Workers != 8 {
		t.Errorf("workers = %d", cfg.Batch.Workers)
	}
	if cfg.Conversion.RainfallPeriod != 30*time.Minute {
		t.Errorf("rainfall period = %v", cfg.Conversion.RainfallPeriod)
	}
}

func TestLoadEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("HYDROFLOW_WORKERS", "many")
	t.Setenv("HYDROFLOW_RAINFALL_PERIOD", "soon")

	m := NewManager()
	m.loadEnv()

	cfg := m.Get()
	if cfg.Batch.Workers != 0 {
		t.Errorf("workers = %d, want default", cfg.Batch.Workers)
	}
	if cfg.Conversion.RainfallPeriod != 24*time.Hour {
		t.Errorf("rainfall period = %v, want default", cfg.Conversion.RainfallPeriod)
	}
}
