// Package config provides hierarchical configuration management.
// Priority: defaults < system < user < project < env < flags
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all HydroFlow configuration.
type Config struct {
	Version int `yaml:"version"`

	Conversion  ConversionConfig  `yaml:"conversion"`
	Batch       BatchConfig       `yaml:"batch"`
	Watch       WatchConfig       `yaml:"watch"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
}

// ConversionConfig controls default conversion behavior.
type ConversionConfig struct {
	OutputDir string `yaml:"output_dir"`
	// RainfallPeriod is the default totalization period.
	RainfallPeriod time.Duration `yaml:"rainfall_period"`
}

// BatchConfig controls batch runs.
type BatchConfig struct {
	Workers int `yaml:"workers"` // 0 = auto
}

// WatchConfig controls the directory watcher.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	// Patterns lists the file globs picked up by watch mode.
	Patterns []string `yaml:"patterns"`
}

// DiagnosticsConfig controls the retained log window.
type DiagnosticsConfig struct {
	Capacity int `yaml:"capacity"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Conversion: ConversionConfig{
			OutputDir:      ".",
			RainfallPeriod: 24 * time.Hour,
		},
		Batch: BatchConfig{
			Workers: 0, // auto
		},
		Watch: WatchConfig{
			Debounce: 2 * time.Second,
			Patterns: []string{"*.csv", "*.xlsx"},
		},
		Diagnostics: DiagnosticsConfig{
			Capacity: 1000,
		},
	}
}

// Manager handles configuration loading and merging.
type Manager struct {
	mu     sync.RWMutex
	config *Config
	paths  []string // Paths that were loaded
}

// NewManager creates a new configuration manager.
func NewManager() *Manager {
	return &Manager{
		config: Default(),
	}
}

// Load loads configuration from all sources in priority order.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Start with defaults
	m.config = Default()

	// Load from paths in order (later overrides earlier)
	paths := m.getConfigPaths()
	for _, path := range paths {
		if err := m.loadFile(path); err != nil {
			// Ignore missing files, but surface errors for existing files
			if !os.IsNotExist(err) {
				return err
			}
		} else {
			m.paths = append(m.paths, path)
		}
	}

	// Override with environment variables
	m.loadEnv()

	return nil
}

// getConfigPaths returns config file paths in priority order.
func (m *Manager) getConfigPaths() []string {
	var paths []string

	// System config
	if runtime.GOOS != "windows" {
		paths = append(paths, "/etc/hydroflow/config.yaml")
	}

	// User config
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".hydroflow", "config.yaml"))
	}

	// Project config (current directory)
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".hydroflow.yaml"))
	}

	return paths
}

// loadFile loads a single config file and merges it.
func (m *Manager) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var partial Config
	if err := yaml.Unmarshal(data, &partial); err != nil {
		return err
	}

	// Merge non-zero values
	m.merge(&partial)
	return nil
}

// merge merges non-zero values from src into config.
func (m *Manager) merge(src *Config) {
	if src.Conversion.OutputDir != "" {
		m.config.Conversion.OutputDir = src.Conversion.OutputDir
	}
	if src.Conversion.RainfallPeriod != 0 {
		m.config.Conversion.RainfallPeriod = src.Conversion.RainfallPeriod
	}
	if src.Batch.Workers != 0 {
		m.config.Batch.Workers = src.Batch.Workers
	}
	if src.Watch.Debounce != 0 {
		m.config.Watch.Debounce = src.Watch.Debounce
	}
	if len(src.Watch.Patterns) > 0 {
		m.config.Watch.Patterns = src.Watch.Patterns
	}
	if src.Diagnostics.Capacity != 0 {
		m.config.Diagnostics.Capacity = src.Diagnostics.Capacity
	}
}

// loadEnv loads configuration from environment variables.
func (m *Manager) loadEnv() {
	if v := os.Getenv("HYDROFLOW_OUTPUT_DIR"); v != "" {
		m.config.Conversion.OutputDir = v
	}

	if v := os.Getenv("HYDROFLOW_WORKERS"); v != "" {
		var workers int
		if _, err := fmt.Sscanf(v, "%d", &workers); err == nil {
			m.config.Batch.Workers = workers
		}
	}

	if v := os.Getenv("HYDROFLOW_RAINFALL_PERIOD"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			m.config.Conversion.RainfallPeriod = d
		}
	}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetPaths returns the paths that were loaded.
func (m *Manager) GetPaths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paths
}

// Save writes the current config to the user config file.
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configDir := filepath.Join(home, ".hydroflow")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(m.config)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0644)
}

// Global instance
var (
	globalManager *Manager
	globalOnce    sync.Once
)

// Global returns the global configuration manager.
func Global() *Manager {
	globalOnce.Do(func() {
		globalManager = NewManager()
		globalManager.Load()
	})
	return globalManager
}
