// Package config loads the tradejournal configuration from YAML or JSON files
// with TJ_* environment overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. TJ_SYNC_POLL_INTERVAL=1m.
const EnvPrefix = "TJ"

// Config represents the complete tradejournal configuration
type Config struct {
	Store  StoreConfig  `json:"store" yaml:"store" mapstructure:"store"`
	Import ImportConfig `json:"import" yaml:"import" mapstructure:"import"`
	Sync   SyncConfig   `json:"sync" yaml:"sync" mapstructure:"sync"`
	Remote RemoteConfig `json:"remote" yaml:"remote" mapstructure:"remote"`
	Server ServerConfig `json:"server" yaml:"server" mapstructure:"server"`
	Log    LogConfig    `json:"log" yaml:"log" mapstructure:"log"`
}

// StoreConfig locates the local journal database
type StoreConfig struct {
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// ImportConfig tunes statement parsing
type ImportConfig struct {
	NoiseThreshold float64 `json:"noise_threshold" yaml:"noise_threshold" mapstructure:"noise_threshold"` // 0 disables
	HeaderScanRows int     `json:"header_scan_rows" yaml:"header_scan_rows" mapstructure:"header_scan_rows"`
	Currency       string  `json:"currency" yaml:"currency" mapstructure:"currency"`
}

// SyncConfig holds the reconciliation timings, e.g. "1500ms", "30s"
type SyncConfig struct {
	PushDebounce string `json:"push_debounce" yaml:"push_debounce" mapstructure:"push_debounce"`
	GuardWindow  string `json:"guard_window" yaml:"guard_window" mapstructure:"guard_window"`
	PollInterval string `json:"poll_interval" yaml:"poll_interval" mapstructure:"poll_interval"`
	WatchSettle  string `json:"watch_settle" yaml:"watch_settle" mapstructure:"watch_settle"`
}

func (s SyncConfig) PushDebounceDuration() (time.Duration, error) { return parseDuration(s.PushDebounce) }
func (s SyncConfig) GuardWindowDuration() (time.Duration, error)  { return parseDuration(s.GuardWindow) }
func (s SyncConfig) PollIntervalDuration() (time.Duration, error) { return parseDuration(s.PollInterval) }
func (s SyncConfig) WatchSettleDuration() (time.Duration, error)  { return parseDuration(s.WatchSettle) }

// RemoteConfig selects the snapshot store
type RemoteConfig struct {
	Driver   string `json:"driver" yaml:"driver" mapstructure:"driver"` // "none", "memory", "sqlite", "redis" or "http"
	Path     string `json:"path,omitempty" yaml:"path,omitempty" mapstructure:"path"`
	Addr     string `json:"addr,omitempty" yaml:"addr,omitempty" mapstructure:"addr"`
	Password string `json:"password,omitempty" yaml:"password,omitempty" mapstructure:"password"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty" mapstructure:"db"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty" mapstructure:"prefix"`
	URL      string `json:"url,omitempty" yaml:"url,omitempty" mapstructure:"url"`
	Token    string `json:"token,omitempty" yaml:"token,omitempty" mapstructure:"token"`
	Timeout  string `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout"`
}

func (r RemoteConfig) TimeoutDuration() (time.Duration, error) { return parseDuration(r.Timeout) }

// ServerConfig configures `tradejournal serve`
type ServerConfig struct {
	Addr   string `json:"addr" yaml:"addr" mapstructure:"addr"`
	Token  string `json:"token,omitempty" yaml:"token,omitempty" mapstructure:"token"`
	Mode   string `json:"mode" yaml:"mode" mapstructure:"mode"`
	DBPath string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`
}

// LogConfig contains logging parameters
type LogConfig struct {
	Level      string `json:"level" yaml:"level" mapstructure:"level"`
	File       string `json:"file,omitempty" yaml:"file,omitempty" mapstructure:"file"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty" yaml:"max_size_mb,omitempty" mapstructure:"max_size_mb"`
	MaxBackups int    `json:"max_backups,omitempty" yaml:"max_backups,omitempty" mapstructure:"max_backups"`
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// LoadFromFile loads configuration from a YAML or JSON file with TJ_*
// environment overrides. An empty path yields the defaults plus overrides.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext == "yml" || ext == "" {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so that AutomaticEnv can override keys
// absent from the file.
func setDefaults(v *viper.Viper, d *Config) {
	var m map[string]any
	if err := mapstructure.Decode(d, &m); err != nil {
		return
	}
	setDefaultMap(v, "", m)
}

func setDefaultMap(v *viper.Viper, prefix string, m map[string]any) {
	for k, val := range m {
		if reflect.ValueOf(val).Kind() == reflect.Struct {
			var sub map[string]any
			if err := mapstructure.Decode(val, &sub); err == nil {
				val = sub
			}
		}
		if sub, ok := val.(map[string]any); ok {
			setDefaultMap(v, prefix+k+".", sub)
			continue
		}
		v.SetDefault(prefix+k, val)
	}
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
	default:
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	if c.Import.NoiseThreshold < 0 {
		return fmt.Errorf("import.noise_threshold must not be negative")
	}
	if c.Import.HeaderScanRows < 0 {
		return fmt.Errorf("import.header_scan_rows must not be negative")
	}

	durations := []struct {
		name string
		fn   func() (time.Duration, error)
	}{
		{"sync.push_debounce", c.Sync.PushDebounceDuration},
		{"sync.guard_window", c.Sync.GuardWindowDuration},
		{"sync.poll_interval", c.Sync.PollIntervalDuration},
		{"sync.watch_settle", c.Sync.WatchSettleDuration},
		{"remote.timeout", c.Remote.TimeoutDuration},
	}
	for _, d := range durations {
		v, err := d.fn()
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		if v < 0 {
			return fmt.Errorf("%s must not be negative", d.name)
		}
	}

	switch c.Remote.Driver {
	case "", "none", "memory":
	case "sqlite":
		if c.Remote.Path == "" {
			return fmt.Errorf("remote.path required for sqlite driver")
		}
	case "redis":
		if c.Remote.Addr == "" {
			return fmt.Errorf("remote.addr required for redis driver")
		}
	case "http":
		if c.Remote.URL == "" {
			return fmt.Errorf("remote.url required for http driver")
		}
	default:
		return fmt.Errorf("remote.driver must be one of none, memory, sqlite, redis, http")
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	dir := defaultDir()
	return &Config{
		Store: StoreConfig{
			Path: filepath.Join(dir, "journal.db"),
		},
		Import: ImportConfig{
			NoiseThreshold: 100,
			HeaderScanRows: 100,
			Currency:       "USD",
		},
		Sync: SyncConfig{
			PushDebounce: "1500ms",
			GuardWindow:  "2s",
			PollInterval: "30s",
			WatchSettle:  "250ms",
		},
		Remote: RemoteConfig{
			Driver:  "none",
			Timeout: "30s",
		},
		Server: ServerConfig{
			Addr:   ":8080",
			Mode:   "release",
			DBPath: filepath.Join(dir, "snapshots.db"),
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// DefaultPath is where `config init` writes and the CLI looks by default.
func DefaultPath() string {
	return filepath.Join(defaultDir(), "config.yaml")
}

func defaultDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "tradejournal")
	}
	return ".tradejournal"
}
