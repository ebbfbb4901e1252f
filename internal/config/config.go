package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all rurhook configuration.
type Config struct {
	Report    ReportConfig    `toml:"report"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Store     StoreConfig     `toml:"store"`
	Schema    SchemaConfig    `toml:"schema"`
	Daemon    DaemonConfig    `toml:"daemon"`
}

// ReportConfig says where RUR output files live and how long to wait for them.
type ReportConfig struct {
	Dir      string   `toml:"dir"`
	Pattern  string   `toml:"pattern"`
	Attempts int      `toml:"attempts"`
	Delay    Duration `toml:"delay"`
}

// SchedulerConfig points at the scheduler's own configuration file.
type SchedulerConfig struct {
	ConfFile string `toml:"conf_file"`
}

// StoreConfig holds accounting archive settings.
type StoreConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path,omitempty"`
}

// SchemaConfig optionally overrides the built-in plugin allowlists.
type SchemaConfig struct {
	File string `toml:"file,omitempty"`
}

// DaemonConfig holds spool watcher settings.
type DaemonConfig struct {
	Addr         string   `toml:"addr"`
	Interval     Duration `toml:"interval"`
	EventsBuffer int      `toml:"events_buffer"`
}

// Duration is a time.Duration written as a string ("2s") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Report: ReportConfig{
			Dir:      "/var/spool/rur",
			Pattern:  "rur.{jobid}",
			Attempts: 10,
			Delay:    Duration{2 * time.Second},
		},
		Scheduler: SchedulerConfig{
			ConfFile: "/etc/pbs.conf",
		},
		Store: StoreConfig{
			Enabled: true,
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8788",
			Interval:     Duration{15 * time.Second},
			EventsBuffer: 200,
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "rurhook")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "rurhook")
}

// Path returns the full path to the default config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// CacheDir returns the XDG-compliant cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "rurhook")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "rurhook")
}

// StorePath returns the configured archive path or the default under CacheDir.
func (c Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(CacheDir(), "accounting.db")
}

// Load reads the config file at the default path.
func Load() (Config, error) {
	return LoadFile(Path())
}

// LoadFile reads the config file at path, returning defaults if it doesn't exist.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // config path is chosen by the operator
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Report.Attempts < 1 {
		return cfg, fmt.Errorf("parsing config: report.attempts must be at least 1, got %d", cfg.Report.Attempts)
	}

	return cfg, nil
}

// Save writes the config to the default path.
func Save(cfg Config) error {
	return SaveFile(Path(), cfg)
}

// SaveFile writes the config to path, creating its directory.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // config path is chosen by the operator
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
