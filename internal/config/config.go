package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"

	"github.com/imgajeed76/metatable/internal/datatable"
)

// EnvDatabaseURL overrides database.url without touching the config file
const EnvDatabaseURL = "METATABLE_DATABASE_URL"

// EnvConfigPath points at an alternative config file
const EnvConfigPath = "METATABLE_CONFIG"

// Config represents config.toml
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Table    TableConfig    `toml:"table"`
	Log      LogConfig      `toml:"log"`

	path string
}

// DatabaseConfig selects the metadata store
type DatabaseConfig struct {
	URL string `toml:"url" config:"database.url" desc:"postgres://... or sqlite://path (memory:// for a scratch store)"`
}

// TableConfig holds the table defaults and disabled controls
type TableConfig struct {
	PageSize                int  `toml:"page_size" config:"table.page_size" default:"10" min:"1" max:"1000" desc:"Rows per page"`
	DisableSearch           bool `toml:"disable_search" config:"table.disable_search" default:"false" desc:"Hide the search box"`
	DisableDateRange        bool `toml:"disable_date_range" config:"table.disable_date_range" default:"false" desc:"Hide the date range picker"`
	DisablePagination       bool `toml:"disable_pagination" config:"table.disable_pagination" default:"false" desc:"Show every row on one page"`
	DisableClearFilters     bool `toml:"disable_clear_filters" config:"table.disable_clear_filters" default:"false" desc:"Hide the clear filters action"`
	DisableColumnVisibility bool `toml:"disable_column_visibility" config:"table.disable_column_visibility" default:"false" desc:"Lock the column set"`
}

// LogConfig controls the log output
type LogConfig struct {
	Level string `toml:"level" config:"log.level" default:"info" enum:"debug,info,warn,error" desc:"Minimum log level"`
	File  string `toml:"file" config:"log.file" desc:"Log file (empty = metatable.log next to the config)"`
}

// DefaultConfig returns a new config with default values
func DefaultConfig() *Config {
	return &Config{
		Table: TableConfig{PageSize: datatable.DefaultPageSize},
		Log:   LogConfig{Level: "info"},
	}
}

// DefaultPath returns the config file location.
// Follows XDG Base Directory spec on Linux, platform conventions elsewhere
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}

	var configDir string
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, "Library", "Application Support", "metatable")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "metatable")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			configDir = filepath.Join(xdg, "metatable")
		} else {
			home, _ := os.UserHomeDir()
			configDir = filepath.Join(home, ".config", "metatable")
		}
	}

	return filepath.Join(configDir, "config.toml")
}

// Load reads the config file at path (DefaultPath when empty). A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := DefaultConfig()
	cfg.path = path

	if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	// Apply defaults for any missing values
	defaults := DefaultConfig()
	if cfg.Table.PageSize <= 0 {
		cfg.Table.PageSize = defaults.Table.PageSize
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}

	return cfg, nil
}

// Path returns the file the config was loaded from
func (c *Config) Path() string {
	return c.path
}

// Save writes the config file
func (c *Config) Save() error {
	if c.path == "" {
		c.path = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(c.path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(c)
}

// DatabaseURL returns the effective database URL
func (c *Config) DatabaseURL() string {
	if url := os.Getenv(EnvDatabaseURL); url != "" {
		return url
	}
	return c.Database.URL
}

// LogFile returns the effective log file path
func (c *Config) LogFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(filepath.Dir(c.Path()), "metatable.log")
}

// TableOptions turns the table section into data table options
func (c *Config) TableOptions(filters []datatable.FilterSpec) datatable.Options {
	return datatable.Options{
		Filters:                 filters,
		PageSize:                c.Table.PageSize,
		DisableSearch:           c.Table.DisableSearch,
		DisableDateRange:        c.Table.DisableDateRange,
		DisablePagination:       c.Table.DisablePagination,
		DisableClearFilters:     c.Table.DisableClearFilters,
		DisableColumnVisibility: c.Table.DisableColumnVisibility,
	}
}

// GetValue returns a config value by key (uses reflection)
func (c *Config) GetValue(key string) (string, bool) {
	return getFieldValue(c, key)
}

// SetValue sets a config value by key (uses reflection with validation)
func (c *Config) SetValue(key, value string) error {
	return setFieldValue(c, key, value)
}
