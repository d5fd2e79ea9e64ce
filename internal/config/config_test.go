package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imgajeed76/metatable/internal/datatable"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, datatable.DefaultPageSize, cfg.Table.PageSize)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, path, cfg.Path())
	assert.Equal(t, filepath.Join(filepath.Dir(path), "metatable.log"), cfg.LogFile())
}

func TestLoad_FillsMissingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[table]\ndisable_search = true\n[database]\nurl = \"sqlite://m.db\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Table.DisableSearch)
	assert.Equal(t, 10, cfg.Table.PageSize)
	assert.Equal(t, "sqlite://m.db", cfg.Database.URL)
}

func TestLoad_RejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[table\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, cfg.SetValue("table.page_size", "25"))
	require.NoError(t, cfg.SetValue("table.disable_date_range", "true"))
	require.NoError(t, cfg.SetValue("log.level", "debug"))
	require.NoError(t, cfg.Save())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25, again.Table.PageSize)
	assert.True(t, again.Table.DisableDateRange)
	assert.Equal(t, "debug", again.Log.Level)
}

func TestSetValue_Validation(t *testing.T) {
	cfg := DefaultConfig()

	assert.ErrorContains(t, cfg.SetValue("table.page_size", "0"), "below minimum")
	assert.ErrorContains(t, cfg.SetValue("table.page_size", "5000"), "exceeds maximum")
	assert.ErrorContains(t, cfg.SetValue("table.page_size", "ten"), "invalid integer")
	assert.ErrorContains(t, cfg.SetValue("table.disable_search", "maybe"), "invalid boolean")
	assert.ErrorContains(t, cfg.SetValue("log.level", "loud"), "expected one of")
	assert.ErrorContains(t, cfg.SetValue("nope.key", "x"), "unknown config key")
}

func TestGetValue(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.SetValue("db.url", "postgres://localhost/meta"))

	v, ok := cfg.GetValue("database.url")
	assert.True(t, ok)
	assert.Equal(t, "postgres://localhost/meta", v)

	v, ok = cfg.GetValue("table.disable_pagination")
	assert.True(t, ok)
	assert.Equal(t, "false", v)

	_, ok = cfg.GetValue("table")
	assert.False(t, ok)
}

func TestDatabaseURL_EnvOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.URL = "sqlite://file.db"
	assert.Equal(t, "sqlite://file.db", cfg.DatabaseURL())

	t.Setenv(EnvDatabaseURL, "postgres://env/db")
	assert.Equal(t, "postgres://env/db", cfg.DatabaseURL())
}

func TestDefaultPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if runtime.GOOS == "linux" {
		assert.Equal(t, "/tmp/xdg/metatable/config.toml", DefaultPath())
	}

	t.Setenv(EnvConfigPath, "/etc/metatable.toml")
	assert.Equal(t, "/etc/metatable.toml", DefaultPath())
}

func TestListKeys(t *testing.T) {
	assert.Equal(t, []string{
		"database.url",
		"log.file",
		"log.level",
		"table.disable_clear_filters",
		"table.disable_column_visibility",
		"table.disable_date_range",
		"table.disable_pagination",
		"table.disable_search",
		"table.page_size",
	}, ListKeys())

	help := GenerateHelpText()
	assert.Contains(t, help, "Table defaults:")
	assert.Contains(t, help, "(default: 10)")
}

func TestTableOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Table.DisablePagination = true

	opts := cfg.TableOptions(nil)
	assert.Equal(t, 10, opts.PageSize)
	assert.True(t, opts.DisablePagination)
	assert.False(t, opts.DisableSearch)
}
