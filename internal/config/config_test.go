package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 10, cfg.Report.Attempts)
	assert.Equal(t, 2*time.Second, cfg.Report.Delay.Duration)
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[report]
dir = "spool/rur"
attempts = 3
delay = "500ms"

[store]
enabled = false

[daemon]
interval = "1m"
`), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "spool/rur", cfg.Report.Dir)
	assert.Equal(t, "rur.{jobid}", cfg.Report.Pattern)
	assert.Equal(t, 3, cfg.Report.Attempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Report.Delay.Duration)
	assert.False(t, cfg.Store.Enabled)
	assert.Equal(t, time.Minute, cfg.Daemon.Interval.Duration)
	assert.Equal(t, "127.0.0.1:8788", cfg.Daemon.Addr)
}

func TestLoadFileRejectsBadValues(t *testing.T) {
	for name, body := range map[string]string{
		"attempts": "[report]\nattempts = 0\n",
		"delay":    "[report]\ndelay = \"soon\"\n",
		"syntax":   "[report\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
			_, err := LoadFile(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := DefaultConfig()
	cfg.Report.Dir = "/scratch/rur"
	cfg.Report.Delay = Duration{750 * time.Millisecond}
	cfg.Store.Path = "/var/lib/rurhook/accounting.db"

	require.NoError(t, SaveFile(path, cfg))
	assert.True(t, Exists(path))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestStorePath(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/cache")
	cfg := DefaultConfig()
	assert.Equal(t, "/tmp/cache/rurhook/accounting.db", cfg.StorePath())

	cfg.Store.Path = "/srv/acct.db"
	assert.Equal(t, "/srv/acct.db", cfg.StorePath())
}

func TestPathUsesXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, "/tmp/xdg/rurhook/config.toml", Path())
}
