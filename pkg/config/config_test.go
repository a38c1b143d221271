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
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: https://tasks.example.com\ntimeout: 15s\ntimezone: Europe/Berlin\n"), 0600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://tasks.example.com", cfg.APIURL)
	assert.Equal(t, ":8080", cfg.Listen)

	d, err := cfg.RequestTimeout()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, d)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: https://file.example.com\n"), 0600))
	t.Setenv("TASKBOARD_API_URL", "http://env.example.com:9000")
	t.Setenv("TASKBOARD_API_TOKEN", "tok")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env.example.com:9000", cfg.APIURL)
	assert.Equal(t, "tok", cfg.APIToken)
}

func TestLoadStoredFileIgnoresEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: https://file.example.com\n"), 0600))
	t.Setenv("TASKBOARD_API_URL", "http://env.example.com:9000")
	t.Setenv("TASKBOARD_API_TOKEN", "tok")

	cfg, err := LoadStoredFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://file.example.com", cfg.APIURL)
	assert.Empty(t, cfg.APIToken)
}

func TestLoadFileRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: localhost\n"), 0600))
	_, err := LoadFile(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("timezone: Mars/Olympus\n"), 0600))
	_, err = LoadFile(path)
	assert.Error(t, err)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Calendar = "Work"
	cfg.Timeout = "30s"
	require.NoError(t, SaveFile(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSetAndGet(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Set("listen", "127.0.0.1:9090"))
	v, ok := cfg.Get("listen")
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1:9090", v)

	assert.Error(t, cfg.Set("color", "blue"))
	assert.Error(t, cfg.Set("timeout", "soon"))
	assert.Equal(t, "", cfg.Timeout)

	_, ok = cfg.Get("color")
	assert.False(t, ok)
	assert.Contains(t, Keys(), "api_url")
}

func TestDirHonoursXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	dir, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg/taskboard", dir)
}
