package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	l := log.New("test")
	l.SetOutput(io.Discard)
	return l
}

func clearEnv(t *testing.T) {
	for _, k := range []string{"DATA_PATH", "DATA_DRIVER", "DATA_DSN", "DATA_TABLE", "PORT", "LOG_LEVEL", "RATE_LIMIT", "CONFIG_FILE"} {
		t.Setenv(k, "")
	}
	// keep godotenv away from any .env in the package dir
	t.Chdir(t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(quietLogger())
	require.NoError(t, err)
	assert.Equal(t, "meat_consumption_2.csv", cfg.DataPath)
	assert.Equal(t, "", cfg.DataDriver)
	assert.Equal(t, "meat_consumption", cfg.DataTable)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 20.0, cfg.RateLimit)
	assert.Equal(t, log.INFO, cfg.Level())
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATA_DRIVER", "sqlite")
	t.Setenv("DATA_DSN", "file:meat.db")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATE_LIMIT", "2.5")

	cfg, err := Load(quietLogger())
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DataDriver)
	assert.Equal(t, "file:meat.db", cfg.DataDSN)
	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, log.DEBUG, cfg.Level())
	assert.Equal(t, 2.5, cfg.RateLimit)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile(".env", []byte("PORT=7070\n"), 0o644))
	// godotenv never overrides variables that are already set
	require.NoError(t, os.Unsetenv("PORT"))

	cfg, err := Load(quietLogger())
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr())
}

func TestLoadYAMLOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "meatdash.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_path: /data/meat.csv\nport: \"8181\"\nrate_limit: 5\n"), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9090")

	cfg, err := Load(quietLogger())
	require.NoError(t, err)
	assert.Equal(t, "/data/meat.csv", cfg.DataPath)
	assert.Equal(t, ":8181", cfg.Addr())
	assert.Equal(t, 5.0, cfg.RateLimit)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown driver", Config{DataDriver: "mysql", DataDSN: "x", RateLimit: 1, LogLevel: "info"}},
		{"sql without dsn", Config{DataDriver: "postgres", RateLimit: 1, LogLevel: "info"}},
		{"no csv path", Config{RateLimit: 1, LogLevel: "info"}},
		{"zero rate", Config{DataPath: "a.csv", LogLevel: "info"}},
		{"bad level", Config{DataPath: "a.csv", RateLimit: 1, LogLevel: "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
		})
	}
}
