package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "stdio", cfg.Server.Transport)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "sitebook.db", cfg.DB.Path)
	require.Equal(t, 1, cfg.Checklist.CommitConcurrency)
	require.Equal(t, "main", cfg.Catalog.ID)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitebook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  transport: http
  port: 9090
db:
  path: /var/lib/sitebook.db
checklist:
  commit_concurrency: 4
catalog:
  id: north
activity:
  retention: 720h
`), 0o644))

	t.Setenv("SITEBOOK_CONFIG_PATH", path)
	t.Setenv("SITEBOOK_SERVER_PORT", "9191")
	t.Setenv("SITEBOOK_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http", cfg.Server.Transport)
	require.Equal(t, 9191, cfg.Server.Port)
	require.Equal(t, "/var/lib/sitebook.db", cfg.DB.Path)
	require.Equal(t, 4, cfg.Checklist.CommitConcurrency)
	require.Equal(t, "north", cfg.Catalog.ID)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, 720*time.Hour, cfg.Activity.Retention)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"SITEBOOK_SERVER_PORT":        "eighty",
		"SITEBOOK_COMMIT_CONCURRENCY": "0",
		"SITEBOOK_TRANSPORT":          "carrier-pigeon",
		"SITEBOOK_ACTIVITY_RETENTION": "a month",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("SITEBOOK_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	require.Error(t, err)
}
