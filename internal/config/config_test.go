package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadLayersYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "app.yaml")
	require.NoError(t, os.WriteFile(file, []byte("port: \"9000\"\ndb_dsn: from-yaml.db\nmax_body_bytes: 1024\ncookie_secure: true\n"), 0o600))

	chdir(t, dir) // no .env here
	t.Setenv("CONFIG_FILE", file)
	t.Setenv("DB_DSN", "from-env.db")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "from-env.db", cfg.DBDSN)
	assert.Equal(t, 1024, cfg.MaxBodyBytes)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, Defaults().MediaDir, cfg.MediaDir)
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CONFIG_FILE", "does-not-exist.yaml")

	cfg := Load()
	assert.Equal(t, Defaults().DBDSN, cfg.DBDSN)
	assert.Equal(t, "8080", cfg.Port)
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "postgres://app:***@db:5432/fg", redact("postgres://app:secret@db:5432/fg"))
	assert.Equal(t, "freshgrocer.db", redact("freshgrocer.db"))
}
