package sqlight

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DSN(t *testing.T) {
	t.Run("plain database path", func(t *testing.T) {
		cfg := &Config{Database: "app.db"}
		assert.Equal(t, "app.db", cfg.dsn())
	})

	t.Run("pass-through params", func(t *testing.T) {
		cfg := &Config{
			Database: "app.db",
			Params:   map[string]string{"_pragma": "busy_timeout(5000)"},
		}
		assert.Equal(t, "app.db?_pragma=busy_timeout%285000%29", cfg.dsn())
	})
}

func TestFromEnv(t *testing.T) {
	t.Run("reads environment variables", func(t *testing.T) {
		t.Setenv("SQLIGHT_DATABASE", "env.db")
		t.Setenv("SQLIGHT_TEMPLATES_DIR", "sql")
		t.Setenv("SQLIGHT_AUTOCOMMIT", "true")

		cfg, err := FromEnv("")
		require.NoError(t, err)
		assert.Equal(t, "env.db", cfg.Database)
		assert.Equal(t, "sql", cfg.TemplatesDir)
		assert.True(t, cfg.Autocommit)
	})

	t.Run("loads a dotenv file", func(t *testing.T) {
		// Snapshot the variables, then unset them so the dotenv file wins.
		for _, key := range []string{"SQLIGHT_DATABASE", "SQLIGHT_TEMPLATES_DIR", "SQLIGHT_AUTOCOMMIT"} {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}

		envFile := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(envFile, []byte("SQLIGHT_DATABASE=file.db\nSQLIGHT_AUTOCOMMIT=1\n"), 0o600))

		cfg, err := FromEnv(envFile)
		require.NoError(t, err)
		assert.Equal(t, "file.db", cfg.Database)
		assert.True(t, cfg.Autocommit)
	})

	t.Run("missing database", func(t *testing.T) {
		for _, key := range []string{"SQLIGHT_DATABASE", "SQLIGHT_TEMPLATES_DIR", "SQLIGHT_AUTOCOMMIT"} {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}

		_, err := FromEnv("")
		assert.ErrorIs(t, err, ErrMissingDatabase)
	})

	t.Run("invalid autocommit", func(t *testing.T) {
		t.Setenv("SQLIGHT_DATABASE", "env.db")
		t.Setenv("SQLIGHT_AUTOCOMMIT", "maybe")

		_, err := FromEnv("")
		assert.Error(t, err)
	})

	t.Run("missing dotenv file", func(t *testing.T) {
		_, err := FromEnv(filepath.Join(t.TempDir(), "nope.env"))
		assert.Error(t, err)
	})
}
