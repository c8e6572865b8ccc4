package sqlight

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestRaw_Query(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "plain select", query: "SELECT 1;"},
		{name: "empty string", query: ""},
		{name: "special characters", query: `SELECT 'it''s'"; -- %?$1` + "\n\tFROM t"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Raw(tc.query).Query()
			require.NoError(t, err)
			assert.Equal(t, tc.query, got)
		})
	}
}

func TestZeroValue_InvalidConstruction(t *testing.T) {
	var s Sql

	_, err := s.Query()
	assert.ErrorIs(t, err, ErrInvalidConstruction)
}

func TestTemplate_MissingDir(t *testing.T) {
	_, err := Template("test.sql").Query()
	assert.ErrorIs(t, err, ErrMissingTemplateDir)
}

func TestTemplate_ResolvesAndTrims(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "test.sql", "  SELECT 1;\n")

	got, err := TemplateAt("test.sql", dir).Query()
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1;", got)
}

func TestTemplate_MissingFile(t *testing.T) {
	_, err := TemplateAt("nope.sql", t.TempDir()).Query()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTemplate_CacheSurvivesFileRemoval(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "cached.sql", "SELECT 42;")

	first, err := TemplateAt("cached.sql", dir).Query()
	require.NoError(t, err)

	// Resolution is cached per (filename, directory); the file is never
	// re-read for the same pair.
	require.NoError(t, os.Remove(filepath.Join(dir, "cached.sql")))

	second, err := TemplateAt("cached.sql", dir).Query()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTemplate_CacheKeyedByDirectory(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	writeTemplate(t, dirA, "q.sql", "SELECT 'a';")
	writeTemplate(t, dirB, "q.sql", "SELECT 'b';")

	gotA, err := TemplateAt("q.sql", dirA).Query()
	require.NoError(t, err)

	gotB, err := TemplateAt("q.sql", dirB).Query()
	require.NoError(t, err)

	assert.Equal(t, "SELECT 'a';", gotA)
	assert.Equal(t, "SELECT 'b';", gotB)
}

func TestSetTemplateDirIfAbsent(t *testing.T) {
	t.Run("supplies a deferred directory", func(t *testing.T) {
		dir := t.TempDir()
		writeTemplate(t, dir, "deferred.sql", "SELECT 'deferred';")

		s := Template("deferred.sql")
		assert.False(t, s.HasTemplateDir())

		s.SetTemplateDirIfAbsent(dir)
		assert.True(t, s.HasTemplateDir())

		got, err := s.Query()
		require.NoError(t, err)
		assert.Equal(t, "SELECT 'deferred';", got)
	})

	t.Run("never overrides an explicit directory", func(t *testing.T) {
		explicit := t.TempDir()
		other := t.TempDir()
		writeTemplate(t, explicit, "pick.sql", "SELECT 'explicit';")
		writeTemplate(t, other, "pick.sql", "SELECT 'other';")

		s := TemplateAt("pick.sql", explicit)
		s.SetTemplateDirIfAbsent(other)

		got, err := s.Query()
		require.NoError(t, err)
		assert.Equal(t, "SELECT 'explicit';", got)
	})

	t.Run("second assignment is ignored", func(t *testing.T) {
		first := t.TempDir()
		second := t.TempDir()
		writeTemplate(t, first, "once.sql", "SELECT 'first';")
		writeTemplate(t, second, "once.sql", "SELECT 'second';")

		s := Template("once.sql")
		s.SetTemplateDirIfAbsent(first)
		s.SetTemplateDirIfAbsent(second)

		got, err := s.Query()
		require.NoError(t, err)
		assert.Equal(t, "SELECT 'first';", got)
	})

	t.Run("no-op for raw statements", func(t *testing.T) {
		s := Raw("SELECT 1;")
		s.SetTemplateDirIfAbsent(t.TempDir())
		assert.False(t, s.HasTemplateDir())

		got, err := s.Query()
		require.NoError(t, err)
		assert.Equal(t, "SELECT 1;", got)
	})
}
