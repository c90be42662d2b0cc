package config

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	opts := c.Optimizer()
	assert.True(t, opts.ConstantFolding)
	assert.True(t, opts.StrengthReduction)
	assert.True(t, opts.TailRecursion)
	assert.Nil(t, opts.Scope)
	assert.Nil(t, opts.Logger)

	l, err := c.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, l)
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
include_paths: [include, /usr/local/include]
log_level: DEBUG
optimize:
  tail_recursion: false
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"include", "/usr/local/include"}, c.IncludePaths)

	l, err := c.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)

	opts := c.Optimizer()
	assert.True(t, opts.ConstantFolding, "omitted passes stay enabled")
	assert.True(t, opts.StrengthReduction)
	assert.False(t, opts.TailRecursion)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		contains string
	}{
		{"bad yaml", "optimize: [", "compilium.yaml"},
		{"bad level", "log_level: loud", "log_level"},
		{"wrong type", "include_paths: 3", "cannot unmarshal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoadDefaultFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)

	require.NoError(t, os.WriteFile(DefaultFile, []byte("log_level: warn\n"), 0644))
	c, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", c.LogLevel)
}
