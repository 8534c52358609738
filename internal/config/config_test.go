package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty directory so a stray config file in
// the package directory is never picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, int64(0), cfg.MaxMemoryBytes)
	assert.Equal(t, 75, cfg.Defaults.Quality)
	assert.Equal(t, "Lanczos", cfg.Defaults.Filter)
	assert.Empty(t, cfg.ConfigPath)
}

func TestLoad_File(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
log_level = "debug"
workers = 2
max_memory = "64MB"

[defaults]
format = "WEBP"
quality = 90
resize_style = "aspectfit"
gravity = "North"
`)
	t.Setenv("IMAGE_MCP_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, int64(64*1024*1024), cfg.MaxMemoryBytes)
	assert.Equal(t, cfg.MaxMemoryBytes, cfg.Defaults.MaxMemory)
	assert.Equal(t, "WEBP", cfg.Defaults.Format)
	assert.Equal(t, 90, cfg.Defaults.Quality)
	assert.Equal(t, "aspectfit", cfg.Defaults.ResizeStyle)
	assert.Equal(t, "North", cfg.Defaults.Gravity)
	assert.Equal(t, "Lanczos", cfg.Defaults.Filter, "unset keys keep defaults")
	assert.Equal(t, path, cfg.ConfigPath)
}

func TestLoad_DefaultFileName(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(`workers = 7`), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, DefaultConfigFile, cfg.ConfigPath)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	t.Setenv("IMAGE_MCP_CONFIG", writeConfig(t, dir, "workers = 2\n[defaults]\nquality = 50\n"))
	t.Setenv("IMAGE_MCP_WORKERS", "8")
	t.Setenv("IMAGE_MCP_QUALITY", "60")
	t.Setenv("IMAGE_MCP_LOG_FORMAT", "console")
	t.Setenv("IMAGE_MCP_HTTP_ADDR", ":9090")
	t.Setenv("IMAGE_MCP_MAX_MEMORY", "1KB")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 60, cfg.Defaults.Quality)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, int64(1024), cfg.MaxMemoryBytes)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "missing explicit file", env: map[string]string{"IMAGE_MCP_CONFIG": "does-not-exist.toml"}},
		{name: "bad toml", file: "workers = ["},
		{name: "unknown key", file: "colour = \"red\""},
		{name: "non-integer workers", env: map[string]string{"IMAGE_MCP_WORKERS": "many"}},
		{name: "bad size", env: map[string]string{"IMAGE_MCP_MAX_MEMORY": "lots"}},
		{name: "invalid level", env: map[string]string{"IMAGE_MCP_LOG_LEVEL": "verbose"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			if tt.file != "" {
				t.Setenv("IMAGE_MCP_CONFIG", writeConfig(t, dir, tt.file))
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.LogLevel = "loud"
	cfg.LogFormat = "xml"
	cfg.Workers = 0
	cfg.Defaults.Quality = 101
	cfg.Defaults.Format = "PSD"
	cfg.Defaults.Filter = "Sharpest"
	cfg.Defaults.ResizeStyle = "stretch"

	err := cfg.Validate()
	require.Error(t, err)

	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	for _, field := range []string{"log_level", "log_format", "workers", "defaults.quality", "defaults.format", "defaults.filter", "defaults.resize_style"} {
		assert.True(t, errs.Has(field), field)
	}
	assert.False(t, errs.Has("http_addr"))
	assert.Contains(t, err.Error(), "config validation failed for workers: must be at least 1 (value: 0)")
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"100", 100, false},
		{"100B", 100, false},
		{"2kb", 2048, false},
		{"512MB", 512 * 1024 * 1024, false},
		{"1 GB", 1024 * 1024 * 1024, false},
		{"MB", 0, true},
		{"-5MB", 0, true},
		{"ten", 0, true},
	}
	for _, tt := range tests {
		got, err := parseSize(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestMustLoad_Panics(t *testing.T) {
	isolate(t)
	t.Setenv("IMAGE_MCP_WORKERS", "0")
	assert.Panics(t, func() { MustLoad() })
}
