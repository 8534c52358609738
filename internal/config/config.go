// Package config loads server settings from a TOML file and IMAGE_MCP_*
// environment variables.
//
// Precedence, lowest to highest: built-in defaults, the TOML file,
// environment variables. A .env file in the working directory is loaded
// into the environment by the command before Load runs.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ironsheep/image-convert-mcp/internal/convert"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "IMAGE_MCP_"

// DefaultConfigFile is read when IMAGE_MCP_CONFIG is unset and the file
// exists.
const DefaultConfigFile = "image-convert-mcp.toml"

// Config holds all process settings.
type Config struct {
	LogLevel   string `toml:"log_level"`
	LogFormat  string `toml:"log_format"`
	Workers    int    `toml:"workers"`
	MaxMemory  string `toml:"max_memory"`
	HTTPAddr   string `toml:"http_addr"`
	AllowedDir string `toml:"allowed_dir"`

	Defaults convert.Defaults `toml:"defaults"`

	// ConfigPath is the file the settings were read from, if any.
	ConfigPath string `toml:"-"`
	// MaxMemoryBytes is MaxMemory parsed to bytes; 0 means unlimited.
	MaxMemoryBytes int64 `toml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "json",
		Workers:   4,
		Defaults: convert.Defaults{
			Quality:     75,
			Filter:      "Lanczos",
			ResizeStyle: "aspectfill",
			Gravity:     "Center",
		},
	}
}

// Load builds a Config from defaults, the TOML file and the environment.
func Load() (*Config, error) {
	cfg := Default()

	path := getEnv("CONFIG", "")
	required := path != ""
	if path == "" {
		path = DefaultConfigFile
	}
	if err := cfg.loadFile(path, required); err != nil {
		return nil, err
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	size, err := parseSize(cfg.MaxMemory)
	if err != nil {
		return nil, &ValidationError{Field: "max_memory", Value: cfg.MaxMemory, Message: err.Error()}
	}
	cfg.MaxMemoryBytes = size
	cfg.Defaults.MaxMemory = size

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is like Load but panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

func (c *Config) loadFile(path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys in config file %s: %s", path, strings.Join(keys, ", "))
	}
	c.ConfigPath = path
	return nil
}

func (c *Config) loadEnv() error {
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.MaxMemory = getEnv("MAX_MEMORY", c.MaxMemory)
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.AllowedDir = getEnv("ALLOWED_DIR", c.AllowedDir)

	c.Defaults.Format = getEnv("FORMAT", c.Defaults.Format)
	c.Defaults.Filter = getEnv("FILTER", c.Defaults.Filter)
	c.Defaults.ResizeStyle = getEnv("RESIZE_STYLE", c.Defaults.ResizeStyle)
	c.Defaults.Gravity = getEnv("GRAVITY", c.Defaults.Gravity)

	var err error
	if c.Workers, err = getEnvInt("WORKERS", c.Workers); err != nil {
		return err
	}
	if c.Defaults.Quality, err = getEnvInt("QUALITY", c.Defaults.Quality); err != nil {
		return err
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(EnvPrefix + key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &ValidationError{Field: EnvPrefix + key, Value: value, Message: "must be an integer"}
	}
	return n, nil
}

// parseSize parses sizes like "512MB", "2GB", "64KB" or a bare byte count.
// An empty string is 0.
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, nil
	}

	multiplier := int64(1)
	for _, unit := range []struct {
		suffix string
		mult   int64
	}{
		{"GB", 1024 * 1024 * 1024},
		{"MB", 1024 * 1024},
		{"KB", 1024},
		{"B", 1},
	} {
		if rest, ok := strings.CutSuffix(s, unit.suffix); ok {
			s, multiplier = strings.TrimSpace(rest), unit.mult
			break
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return n * multiplier, nil
}
