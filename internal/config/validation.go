package config

import (
	"fmt"
	"strings"

	"github.com/ironsheep/image-convert-mcp/internal/geometry"
	imgops "github.com/ironsheep/image-convert-mcp/internal/imaging"
	"github.com/ironsheep/image-convert-mcp/internal/logging"
)

// ValidationError describes one invalid setting.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every invalid setting found by Validate.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether an error was recorded for field.
func (e ValidationErrors) Has(field string) bool {
	for _, err := range e {
		if err.Field == field {
			return true
		}
	}
	return false
}

// Validate checks every setting and returns ValidationErrors if any are
// invalid.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field string, value interface{}, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	if !logging.ValidLevel(c.LogLevel) {
		add("log_level", c.LogLevel, "must be one of debug, info, warn, error")
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		add("log_format", c.LogFormat, "must be json or console")
	}
	if c.Workers < 1 {
		add("workers", c.Workers, "must be at least 1")
	}

	d := c.Defaults
	if d.Quality < 0 || d.Quality > 100 {
		add("defaults.quality", d.Quality, "must be between 0 and 100")
	}
	if d.Format != "" {
		if _, err := imgops.ParseFormat(d.Format); err != nil {
			add("defaults.format", d.Format, err.Error())
		}
	}
	if _, err := imgops.ParseFilter(d.Filter); err != nil {
		add("defaults.filter", d.Filter, err.Error())
	}
	if _, err := geometry.ParsePolicy(d.ResizeStyle, d.Gravity); err != nil {
		add("defaults.resize_style", d.ResizeStyle+"/"+d.Gravity, err.Error())
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
