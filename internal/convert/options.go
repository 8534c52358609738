package convert

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-convert-mcp/internal/geometry"
	imgops "github.com/ironsheep/image-convert-mcp/internal/imaging"
)

// ErrMissingSource is returned when a request carries no image data.
var ErrMissingSource = errors.New("srcData is required")

// ErrInvalidOption is returned for an out-of-range numeric option.
var ErrInvalidOption = errors.New("invalid option")

// MaxDimension caps the width and height of every canvas a conversion
// allocates, whether or not a memory budget is set.
const MaxDimension = 16384

// Options is one conversion request. Field names follow the option names
// accepted at every host boundary.
type Options struct {
	SrcData   []byte `json:"-"`
	SrcFormat string `json:"srcFormat,omitempty"`

	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	ResizeStyle string `json:"resizeStyle,omitempty"`
	Gravity     string `json:"gravity,omitempty"`
	CropMode    string `json:"cropMode,omitempty"`
	XOffset     int    `json:"xoffset,omitempty"`
	YOffset     int    `json:"yoffset,omitempty"`
	Filter      string `json:"filter,omitempty"`

	Format  string  `json:"format,omitempty"`
	Quality int     `json:"quality,omitempty"`
	Density float64 `json:"density,omitempty"`
	Strip   bool    `json:"strip,omitempty"`

	Rotate     float64 `json:"rotate,omitempty"`
	Flip       bool    `json:"flip,omitempty"`
	Flop       bool    `json:"flop,omitempty"`
	Blur       float64 `json:"blur,omitempty"`
	Brightness float64 `json:"brightness,omitempty"`
	Contrast   float64 `json:"contrast,omitempty"`
	Background string  `json:"background,omitempty"`
	Trim       bool    `json:"trim,omitempty"`
	TrimFuzz   float64 `json:"trimFuzz,omitempty"`
	AutoOrient bool    `json:"autoOrient,omitempty"`

	MaxMemory      int64 `json:"maxMemory,omitempty"`
	Debug          bool  `json:"debug,omitempty"`
	IgnoreWarnings bool  `json:"ignoreWarnings,omitempty"`
}

// Defaults are applied to any option a request leaves empty.
type Defaults struct {
	Format      string `toml:"format"`
	Quality     int    `toml:"quality"`
	Filter      string `toml:"filter"`
	ResizeStyle string `toml:"resize_style"`
	Gravity     string `toml:"gravity"`
	MaxMemory   int64  `toml:"-"` // baseline pixel budget, see WithDefaults
}

func (o Options) withDefaults(d Defaults) Options {
	if o.Format == "" {
		o.Format = d.Format
	}
	if o.Quality == 0 {
		o.Quality = d.Quality
	}
	if o.Filter == "" {
		o.Filter = d.Filter
	}
	if o.ResizeStyle == "" {
		o.ResizeStyle = d.ResizeStyle
	}
	if o.Gravity == "" && o.CropMode == "" {
		o.Gravity = d.Gravity
	}
	return o
}

// request is a fully validated Options value.
type request struct {
	Options

	policy     geometry.Policy
	filter     imaging.ResampleFilter
	format     imgops.Format // empty keeps the source format
	background *color.NRGBA
}

// validate checks every enumerated and numeric option. All names are
// resolved here so a bad request fails before any decoding.
func (o Options) validate() (*request, error) {
	if len(o.SrcData) == 0 {
		return nil, ErrMissingSource
	}

	policy, err := geometry.ParsePolicy(o.ResizeStyle, o.Gravity)
	if err != nil {
		return nil, err
	}
	if o.CropMode != "" {
		g, err := geometry.ParseCropMode(o.CropMode)
		if err != nil {
			return nil, err
		}
		policy.Gravity = g
	}
	policy.OffsetX, policy.OffsetY = o.XOffset, o.YOffset

	req := &request{Options: o, policy: policy}

	if req.filter, err = imgops.ParseFilter(o.Filter); err != nil {
		return nil, err
	}
	if o.SrcFormat != "" {
		if _, err := imgops.ParseFormat(o.SrcFormat); err != nil {
			return nil, err
		}
	}
	if o.Format != "" {
		if req.format, err = imgops.ParseFormat(o.Format); err != nil {
			return nil, err
		}
	}
	if o.Background != "" {
		bg, err := imgops.ParseColor(o.Background)
		if err != nil {
			return nil, err
		}
		req.background = &bg
	}

	switch {
	case o.Width < 0 || o.Height < 0:
		return nil, fmt.Errorf("%w: width and height must not be negative", ErrInvalidOption)
	case o.Width > MaxDimension || o.Height > MaxDimension:
		return nil, fmt.Errorf("%w: width and height must not exceed %d", ErrInvalidOption, MaxDimension)
	case o.Quality < 0 || o.Quality > 100:
		return nil, fmt.Errorf("%w: quality %d out of range [0, 100]", ErrInvalidOption, o.Quality)
	case o.Blur < 0:
		return nil, fmt.Errorf("%w: blur must not be negative", ErrInvalidOption)
	case o.TrimFuzz < 0 || o.TrimFuzz > 1:
		return nil, fmt.Errorf("%w: trimFuzz %v out of range [0, 1]", ErrInvalidOption, o.TrimFuzz)
	case math.Abs(o.Brightness) > 100 || math.Abs(o.Contrast) > 100:
		return nil, fmt.Errorf("%w: brightness and contrast must be within [-100, 100]", ErrInvalidOption)
	case o.Density < 0:
		return nil, fmt.Errorf("%w: density must not be negative", ErrInvalidOption)
	case o.MaxMemory < 0:
		return nil, fmt.Errorf("%w: maxMemory must not be negative", ErrInvalidOption)
	}

	return req, nil
}

// extentFill picks the color for canvas areas the source does not cover:
// the explicit background if set, else the format default.
func (r *request) extentFill(out imgops.Format) color.Color {
	if r.background != nil {
		return *r.background
	}
	return ExtentBackground(out)
}

// ExtentBackground returns the default padding color for an output format:
// transparent for PNG, opaque white for everything else.
func ExtentBackground(out imgops.Format) color.Color {
	if out == imgops.FormatPNG {
		return color.Transparent
	}
	return color.White
}

// flattenColor reports whether transparency must be removed before encoding
// and onto which color. An opaque background option always flattens; a
// format without alpha flattens onto white.
func (r *request) flattenColor(out imgops.Format, img image.Image) (color.Color, bool) {
	if !imgops.HasTransparency(img) {
		return nil, false
	}
	if r.background != nil && r.background.A == 0xFF {
		return *r.background, true
	}
	if !out.SupportsAlpha() {
		return color.White, true
	}
	return nil, false
}
