package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrOutOfBounds is returned when a pixel window leaves the image.
var ErrOutOfBounds = errors.New("x/y/columns/rows values are beyond the image's dimensions")

// ErrInvalidColor is returned for an unparseable color string.
var ErrInvalidColor = errors.New("unrecognized color")

// QuantumRange is the maximum channel value in 16-bit pixel readback.
const QuantumRange = math.MaxUint16

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// RGBAColor represents an RGBA color with 8-bit components including alpha.
//
// The alpha component represents opacity:
//   - 0 = fully transparent
//   - 255 = fully opaque
type RGBAColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorResult contains a color value in multiple representations.
type ColorResult struct {
	Hex  string    `json:"hex"`  // Hex format "#RRGGBB" (no alpha)
	RGB  RGBColor  `json:"rgb"`  // RGB components
	RGBA RGBAColor `json:"rgba"` // RGBA components with alpha
	HSL  HSLColor  `json:"hsl"`  // HSL representation
}

// SampleColor extracts the color value at a specific pixel coordinate.
//
// Parameters:
//   - img: The source image to sample from.
//   - x: X coordinate (0-based, 0 = leftmost pixel).
//   - y: Y coordinate (0-based, 0 = topmost pixel).
//
// Returns:
//   - *ColorResult: The color at (x, y) in multiple formats.
//   - error: ErrOutOfBounds if coordinates are outside the image bounds.
//
// The Hex format excludes alpha; use RGBA.A to get transparency information.
// Components are unpremultiplied, so a half transparent red reads as
// R=255 A=128.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	bounds := img.Bounds()
	px, py := bounds.Min.X+x, bounds.Min.Y+y
	if x < 0 || y < 0 || px >= bounds.Max.X || py >= bounds.Max.Y {
		return nil, fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, x, y)
	}

	n := ToNRGBA(img.At(px, py))
	c := colorful.Color{R: float64(n.R) / 255, G: float64(n.G) / 255, B: float64(n.B) / 255}
	h, s, l := c.Hsl()

	return &ColorResult{
		Hex:  strings.ToUpper(c.Hex()),
		RGB:  RGBColor{R: n.R, G: n.G, B: n.B},
		RGBA: RGBAColor{R: n.R, G: n.G, B: n.B, A: n.A},
		HSL:  HSLColor{H: int(math.Round(h)) % 360, S: int(math.Round(s * 100)), L: int(math.Round(l * 100))},
	}, nil
}

// LabeledPoint represents a pixel coordinate with an optional descriptive label.
type LabeledPoint struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Label string `json:"label,omitempty"`
}

// LabeledColorResult combines a color sample with its location and optional label.
type LabeledColorResult struct {
	Label string      `json:"label,omitempty"`
	X     int         `json:"x"`
	Y     int         `json:"y"`
	Color ColorResult `json:"color"`
}

// SampleColors extracts colors at multiple pixel coordinates. Results are in
// input order. On error no partial results are returned.
func SampleColors(img image.Image, points []LabeledPoint) ([]LabeledColorResult, error) {
	results := make([]LabeledColorResult, 0, len(points))

	for _, p := range points {
		c, err := SampleColor(img, p.X, p.Y)
		if err != nil {
			return nil, fmt.Errorf("failed to sample point (%d,%d): %w", p.X, p.Y, err)
		}
		results = append(results, LabeledColorResult{
			Label: p.Label,
			X:     p.X,
			Y:     p.Y,
			Color: *c,
		})
	}

	return results, nil
}

// Pixel is one pixel read back at 16 bits per channel. Opacity follows the
// inverted convention: 0 is fully opaque and QuantumRange fully transparent.
type Pixel struct {
	Red     uint16 `json:"red"`
	Green   uint16 `json:"green"`
	Blue    uint16 `json:"blue"`
	Opacity uint16 `json:"opacity"`
}

// Window is a rectangular pixel region given by its top-left corner and size.
type Window struct {
	X       int `json:"x"`
	Y       int `json:"y"`
	Columns int `json:"columns"`
	Rows    int `json:"rows"`
}

// GetPixels reads the pixels of a window in row-major order.
//
// Returns ErrOutOfBounds unless the whole window lies inside the image and
// has a positive size.
func GetPixels(img image.Image, w Window) ([]Pixel, error) {
	bounds := img.Bounds()
	if w.X < 0 || w.Y < 0 || w.Columns <= 0 || w.Rows <= 0 ||
		w.X+w.Columns > bounds.Dx() || w.Y+w.Rows > bounds.Dy() {
		return nil, ErrOutOfBounds
	}

	pixels := make([]Pixel, 0, w.Columns*w.Rows)
	for y := w.Y; y < w.Y+w.Rows; y++ {
		for x := w.X; x < w.X+w.Columns; x++ {
			c := color.NRGBA64Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA64)
			pixels = append(pixels, Pixel{
				Red:     c.R,
				Green:   c.G,
				Blue:    c.B,
				Opacity: QuantumRange - c.A,
			})
		}
	}
	return pixels, nil
}

// namedColors are the color names accepted besides hex notation.
var namedColors = map[string]color.NRGBA{
	"none":        {},
	"transparent": {},
	"white":       {255, 255, 255, 255},
	"black":       {0, 0, 0, 255},
	"red":         {255, 0, 0, 255},
	"green":       {0, 128, 0, 255},
	"lime":        {0, 255, 0, 255},
	"blue":        {0, 0, 255, 255},
	"yellow":      {255, 255, 0, 255},
	"gray":        {128, 128, 128, 255},
	"grey":        {128, 128, 128, 255},
}

// ParseColor parses a color given as a name, "#RGB", "#RRGGBB" or
// "#RRGGBBAA". The leading '#' is optional for hex forms.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}

	hex := strings.TrimPrefix(s, "#")
	alpha := uint8(255)
	if len(hex) == 8 {
		var a uint8
		if _, err := fmt.Sscanf(hex[6:], "%02x", &a); err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		alpha = a
		hex = hex[:6]
	}
	if len(hex) != 3 && len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

// HexString formats a color as lower-case "rrggbb" without a leading '#'.
func HexString(c color.Color) string {
	n := ToNRGBA(c)
	return fmt.Sprintf("%02x%02x%02x", n.R, n.G, n.B)
}

// ToNRGBA converts any color to non-premultiplied 8-bit RGBA.
func ToNRGBA(c color.Color) color.NRGBA {
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}
