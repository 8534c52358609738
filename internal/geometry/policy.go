package geometry

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedPolicy is returned for an unrecognized fit-policy name.
var ErrUnsupportedPolicy = errors.New("resizeStyle not supported")

// ErrUnsupportedGravity is returned for an unrecognized gravity name.
var ErrUnsupportedGravity = errors.New("gravity not supported")

// Fit selects how the source is mapped into the target box.
type Fit int

const (
	AspectFill Fit = iota
	AspectFit
	Fill
	Crop
)

var fitNames = map[string]Fit{
	"aspectfill": AspectFill,
	"aspectfit":  AspectFit,
	"fill":       Fill,
	"crop":       Crop,
}

// String returns the option name of the fit policy.
func (f Fit) String() string {
	for name, v := range fitNames {
		if v == f {
			return name
		}
	}
	return fmt.Sprintf("Fit(%d)", int(f))
}

func (f Fit) valid() bool {
	return f >= AspectFill && f <= Crop
}

// ParseFit converts a resizeStyle option value into a Fit. An empty string
// selects the default, AspectFill. Names are matched exactly.
func ParseFit(name string) (Fit, error) {
	if name == "" {
		return AspectFill, nil
	}
	f, ok := fitNames[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedPolicy, name)
	}
	return f, nil
}

// Gravity is an anchor position used to decide which part of an
// overflowing image survives a crop, or where an overlay is placed.
type Gravity int

const (
	GravityCenter Gravity = iota
	GravityNorth
	GravitySouth
	GravityEast
	GravityWest
	GravityNorthEast
	GravityNorthWest
	GravitySouthEast
	GravitySouthWest
	GravityNone
)

var gravityNames = [...]string{
	GravityCenter:    "Center",
	GravityNorth:     "North",
	GravitySouth:     "South",
	GravityEast:      "East",
	GravityWest:      "West",
	GravityNorthEast: "NorthEast",
	GravityNorthWest: "NorthWest",
	GravitySouthEast: "SouthEast",
	GravitySouthWest: "SouthWest",
	GravityNone:      "None",
}

func (g Gravity) String() string {
	if g.valid() {
		return gravityNames[g]
	}
	return fmt.Sprintf("Gravity(%d)", int(g))
}

func (g Gravity) valid() bool {
	return g >= GravityCenter && g <= GravityNone
}

// HasWest reports whether the gravity anchors to the left edge.
func (g Gravity) HasWest() bool { return strings.Contains(g.String(), "West") }

// HasEast reports whether the gravity anchors to the right edge.
func (g Gravity) HasEast() bool { return strings.Contains(g.String(), "East") }

// HasNorth reports whether the gravity anchors to the top edge.
func (g Gravity) HasNorth() bool { return strings.Contains(g.String(), "North") }

// HasSouth reports whether the gravity anchors to the bottom edge.
func (g Gravity) HasSouth() bool { return strings.Contains(g.String(), "South") }

// ParseGravity converts a gravity option value into a Gravity. An empty
// string selects GravityCenter.
func ParseGravity(name string) (Gravity, error) {
	if name == "" {
		return GravityCenter, nil
	}
	for g, n := range gravityNames {
		if n == name {
			return Gravity(g), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedGravity, name)
}

// cropModes maps the vertical-horizontal crop mode spelling onto gravities.
var cropModes = map[string]Gravity{
	"none":          GravityNone,
	"top-left":      GravityNorthWest,
	"top-center":    GravityNorth,
	"top-right":     GravityNorthEast,
	"middle-left":   GravityWest,
	"middle-center": GravityCenter,
	"middle-right":  GravityEast,
	"bottom-left":   GravitySouthWest,
	"bottom-center": GravitySouth,
	"bottom-right":  GravitySouthEast,
}

// ParseCropMode converts a cropMode option ("top-left", "middle-center",
// "none", ...) into the equivalent Gravity.
func ParseCropMode(mode string) (Gravity, error) {
	if g, ok := cropModes[mode]; ok {
		return g, nil
	}
	return 0, fmt.Errorf("%w: cropMode %q", ErrUnsupportedGravity, mode)
}

// ParseCompositeGravity converts the composite spelling of a gravity
// ("CenterGravity", "NorthWestGravity", "ForgetGravity", ...) into a Gravity.
//
// Unknown names never fail: they fall back to GravityNone, which places the
// overlay at the canvas origin. The boolean result is false on fallback so
// the caller can log it.
func ParseCompositeGravity(name string) (Gravity, bool) {
	if name == "ForgetGravity" {
		return GravityNone, true
	}
	base, ok := strings.CutSuffix(name, "Gravity")
	if !ok {
		return GravityNone, false
	}
	g, err := ParseGravity(base)
	if err != nil || g == GravityNone || base == "" {
		return GravityNone, false
	}
	return g, true
}

// Policy bundles the fit mode with its gravity and, for Crop, the explicit
// offset of the crop box.
type Policy struct {
	Fit     Fit
	Gravity Gravity
	OffsetX int
	OffsetY int
}

// ParsePolicy validates the resizeStyle and gravity option values and
// returns the combined Policy. Both names are checked before anything else
// happens so a bad request never produces a partial plan.
func ParsePolicy(resizeStyle, gravity string) (Policy, error) {
	fit, err := ParseFit(resizeStyle)
	if err != nil {
		return Policy{}, err
	}
	g, err := ParseGravity(gravity)
	if err != nil {
		return Policy{}, err
	}
	return Policy{Fit: fit, Gravity: g}, nil
}
