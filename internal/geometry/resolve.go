package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSource is returned when the source dimensions are not positive.
var ErrInvalidSource = errors.New("source dimensions must be positive")

// Dimensions is a width and height in pixels.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Plan is the concrete transform for one conversion: an optional resize to
// ResizeWidth x ResizeHeight followed by an optional canvas extent of
// CropWidth x CropHeight at (CropOffsetX, CropOffsetY) on the resized image.
type Plan struct {
	ResizeWidth  int  `json:"resize_width"`
	ResizeHeight int  `json:"resize_height"`
	CropOffsetX  int  `json:"crop_offset_x"`
	CropOffsetY  int  `json:"crop_offset_y"`
	CropWidth    int  `json:"crop_width"`
	CropHeight   int  `json:"crop_height"`
	ShouldResize bool `json:"should_resize"`
	ShouldCrop   bool `json:"should_crop"`
}

// Resolve computes the Plan that maps an image of size source into the
// target box under policy.
//
// A zero target on both axes yields the identity plan. A zero target on one
// axis is replaced by the matching source dimension first. The fit and
// gravity are validated before any arithmetic; on error the returned Plan is
// the zero value.
func Resolve(source, target Dimensions, policy Policy) (Plan, error) {
	if !policy.Fit.valid() {
		return Plan{}, fmt.Errorf("%w: %s", ErrUnsupportedPolicy, policy.Fit)
	}
	if !policy.Gravity.valid() {
		return Plan{}, fmt.Errorf("%w: %s", ErrUnsupportedGravity, policy.Gravity)
	}
	if source.Width <= 0 || source.Height <= 0 {
		return Plan{}, fmt.Errorf("%w: got %dx%d", ErrInvalidSource, source.Width, source.Height)
	}
	if target.Width < 0 || target.Height < 0 {
		return Plan{}, fmt.Errorf("target dimensions must not be negative: got %dx%d", target.Width, target.Height)
	}

	if target.Width == 0 && target.Height == 0 {
		return identity(source), nil
	}
	if target.Width == 0 {
		target.Width = source.Width
	}
	if target.Height == 0 {
		target.Height = source.Height
	}

	switch policy.Fit {
	case Fill:
		return Plan{
			ResizeWidth:  target.Width,
			ResizeHeight: target.Height,
			ShouldResize: true,
		}, nil
	case AspectFit:
		return aspectFit(source, target), nil
	case Crop:
		return cropAt(source, target, policy.OffsetX, policy.OffsetY)
	default:
		return aspectFill(source, target, policy.Gravity), nil
	}
}

func identity(source Dimensions) Plan {
	return Plan{ResizeWidth: source.Width, ResizeHeight: source.Height}
}

// aspectFit scales by the smaller of the two axis ratios so the result lies
// inside the target box. The constrained axis matches the target exactly and
// the free axis is rounded to the nearest pixel, never exceeding the target.
func aspectFit(source, target Dimensions) Plan {
	sw, sh := float64(source.Width), float64(source.Height)
	tw, th := float64(target.Width), float64(target.Height)

	w, h := target.Width, target.Height
	if tw/sw <= th/sh {
		h = clamp(int(sh*tw/sw+0.5), 1, target.Height)
	} else {
		w = clamp(int(sw*th/sh+0.5), 1, target.Width)
	}
	return Plan{ResizeWidth: w, ResizeHeight: h, ShouldResize: true}
}

// aspectFill scales so the image covers the target box, then positions a
// target-sized crop on the overflowing axis according to gravity.
//
// The scaled free dimension is rounded up, never truncated, so it is never
// one pixel short of the crop box.
func aspectFill(source, target Dimensions, gravity Gravity) Plan {
	sw, sh := float64(source.Width), float64(source.Height)
	tw, th := float64(target.Width), float64(target.Height)

	aspectExpected := th / tw
	aspectOriginal := sh / sw

	var rw, rh, x, y int
	if aspectExpected > aspectOriginal {
		// target is relatively taller: height drives, crop horizontally
		rw = int(math.Ceil(th / sh * sw))
		rh = target.Height
		switch {
		case gravity.HasWest():
			x = 0
		case gravity.HasEast():
			x = rw - target.Width
		default:
			x = int(float64(rw-target.Width) / 2.)
		}
	} else {
		// target is relatively wider: width drives, crop vertically
		rw = target.Width
		rh = int(math.Ceil(tw / sw * sh))
		switch {
		case gravity.HasNorth():
			y = 0
		case gravity.HasSouth():
			y = rh - target.Height
		default:
			y = int(float64(rh-target.Height) / 2.)
		}
	}

	return Plan{
		ResizeWidth:  rw,
		ResizeHeight: rh,
		CropOffsetX:  x,
		CropOffsetY:  y,
		CropWidth:    target.Width,
		CropHeight:   target.Height,
		ShouldResize: true,
		ShouldCrop:   gravity != GravityNone,
	}
}

// cropAt cuts a target-sized box out of the unscaled source. The box is
// clipped to the source bounds.
func cropAt(source, target Dimensions, x, y int) (Plan, error) {
	if x < 0 || y < 0 || x >= source.Width || y >= source.Height {
		return Plan{}, fmt.Errorf("crop offset (%d,%d) outside source %dx%d", x, y, source.Width, source.Height)
	}
	plan := identity(source)
	plan.CropOffsetX = x
	plan.CropOffsetY = y
	plan.CropWidth = min(target.Width, source.Width-x)
	plan.CropHeight = min(target.Height, source.Height-y)
	plan.ShouldCrop = true
	return plan, nil
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// Anchor returns the top-left position at which an overlay of size overlay
// is placed on a canvas of size canvas for the given gravity.
// GravityNone places the overlay at the origin. Positions may be negative
// when the overlay is larger than the canvas.
func Anchor(canvas, overlay Dimensions, gravity Gravity) (x, y int) {
	if gravity == GravityNone {
		return 0, 0
	}
	dx := canvas.Width - overlay.Width
	dy := canvas.Height - overlay.Height

	x = dx / 2
	switch {
	case gravity.HasWest():
		x = 0
	case gravity.HasEast():
		x = dx
	}

	y = dy / 2
	switch {
	case gravity.HasNorth():
		y = 0
	case gravity.HasSouth():
		y = dy
	}
	return x, y
}
