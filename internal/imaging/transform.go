package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
)

// ErrUnsupportedFilter is returned for an unknown resampling filter name.
var ErrUnsupportedFilter = errors.New("filter not supported")

// filters maps lower-cased filter names onto resampling kernels. Names
// without an exact kernel map to the closest one available.
var filters = map[string]imaging.ResampleFilter{
	"point":     imaging.NearestNeighbor,
	"box":       imaging.Box,
	"triangle":  imaging.Linear,
	"hermite":   imaging.Hermite,
	"hanning":   imaging.Hann,
	"hamming":   imaging.Hamming,
	"blackman":  imaging.Blackman,
	"gaussian":  imaging.Gaussian,
	"quadratic": imaging.Bartlett,
	"cubic":     imaging.BSpline,
	"catrom":    imaging.CatmullRom,
	"mitchell":  imaging.MitchellNetravali,
	"lanczos":   imaging.Lanczos,
	"lagrange":  imaging.CatmullRom,
	"welsh":     imaging.Welch,
	"cosine":    imaging.Cosine,
}

// DefaultFilter is used when no filter is named.
var DefaultFilter = imaging.Lanczos

// ParseFilter returns the resampling kernel for a filter name. Matching is
// case-insensitive and an empty name selects DefaultFilter.
func ParseFilter(name string) (imaging.ResampleFilter, error) {
	if name == "" {
		return DefaultFilter, nil
	}
	f, ok := filters[strings.ToLower(name)]
	if !ok {
		return imaging.ResampleFilter{}, fmt.Errorf("%w: %q", ErrUnsupportedFilter, name)
	}
	return f, nil
}

// Resize scales img to exactly width x height with the given kernel.
func Resize(img image.Image, width, height int, filter imaging.ResampleFilter) *image.NRGBA {
	return imaging.Resize(img, width, height, filter)
}

// Extent places img on a width x height canvas filled with fill, shifted so
// that source pixel (x, y) lands on the canvas origin. Canvas areas not
// covered by the source keep the fill color; covered areas are copied
// verbatim, alpha included.
func Extent(img image.Image, x, y, width, height int, fill color.Color) *image.NRGBA {
	canvas := imaging.New(width, height, fill)
	return imaging.Paste(canvas, img, image.Pt(-x, -y))
}

// Crop extracts the rectangle (x, y, width, height) from img. The rectangle
// is clipped to the image bounds.
func Crop(img image.Image, x, y, width, height int) *image.NRGBA {
	b := img.Bounds()
	rect := image.Rect(b.Min.X+x, b.Min.Y+y, b.Min.X+x+width, b.Min.Y+y+height)
	return imaging.Crop(img, rect)
}

// Rotate turns img clockwise by degrees. Multiples of 90 are exact; other
// angles grow the canvas and fill the exposed corners with bg.
func Rotate(img image.Image, degrees float64, bg color.Color) image.Image {
	switch normalized := normalizeAngle(degrees); normalized {
	case 0:
		return img
	case 90:
		return imaging.Rotate270(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate90(img)
	default:
		return imaging.Rotate(img, -normalized, bg)
	}
}

// RotatedSize returns the canvas size Rotate produces for a width x height
// image. For angles that are not a multiple of 90 it is rounded up, so it is
// never smaller than the real canvas.
func RotatedSize(width, height int, degrees float64) (int, int) {
	switch normalized := normalizeAngle(degrees); normalized {
	case 0, 180:
		return width, height
	case 90, 270:
		return height, width
	default:
		sin, cos := math.Sincos(normalized * math.Pi / 180)
		w, h := float64(width), float64(height)
		return int(math.Ceil(math.Abs(w*cos) + math.Abs(h*sin))),
			int(math.Ceil(math.Abs(w*sin) + math.Abs(h*cos)))
	}
}

func normalizeAngle(degrees float64) float64 {
	for degrees < 0 {
		degrees += 360
	}
	for degrees >= 360 {
		degrees -= 360
	}
	return degrees
}

// Flip mirrors img top to bottom.
func Flip(img image.Image) image.Image {
	return imaging.FlipV(img)
}

// Flop mirrors img left to right.
func Flop(img image.Image) image.Image {
	return imaging.FlipH(img)
}

// Flatten composites img over an opaque background, removing transparency.
func Flatten(img image.Image, bg color.Color) *image.NRGBA {
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), opaque(bg))
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

// HasTransparency reports whether any pixel of img is not fully opaque.
func HasTransparency(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xFFFF {
				return true
			}
		}
	}
	return false
}

func opaque(c color.Color) color.NRGBA {
	n := ToNRGBA(c)
	n.A = 255
	return n
}
