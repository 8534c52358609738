package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// maxRGBDistance is the RGB distance between black and white.
var maxRGBDistance = math.Sqrt(3)

// TrimBounds finds the smallest rectangle that contains every pixel
// differing from the top-left corner color by more than fuzz.
//
// fuzz is a fraction of the full color range in [0, 1]; 0 trims only exact
// matches. Distances are measured in RGB space, and a pixel whose alpha
// differs from the corner's always counts as different.
//
// The second result is false when the whole image matches the corner color,
// in which case nothing should be trimmed.
func TrimBounds(img image.Image, fuzz float64) (image.Rectangle, bool) {
	b := img.Bounds()
	if b.Empty() {
		return b, false
	}

	corner := img.At(b.Min.X, b.Min.Y)
	ref, refAlpha := toColorful(corner)

	differs := func(x, y int) bool {
		c, a := toColorful(img.At(x, y))
		if a != refAlpha {
			return true
		}
		if a == 0 {
			return false
		}
		return ref.DistanceRgb(c)/maxRGBDistance > fuzz
	}

	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !differs(x, y) {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if maxX < minX {
		return b, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// Trim removes uniform borders matching the top-left corner color.
func Trim(img image.Image, fuzz float64) image.Image {
	r, ok := TrimBounds(img, fuzz)
	if !ok || r == img.Bounds() {
		return img
	}
	b := img.Bounds()
	return Crop(img, r.Min.X-b.Min.X, r.Min.Y-b.Min.Y, r.Dx(), r.Dy())
}

func toColorful(c color.Color) (colorful.Color, uint8) {
	n := ToNRGBA(c)
	return colorful.Color{
		R: float64(n.R) / 255,
		G: float64(n.G) / 255,
		B: float64(n.B) / 255,
	}, n.A
}
