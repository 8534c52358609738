package imaging

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blur"
)

// Blur applies a Gaussian blur with the given sigma. A non-positive sigma
// returns img unchanged.
func Blur(img image.Image, sigma float64) image.Image {
	if sigma <= 0 {
		return img
	}
	return blur.Gaussian(img, sigma)
}

// BrightnessContrast adjusts brightness and contrast. Both values are
// percentages in [-100, 100]; zero leaves the channel untouched.
func BrightnessContrast(img image.Image, brightness, contrast float64) (image.Image, error) {
	if brightness < -100 || brightness > 100 {
		return nil, fmt.Errorf("brightness %v out of range [-100, 100]", brightness)
	}
	if contrast < -100 || contrast > 100 {
		return nil, fmt.Errorf("contrast %v out of range [-100, 100]", contrast)
	}

	out := img
	if brightness != 0 {
		out = adjust.Brightness(out, brightness/100)
	}
	if contrast != 0 {
		out = adjust.Contrast(out, contrast/100)
	}
	return out, nil
}
