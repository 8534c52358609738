package imaging

import (
	"image"

	"github.com/disintegration/imaging"
)

// Composite draws overlay over base with the Over operator at position
// (x, y) relative to base's top-left corner. The result has base's size;
// overlay pixels falling outside base are dropped.
func Composite(base, overlay image.Image, x, y int) *image.NRGBA {
	return imaging.Overlay(base, overlay, image.Pt(x, y), 1.0)
}
