package imaging

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// Orientation is the EXIF orientation tag value, 1 through 8. Zero means
// the image carries no orientation.
type Orientation int

// ReadOrientation returns the EXIF orientation of encoded image data.
//
// Returns 0 with a nil error when the data has no EXIF block. A *Warning is
// returned when an EXIF block is present but cannot be parsed.
func ReadOrientation(data []byte) (Orientation, error) {
	x, err := exif.Decode(bytes.NewReader(data))
	if x == nil {
		if err == nil || !hasExifMarker(data) {
			return 0, nil
		}
		return 0, &Warning{Reason: fmt.Sprintf("corrupt EXIF data: %v", err)}
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 0, nil
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 0, &Warning{Reason: fmt.Sprintf("invalid EXIF orientation %d", v)}
	}
	return Orientation(v), nil
}

// hasExifMarker reports whether data contains an Exif header at all, so a
// missing block can be told apart from a broken one.
func hasExifMarker(data []byte) bool {
	return bytes.Contains(data, []byte("Exif\x00\x00"))
}

// AutoOrient applies the EXIF orientation so the pixels display upright.
// Orientation 1, 0 and unknown values return img unchanged.
func AutoOrient(img image.Image, o Orientation) image.Image {
	switch o {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}
