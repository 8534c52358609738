package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
)

// ImageInfo contains metadata about an encoded image.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Depth is the bit depth per channel, 8 or 16.
	Depth int `json:"depth"`

	// Format is the detected container format, e.g. "PNG" or "JPEG".
	// Detection is based on the data, not on any file name.
	Format Format `json:"format"`

	// ColorSpace is "sRGB", "Gray" or "CMYK".
	ColorSpace string `json:"colorspace"`

	// HasAlpha indicates whether the color model carries transparency.
	HasAlpha bool `json:"has_alpha"`

	// Density is the stored print resolution, zero when absent.
	Density Density `json:"density"`

	// Exif holds the EXIF fields identify reports.
	Exif ExifInfo `json:"exif"`

	// SizeBytes is the length of the encoded data.
	SizeBytes int64 `json:"size_bytes"`

	// Warnings lists non-fatal problems the caller chose to ignore.
	Warnings []string `json:"warnings,omitempty"`
}

// ExifInfo is the subset of EXIF data reported by Identify.
type ExifInfo struct {
	// Orientation is 1 through 8, or 0 when the image has none.
	Orientation Orientation `json:"orientation"`
}

// Identify reports metadata about encoded image data without decoding the
// pixel data. Only the header is parsed, so it is cheap for large images.
//
// Returns:
//   - *ImageInfo: Metadata about the image.
//   - error: ErrDecode if the header is not a recognized image.
//
// A corrupt EXIF block does not fail identification; the orientation is
// reported as 0.
func Identify(data []byte) (*ImageInfo, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}

	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	format, err := ParseFormat(name)
	if err != nil {
		return nil, err
	}

	info := &ImageInfo{
		Width:     cfg.Width,
		Height:    cfg.Height,
		Depth:     modelDepth(cfg.ColorModel),
		Format:    format,
		Density:   ReadDensity(data),
		SizeBytes: int64(len(data)),
	}
	info.ColorSpace, info.HasAlpha = describeModel(cfg.ColorModel, format, data)

	if orientation, err := ReadOrientation(data); err == nil {
		info.Exif.Orientation = orientation
	}

	return info, nil
}

// modelDepth returns the bits per channel for a color model.
//
// Color depth is determined by the model:
//   - RGBA64, NRGBA64, Gray16 -> 16
//   - everything else -> 8
func modelDepth(m color.Model) int {
	switch m {
	case color.RGBA64Model, color.NRGBA64Model, color.Gray16Model, color.Alpha16Model:
		return 16
	}
	return 8
}

// describeModel maps a color model onto an identify colorspace name and
// reports whether the model stores alpha.
func describeModel(m color.Model, format Format, data []byte) (string, bool) {
	switch m {
	case color.CMYKModel:
		return "CMYK", false
	case color.GrayModel, color.Gray16Model:
		return "Gray", false
	case color.RGBAModel, color.RGBA64Model, color.NRGBAModel, color.NRGBA64Model:
		return "sRGB", format.SupportsAlpha() && pngHasAlpha(format, data)
	case color.YCbCrModel:
		return "sRGB", false
	}
	if p, ok := m.(color.Palette); ok {
		for _, c := range p {
			if _, _, _, a := c.RGBA(); a != 0xFFFF {
				return "sRGB", true
			}
		}
	}
	return "sRGB", false
}

// pngHasAlpha refines the alpha answer for PNG, whose decoder reports an
// NRGBA model only for color types that carry an alpha channel. Other
// formats with an RGBA model are taken at their word.
func pngHasAlpha(format Format, data []byte) bool {
	if format != FormatPNG {
		return true
	}
	// IHDR color type lives at byte 25: 4 = gray+alpha, 6 = RGBA
	if len(data) < 26 {
		return false
	}
	ct := data[25]
	return ct == 4 || ct == 6
}
