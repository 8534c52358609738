package imaging

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFormat is returned for an image format with no codec.
var ErrUnsupportedFormat = errors.New("no decode delegate for this image format")

// Format is an image container format, named the way identify reports it.
type Format string

const (
	FormatPNG  Format = "PNG"
	FormatJPEG Format = "JPEG"
	FormatGIF  Format = "GIF"
	FormatBMP  Format = "BMP"
	FormatTIFF Format = "TIFF"
	FormatWEBP Format = "WEBP"
	FormatAVIF Format = "AVIF"
)

// formatAliases maps lower-cased names, including the names the standard
// image registry uses, onto formats.
var formatAliases = map[string]Format{
	"png":  FormatPNG,
	"jpeg": FormatJPEG,
	"jpg":  FormatJPEG,
	"gif":  FormatGIF,
	"bmp":  FormatBMP,
	"tiff": FormatTIFF,
	"tif":  FormatTIFF,
	"webp": FormatWEBP,
	"avif": FormatAVIF,
}

// ParseFormat converts a user supplied format name ("PNG", "jpg", "webp")
// into a Format. Matching is case-insensitive.
func ParseFormat(name string) (Format, error) {
	f, ok := formatAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
	return f, nil
}

// MimeType returns the MIME type for the format.
func (f Format) MimeType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatTIFF:
		return "image/tiff"
	case "":
		return "application/octet-stream"
	default:
		return "image/" + strings.ToLower(string(f))
	}
}

// Extension returns the usual file extension, including the dot.
func (f Format) Extension() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return "." + strings.ToLower(string(f))
}

// SupportsAlpha reports whether the format can store transparency.
func (f Format) SupportsAlpha() bool {
	switch f {
	case FormatPNG, FormatGIF, FormatTIFF, FormatWEBP, FormatAVIF:
		return true
	}
	return false
}
