// Package imaging wraps the codec and pixel libraries behind the operations
// the conversion engine needs: decoding with a resource budget, header-only
// identification, resampling, extent and crop, orientation, adjustments,
// quantization, compositing and encoding.
//
// All operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward. Coordinates passed to this package are relative to the
// image's bounds, so images with a non-zero Min behave like any other.
//
// # Formats
//
// PNG, JPEG and GIF come from the standard library, BMP and TIFF from
// golang.org/x/image, WebP from github.com/chai2010/webp and AVIF from
// github.com/gen2brain/avif. Format names are case-insensitive on input and
// reported upper-case ("PNG", "JPEG") on output.
//
// # Warnings
//
// Some problems are not fatal: a Format hint that does not match the data,
// or a damaged EXIF block. These surface as *Warning errors alongside a
// valid result. Use IsWarning or errors.Is(err, ErrDecodeWarning) to tell
// them apart from failures.
//
// # Color Representation
//
// Colors are reported in the forms callers need:
//   - Hex: "#RRGGBB" from SampleColor, lower-case "rrggbb" from QuantizeColors
//   - RGB/RGBA: 8-bit components (0-255)
//   - Pixel: 16-bit components with inverted opacity, from GetPixels
//   - HSL: Hue (0-360), Saturation (0-100), Lightness (0-100)
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Individual image operations
// are stateless and never modify their inputs, so they can be called
// concurrently on shared images.
package imaging
