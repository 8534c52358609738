package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/chai2010/webp"
	"github.com/gen2brain/avif"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ErrEncode wraps every encoder failure.
var ErrEncode = errors.New("image.write failed")

// DefaultQuality is the lossy quality used when none is requested.
const DefaultQuality = 75

// avifSpeed trades encoder time for size; 0 is slowest, 10 fastest.
const avifSpeed = 6

// EncodeOptions controls Encode.
type EncodeOptions struct {
	// Format is the output container. Required.
	Format Format

	// Quality is 1-100 for lossy formats; 0 selects DefaultQuality. For PNG
	// it selects the zlib effort: quality/10 below 1 means no compression,
	// 1 to 5 fast, above that best.
	Quality int

	// Density is stamped into PNG and JPEG output when non-zero.
	Density Density

	// Strip drops every optional metadata chunk, density included.
	Strip bool
}

// Encode writes img in the requested format to w.
//
// Returns ErrUnsupportedFormat for an unknown format and ErrEncode when the
// encoder fails.
func Encode(w io.Writer, img image.Image, opts EncodeOptions) error {
	data, err := EncodeBytes(img, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// EncodeBytes encodes img in the requested format and returns the bytes.
func EncodeBytes(img image.Image, opts EncodeOptions) ([]byte, error) {
	quality := opts.Quality
	if quality <= 0 {
		quality = DefaultQuality
	}
	if quality > 100 {
		quality = 100
	}

	var buf bytes.Buffer
	var err error
	switch opts.Format {
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: pngCompression(opts.Quality)}
		err = enc.Encode(&buf, img)
	case FormatJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	case FormatGIF:
		err = gif.Encode(&buf, img, &gif.Options{NumColors: 256})
	case FormatBMP:
		err = bmp.Encode(&buf, img)
	case FormatTIFF:
		err = tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case FormatWEBP:
		err = webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)})
	case FormatAVIF:
		err = avif.Encode(&buf, img, avif.Options{Quality: quality, QualityAlpha: quality, Speed: avifSpeed})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, opts.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEncode, opts.Format, err)
	}

	out := buf.Bytes()
	if !opts.Strip {
		out = WithDensity(out, opts.Format, opts.Density)
	}
	return out, nil
}

func pngCompression(quality int) png.CompressionLevel {
	if quality <= 0 {
		return png.DefaultCompression
	}
	switch level := quality / 10; {
	case level < 1:
		return png.NoCompression
	case level <= 5:
		return png.BestSpeed
	default:
		return png.BestCompression
	}
}
