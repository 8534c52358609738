package convert

import (
	"context"
	"runtime"
	"runtime/debug"
	"sort"

	"github.com/ironsheep/image-convert-mcp/internal/geometry"
	imgops "github.com/ironsheep/image-convert-mcp/internal/imaging"
)

// QuantumDepth is the bit depth of pixel values reported by GetPixels.
const QuantumDepth = 16

// IdentifyOptions is a metadata request.
type IdentifyOptions struct {
	SrcData        []byte `json:"-"`
	Debug          bool   `json:"debug,omitempty"`
	IgnoreWarnings bool   `json:"ignoreWarnings,omitempty"`
}

// Identify reports metadata about encoded image data. A corrupt EXIF block
// is a warning: it fails the request unless IgnoreWarnings is set, in which
// case it is returned in ImageInfo.Warnings.
func (c *Converter) Identify(ctx context.Context, opts IdentifyOptions) (*imgops.ImageInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(opts.SrcData) == 0 {
		return nil, ErrMissingSource
	}
	log := c.requestLogger(ctx, opts.Debug)

	info, err := imgops.Identify(opts.SrcData)
	if err != nil {
		return nil, err
	}
	if _, err := imgops.ReadOrientation(opts.SrcData); imgops.IsWarning(err) {
		if !opts.IgnoreWarnings {
			return nil, err
		}
		log.Warn().Err(err).Msg("identify: ignoring warning")
		info.Warnings = append(info.Warnings, err.Error())
	}
	log.Debug().
		Str("format", string(info.Format)).
		Int("width", info.Width).
		Int("height", info.Height).
		Msg("identify")
	return info, nil
}

// QuantizeOptions is a dominant color request.
type QuantizeOptions struct {
	SrcData   []byte `json:"-"`
	Colors    int    `json:"colors,omitempty"`
	MaxMemory int64  `json:"maxMemory,omitempty"`
	Debug     bool   `json:"debug,omitempty"`
}

// QuantizeColors returns the dominant colors of an image, most frequent
// first. Colors defaults to imaging.DefaultColorCount.
func (c *Converter) QuantizeColors(ctx context.Context, opts QuantizeOptions) ([]imgops.PaletteColor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(opts.SrcData) == 0 {
		return nil, ErrMissingSource
	}

	release := c.limiter.Acquire(opts.MaxMemory)
	defer release()

	img, _, err := imgops.Decode(opts.SrcData, imgops.DecodeOptions{Limiter: c.limiter})
	if err != nil && !imgops.IsWarning(err) {
		return nil, err
	}

	colors, err := imgops.QuantizeColors(img, opts.Colors)
	if err != nil {
		return nil, err
	}
	log := c.requestLogger(ctx, opts.Debug)
	log.Debug().Int("requested", opts.Colors).Int("found", len(colors)).Msg("quantize")
	return colors, nil
}

// PixelsOptions is a pixel readback request.
type PixelsOptions struct {
	SrcData   []byte `json:"-"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Columns   int    `json:"columns"`
	Rows      int    `json:"rows"`
	MaxMemory int64  `json:"maxMemory,omitempty"`
}

// GetPixels returns the 16-bit pixels of a window in row-major order.
//
// Returns imaging.ErrOutOfBounds unless the window lies wholly inside the
// image.
func (c *Converter) GetPixels(ctx context.Context, opts PixelsOptions) ([]imgops.Pixel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(opts.SrcData) == 0 {
		return nil, ErrMissingSource
	}

	release := c.limiter.Acquire(opts.MaxMemory)
	defer release()

	img, _, err := imgops.Decode(opts.SrcData, imgops.DecodeOptions{Limiter: c.limiter})
	if err != nil && !imgops.IsWarning(err) {
		return nil, err
	}
	return imgops.GetPixels(img, imgops.Window{X: opts.X, Y: opts.Y, Columns: opts.Columns, Rows: opts.Rows})
}

// SampleColors returns the color at each point, in order. Orientation is
// applied first when autoOrient is set so coordinates match what a viewer
// shows.
func (c *Converter) SampleColors(ctx context.Context, data []byte, points []imgops.LabeledPoint, autoOrient bool) ([]imgops.LabeledColorResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrMissingSource
	}

	img, _, err := imgops.Decode(data, imgops.DecodeOptions{Limiter: c.limiter})
	if err != nil && !imgops.IsWarning(err) {
		return nil, err
	}
	if autoOrient {
		if o, err := imgops.ReadOrientation(data); err == nil {
			img = imgops.AutoOrient(img, o)
		}
	}
	return imgops.SampleColors(img, points)
}

// CompositeOptions overlays one image on another.
type CompositeOptions struct {
	SrcData       []byte `json:"-"`
	CompositeData []byte `json:"-"`
	Gravity       string `json:"gravity,omitempty"`
	Format        string `json:"format,omitempty"`
	Quality       int    `json:"quality,omitempty"`
	MaxMemory     int64  `json:"maxMemory,omitempty"`
	Debug         bool   `json:"debug,omitempty"`
}

// Composite draws CompositeData over SrcData with the Over operator and
// encodes the result in Format, or the source format when Format is empty.
//
// Gravity uses the composite spelling ("CenterGravity", "SouthEastGravity",
// "ForgetGravity"). An unknown name never fails the request: it is logged
// and the overlay is placed at the top-left corner.
func (c *Converter) Composite(ctx context.Context, opts CompositeOptions) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(opts.SrcData) == 0 || len(opts.CompositeData) == 0 {
		return nil, ErrMissingSource
	}

	var outFormat imgops.Format
	if opts.Format != "" {
		f, err := imgops.ParseFormat(opts.Format)
		if err != nil {
			return nil, err
		}
		outFormat = f
	}

	log := c.requestLogger(ctx, opts.Debug)
	gravity, ok := geometry.ParseCompositeGravity(opts.Gravity)
	if !ok && opts.Gravity != "" {
		log.Warn().Str("gravity", opts.Gravity).Msg("composite: unknown gravity, placing at origin")
	}

	release := c.limiter.Acquire(opts.MaxMemory)
	defer release()

	base, srcFormat, err := imgops.Decode(opts.SrcData, imgops.DecodeOptions{Limiter: c.limiter})
	if err != nil && !imgops.IsWarning(err) {
		return nil, err
	}
	overlay, _, err := imgops.Decode(opts.CompositeData, imgops.DecodeOptions{Limiter: c.limiter})
	if err != nil && !imgops.IsWarning(err) {
		return nil, err
	}
	if outFormat == "" {
		outFormat = srcFormat
	}

	canvas := geometry.Dimensions{Width: base.Bounds().Dx(), Height: base.Bounds().Dy()}
	x, y := geometry.Anchor(canvas, geometry.Dimensions{Width: overlay.Bounds().Dx(), Height: overlay.Bounds().Dy()}, gravity)
	out := imgops.Composite(base, overlay, x, y)
	log.Debug().Str("gravity", gravity.String()).Int("x", x).Int("y", y).Msg("composite: placed overlay")

	data, err := imgops.EncodeBytes(out, imgops.EncodeOptions{Format: outFormat, Quality: opts.Quality})
	if err != nil {
		return nil, err
	}
	return &Result{
		Data:   data,
		Format: outFormat,
		Width:  out.Bounds().Dx(),
		Height: out.Bounds().Dy(),
	}, nil
}

// VersionInfo describes the build and the imaging libraries linked in.
type VersionInfo struct {
	Version      string            `json:"version"`
	GoVersion    string            `json:"go_version"`
	QuantumDepth int               `json:"quantum_depth"`
	Formats      []string          `json:"formats"`
	Libraries    map[string]string `json:"libraries"`
}

// imagingLibraries are the modules whose versions are reported.
var imagingLibraries = []string{
	"github.com/disintegration/imaging",
	"github.com/anthonynsimon/bild",
	"github.com/lucasb-eyer/go-colorful",
	"github.com/soniakeys/quant",
	"github.com/rwcarlsen/goexif",
	"github.com/chai2010/webp",
	"github.com/gen2brain/avif",
	"golang.org/x/image",
}

// Version reports the program version, the supported formats and the
// versions of the imaging libraries from the embedded build info.
func Version(version string) VersionInfo {
	info := VersionInfo{
		Version:      version,
		GoVersion:    runtime.Version(),
		QuantumDepth: QuantumDepth,
		Libraries:    make(map[string]string),
	}

	for _, f := range []imgops.Format{
		imgops.FormatPNG, imgops.FormatJPEG, imgops.FormatGIF, imgops.FormatBMP,
		imgops.FormatTIFF, imgops.FormatWEBP, imgops.FormatAVIF,
	} {
		info.Formats = append(info.Formats, string(f))
	}
	sort.Strings(info.Formats)

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, dep := range bi.Deps {
			for _, lib := range imagingLibraries {
				if dep.Path == lib {
					info.Libraries[lib] = dep.Version
				}
			}
		}
	}
	return info
}
