package convert

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/ironsheep/image-convert-mcp/internal/geometry"
	imgops "github.com/ironsheep/image-convert-mcp/internal/imaging"
	"github.com/ironsheep/image-convert-mcp/internal/resource"
)

// Result is the output of one conversion.
type Result struct {
	Data     []byte        `json:"-"`
	Format   imgops.Format `json:"format"`
	Width    int           `json:"width"`
	Height   int           `json:"height"`
	Warnings []string      `json:"warnings,omitempty"`
}

// MimeType returns the MIME type of the encoded data.
func (r *Result) MimeType() string {
	return r.Format.MimeType()
}

// Converter runs conversion requests. The zero value is not usable; create
// one with New.
type Converter struct {
	defaults Defaults
	limiter  *resource.Limiter
	logger   zerolog.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithDefaults sets the values used for options a request leaves empty.
// Defaults.MaxMemory becomes the limiter's baseline budget rather than a
// per-request scope, so requests that do not set MaxMemory run
// concurrently.
func WithDefaults(d Defaults) Option {
	return func(c *Converter) { c.defaults = d }
}

// WithLimiter replaces resource.Default as the pixel cache budget.
func WithLimiter(l *resource.Limiter) Option {
	return func(c *Converter) { c.limiter = l }
}

// WithLogger sets the logger used when the request context carries none.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// New creates a Converter.
func New(opts ...Option) *Converter {
	c := &Converter{
		limiter: resource.Default,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.defaults.MaxMemory > 0 {
		c.limiter.SetLimit(c.defaults.MaxMemory)
	}
	return c
}

// Defaults returns the converter's option defaults.
func (c *Converter) Defaults() Defaults {
	return c.defaults
}

// Convert decodes opts.SrcData, applies the requested transforms and
// encodes the result.
//
// Every option name is validated before decoding. The context is checked
// once before work starts; a conversion in progress is not interrupted.
//
// Errors:
//   - ErrMissingSource, ErrInvalidOption for bad requests
//   - geometry.ErrUnsupportedPolicy, geometry.ErrUnsupportedGravity
//   - imaging.ErrUnsupportedFilter, imaging.ErrUnsupportedFormat
//   - imaging.ErrDecode, *imaging.Warning, resource.ErrLimitExceeded
//   - imaging.ErrEncode
func (c *Converter) Convert(ctx context.Context, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req, err := opts.withDefaults(c.defaults).validate()
	if err != nil {
		return nil, err
	}

	log := c.requestLogger(ctx, req.Debug)
	log.Debug().
		Int("src_bytes", len(req.SrcData)).
		Int("width", req.Width).
		Int("height", req.Height).
		Str("resize_style", req.policy.Fit.String()).
		Str("gravity", req.policy.Gravity.String()).
		Str("format", string(req.format)).
		Msg("convert: start")

	release := c.limiter.Acquire(req.MaxMemory)
	defer release()

	var warnings []string
	warn := func(w error) error {
		if !req.IgnoreWarnings {
			return w
		}
		log.Warn().Err(w).Msg("convert: ignoring warning")
		warnings = append(warnings, w.Error())
		return nil
	}

	img, srcFormat, err := imgops.Decode(req.SrcData, imgops.DecodeOptions{Format: req.SrcFormat, Limiter: c.limiter})
	if err != nil {
		if !imgops.IsWarning(err) {
			return nil, err
		}
		if err := warn(err); err != nil {
			return nil, err
		}
	}
	log.Debug().Str("src_format", string(srcFormat)).
		Int("src_width", img.Bounds().Dx()).
		Int("src_height", img.Bounds().Dy()).
		Msg("convert: decoded")

	outFormat := req.format
	if outFormat == "" {
		outFormat = srcFormat
	}

	if req.AutoOrient {
		orientation, err := imgops.ReadOrientation(req.SrcData)
		if err != nil {
			if err := warn(err); err != nil {
				return nil, err
			}
		}
		if orientation > 1 {
			img = imgops.AutoOrient(img, orientation)
			log.Debug().Int("orientation", int(orientation)).Msg("convert: auto-oriented")
		}
	}

	if req.Trim {
		img = imgops.Trim(img, req.TrimFuzz)
		log.Debug().Float64("fuzz", req.TrimFuzz).
			Int("width", img.Bounds().Dx()).
			Int("height", img.Bounds().Dy()).
			Msg("convert: trimmed")
	}

	if req.Blur > 0 {
		img = imgops.Blur(img, req.Blur)
		log.Debug().Float64("sigma", req.Blur).Msg("convert: blurred")
	}

	src := geometry.Dimensions{Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
	plan, err := geometry.Resolve(src, geometry.Dimensions{Width: req.Width, Height: req.Height}, req.policy)
	if err != nil {
		return nil, err
	}
	log.Debug().Interface("plan", plan).Msg("convert: resolved geometry")
	if err := c.checkPlan(plan); err != nil {
		return nil, err
	}
	img = applyPlan(img, plan, req.filter, req.extentFill(outFormat))

	if req.Rotate != 0 {
		if err := c.checkSize(imgops.RotatedSize(img.Bounds().Dx(), img.Bounds().Dy(), req.Rotate)); err != nil {
			return nil, err
		}
		img = imgops.Rotate(img, req.Rotate, req.extentFill(outFormat))
		log.Debug().Float64("degrees", req.Rotate).Msg("convert: rotated")
	}

	if req.Flip {
		img = imgops.Flip(img)
		log.Debug().Msg("convert: flipped")
	}

	if req.Flop {
		img = imgops.Flop(img)
		log.Debug().Msg("convert: flopped")
	}

	if req.Brightness != 0 || req.Contrast != 0 {
		if img, err = imgops.BrightnessContrast(img, req.Brightness, req.Contrast); err != nil {
			return nil, err
		}
		log.Debug().Float64("brightness", req.Brightness).Float64("contrast", req.Contrast).Msg("convert: adjusted")
	}

	if flattenColor, ok := req.flattenColor(outFormat, img); ok {
		img = imgops.Flatten(img, flattenColor)
		log.Debug().Str("background", imgops.HexString(flattenColor)).Msg("convert: flattened")
	}

	data, err := imgops.EncodeBytes(img, imgops.EncodeOptions{
		Format:  outFormat,
		Quality: req.Quality,
		Density: imgops.Density{X: req.Density, Y: req.Density},
		Strip:   req.Strip,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{
		Data:     data,
		Format:   outFormat,
		Width:    img.Bounds().Dx(),
		Height:   img.Bounds().Dy(),
		Warnings: warnings,
	}
	log.Debug().Int("bytes", len(data)).
		Int("width", result.Width).
		Int("height", result.Height).
		Str("format", string(outFormat)).
		Msg("convert: done")
	return result, nil
}

// checkPlan rejects a plan whose intermediate or final canvas would not fit
// the pixel budget.
func (c *Converter) checkPlan(plan geometry.Plan) error {
	if plan.ShouldResize {
		if err := c.checkSize(plan.ResizeWidth, plan.ResizeHeight); err != nil {
			return err
		}
	}
	if plan.ShouldCrop {
		return c.checkSize(plan.CropWidth, plan.CropHeight)
	}
	return nil
}

// checkSize applies MaxDimension and the limiter to a canvas the pipeline
// is about to allocate.
func (c *Converter) checkSize(width, height int) error {
	if width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("%w: %dx%d exceeds the %d pixel dimension limit", resource.ErrLimitExceeded, width, height, MaxDimension)
	}
	return c.limiter.Check(width, height)
}

// applyPlan translates a resolved plan into library calls: a resize, then
// an extent that crops or pads to the final box.
func applyPlan(img image.Image, plan geometry.Plan, filter imaging.ResampleFilter, fill color.Color) image.Image {
	if plan.ShouldResize {
		img = imgops.Resize(img, plan.ResizeWidth, plan.ResizeHeight, filter)
	}
	if plan.ShouldCrop {
		img = imgops.Extent(img, plan.CropOffsetX, plan.CropOffsetY, plan.CropWidth, plan.CropHeight, fill)
	}
	return img
}

// requestLogger returns the logger for one request: the context logger if
// the caller attached one, else the converter's. Debug requests are lowered
// to debug level regardless of the global level.
func (c *Converter) requestLogger(ctx context.Context, debug bool) zerolog.Logger {
	log := c.logger
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		log = *l
	}
	if debug {
		log = log.Level(zerolog.DebugLevel)
	}
	return log
}
