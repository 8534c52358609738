package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"

	_ "github.com/chai2010/webp" // Register WebP format decoder
	_ "github.com/gen2brain/avif" // Register AVIF format decoder
	_ "golang.org/x/image/bmp"    // Register BMP format decoder
	_ "golang.org/x/image/tiff"   // Register TIFF format decoder

	"github.com/ironsheep/image-convert-mcp/internal/resource"
)

// ErrDecode wraps every fatal decoding failure.
var ErrDecode = errors.New("image.read failed")

// ErrDecodeWarning matches any *Warning with errors.Is.
var ErrDecodeWarning = errors.New("image.read warning")

// Warning is a non-fatal problem found while reading an image. When Decode
// returns a *Warning the returned image is still complete and usable; the
// caller decides whether to fail or continue.
type Warning struct {
	Reason string
}

func (w *Warning) Error() string {
	return "warning: " + w.Reason
}

// Is makes errors.Is(err, ErrDecodeWarning) true for warnings.
func (w *Warning) Is(target error) bool {
	return target == ErrDecodeWarning
}

// IsWarning reports whether err is a decode warning.
func IsWarning(err error) bool {
	var w *Warning
	return errors.As(err, &w)
}

// DecodeOptions controls Decode.
type DecodeOptions struct {
	// Format is the expected source format. Empty means sniff the data.
	Format string

	// Limiter bounds the decoded pixel size. Nil uses resource.Default.
	Limiter *resource.Limiter
}

// Decode reads an encoded image from memory.
//
// The header is decoded first and the dimensions are checked against the
// pixel cache budget before any pixel data is allocated.
//
// Returns:
//   - image.Image: the decoded image (also set when err is a *Warning).
//   - Format: the detected container format.
//   - error: ErrDecode, resource.ErrLimitExceeded, ErrUnsupportedFormat, or a
//     *Warning when the data decoded but did not match the Format hint.
func Decode(data []byte, opts DecodeOptions) (image.Image, Format, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty input", ErrDecode)
	}

	var hint Format
	if opts.Format != "" {
		f, err := ParseFormat(opts.Format)
		if err != nil {
			return nil, "", err
		}
		hint = f
	}

	limiter := opts.Limiter
	if limiter == nil {
		limiter = resource.Default
	}

	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if err := limiter.Check(cfg.Width, cfg.Height); err != nil {
		return nil, "", err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	format, err := ParseFormat(name)
	if err != nil {
		return nil, "", err
	}

	if hint != "" && hint != format {
		return img, format, &Warning{Reason: fmt.Sprintf("expected %s data, found %s", hint, format)}
	}
	return img, format, nil
}

// ImageCache provides thread-safe caching of source file bytes so repeated
// tool calls on the same path avoid redundant disk reads.
//
// Raw bytes are cached rather than decoded images: every conversion decodes
// under its own resource budget and format hint.
type ImageCache struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewImageCache creates and initializes a new empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		files: make(map[string][]byte),
	}
}

// Load returns the contents of the file at path, reading it from disk on
// first use. The returned slice must not be modified.
func (c *ImageCache) Load(path string) ([]byte, error) {
	c.mu.RLock()
	if data, ok := c.files[path]; ok {
		c.mu.RUnlock()
		return data, nil
	}
	c.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	c.mu.Lock()
	c.files[path] = data
	c.mu.Unlock()

	return data, nil
}

// Clear removes all entries from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.files = make(map[string][]byte)
	c.mu.Unlock()
}

// Evict removes a specific path from the cache.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.files, path)
	c.mu.Unlock()
}
