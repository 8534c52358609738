package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ironsheep/image-convert-mcp/internal/resource"
)

// encodePNG encodes img as PNG bytes or fails the test.
func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// encodeJPEG encodes img as JPEG bytes or fails the test.
func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("failed to encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// writeTestFile writes data to a temp file and returns its path.
func writeTestFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.png")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func TestDecode_PNG(t *testing.T) {
	data := encodePNG(t, createPatternImage(40, 20))

	img, format, err := Decode(data, DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if format != FormatPNG {
		t.Errorf("format: got %s, want PNG", format)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 20 {
		t.Errorf("dimensions: got %v, want 40x20", img.Bounds())
	}
}

func TestDecode_MatchingHint(t *testing.T) {
	data := encodeJPEG(t, createInMemoryImage(8, 8, color.White))

	for _, hint := range []string{"JPEG", "jpg", "jpeg"} {
		if _, _, err := Decode(data, DecodeOptions{Format: hint}); err != nil {
			t.Errorf("hint %q: unexpected error %v", hint, err)
		}
	}
}

func TestDecode_MismatchedHintWarns(t *testing.T) {
	data := encodePNG(t, createInMemoryImage(8, 8, color.White))

	img, format, err := Decode(data, DecodeOptions{Format: "JPEG"})
	if !IsWarning(err) {
		t.Fatalf("expected a warning, got %v", err)
	}
	if !errors.Is(err, ErrDecodeWarning) {
		t.Errorf("warning does not match ErrDecodeWarning")
	}
	if img == nil || format != FormatPNG {
		t.Errorf("warning must still return the image, got img=%v format=%s", img, format)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		opts    DecodeOptions
		wantErr error
	}{
		{"empty", nil, DecodeOptions{}, ErrDecode},
		{"garbage", []byte("definitely not an image"), DecodeOptions{}, ErrDecode},
		{"unknown hint", []byte{1, 2, 3}, DecodeOptions{Format: "PNGX"}, ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(tt.data, tt.opts)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecode_ResourceLimit(t *testing.T) {
	data := encodePNG(t, createInMemoryImage(100, 100, color.White))

	l := &resource.Limiter{}
	release := l.Acquire(10 * 10 * resource.BytesPerPixel)
	defer release()

	_, _, err := Decode(data, DecodeOptions{Limiter: l})
	if !errors.Is(err, resource.ErrLimitExceeded) {
		t.Errorf("expected ErrLimitExceeded, got %v", err)
	}
}

func TestImageCache_Load(t *testing.T) {
	data := encodePNG(t, createInMemoryImage(10, 10, color.White))
	path := writeTestFile(t, data)

	cache := NewImageCache()
	got, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("loaded bytes differ from file contents")
	}

	// Removing the file proves the second load is served from the cache.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Load(path); err != nil {
		t.Errorf("cached Load failed: %v", err)
	}

	cache.Evict(path)
	if _, err := cache.Load(path); err == nil {
		t.Error("expected error after eviction of a deleted file")
	}
}

func TestImageCache_Clear(t *testing.T) {
	path := writeTestFile(t, encodePNG(t, createInMemoryImage(4, 4, color.White)))

	cache := NewImageCache()
	if _, err := cache.Load(path); err != nil {
		t.Fatal(err)
	}
	cache.Clear()
	if len(cache.files) != 0 {
		t.Errorf("cache not empty after Clear: %d entries", len(cache.files))
	}
}

func TestImageCache_Load_NonExistent(t *testing.T) {
	cache := NewImageCache()
	if _, err := cache.Load("/nonexistent/path/image.png"); err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	path := writeTestFile(t, encodePNG(t, createInMemoryImage(16, 16, color.White)))
	cache := NewImageCache()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				t.Errorf("concurrent Load failed: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestIdentify(t *testing.T) {
	nrgba := image.NewNRGBA(image.Rect(0, 0, 30, 20))
	gray := image.NewGray16(image.Rect(0, 0, 5, 6))

	tests := []struct {
		name       string
		data       []byte
		w, h       int
		format     Format
		depth      int
		colorSpace string
		alpha      bool
	}{
		{"rgba png", encodePNG(t, nrgba), 30, 20, FormatPNG, 8, "sRGB", true},
		{"opaque png", encodePNG(t, createInMemoryImage(12, 7, color.White)), 12, 7, FormatPNG, 8, "sRGB", false},
		{"gray16 png", encodePNG(t, gray), 5, 6, FormatPNG, 16, "Gray", false},
		{"jpeg", encodeJPEG(t, createInMemoryImage(9, 3, color.White)), 9, 3, FormatJPEG, 8, "sRGB", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := Identify(tt.data)
			if err != nil {
				t.Fatalf("Identify failed: %v", err)
			}
			if info.Width != tt.w || info.Height != tt.h {
				t.Errorf("dimensions: got %dx%d, want %dx%d", info.Width, info.Height, tt.w, tt.h)
			}
			if info.Format != tt.format {
				t.Errorf("format: got %s, want %s", info.Format, tt.format)
			}
			if info.Depth != tt.depth {
				t.Errorf("depth: got %d, want %d", info.Depth, tt.depth)
			}
			if info.ColorSpace != tt.colorSpace {
				t.Errorf("colorspace: got %s, want %s", info.ColorSpace, tt.colorSpace)
			}
			if info.HasAlpha != tt.alpha {
				t.Errorf("has_alpha: got %v, want %v", info.HasAlpha, tt.alpha)
			}
			if info.SizeBytes != int64(len(tt.data)) {
				t.Errorf("size: got %d, want %d", info.SizeBytes, len(tt.data))
			}
			if info.Exif.Orientation != 0 {
				t.Errorf("orientation: got %d, want 0", info.Exif.Orientation)
			}
		})
	}
}

func TestIdentify_Density(t *testing.T) {
	data := WithDensity(encodePNG(t, createInMemoryImage(4, 4, color.White)), FormatPNG, Density{X: 300, Y: 300})

	info, err := Identify(data)
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	if info.Density != (Density{X: 300, Y: 300}) {
		t.Errorf("density: got %+v, want 300x300", info.Density)
	}
}

func TestIdentify_Invalid(t *testing.T) {
	if _, err := Identify([]byte("nope")); !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
	if _, err := Identify(nil); !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode for empty input, got %v", err)
	}
}
