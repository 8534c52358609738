package imaging

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"
)

func TestWithDensity_PNGRoundTrip(t *testing.T) {
	src := encodePNG(t, createInMemoryImage(3, 3, color.White))

	for _, dpi := range []float64{72, 96, 150, 300} {
		data := WithDensity(src, FormatPNG, Density{X: dpi})
		got := ReadDensity(data)
		if got.X != dpi || got.Y != dpi {
			t.Errorf("dpi %v: read back %+v", dpi, got)
		}

		// The stamped file must still decode.
		if _, err := png.Decode(bytes.NewReader(data)); err != nil {
			t.Errorf("dpi %v: stamped PNG no longer decodes: %v", dpi, err)
		}
	}
}

func TestWithDensity_JPEGRoundTrip(t *testing.T) {
	src := encodeJPEG(t, createInMemoryImage(3, 3, color.White))

	data := WithDensity(src, FormatJPEG, Density{X: 200, Y: 100})
	got := ReadDensity(data)
	if got != (Density{X: 200, Y: 100}) {
		t.Errorf("read back %+v, want 200x100", got)
	}
	if _, _, err := Decode(data, DecodeOptions{}); err != nil {
		t.Errorf("stamped JPEG no longer decodes: %v", err)
	}
}

func TestWithDensity_Unchanged(t *testing.T) {
	src := encodePNG(t, createInMemoryImage(3, 3, color.White))

	if out := WithDensity(src, FormatPNG, Density{}); !bytes.Equal(out, src) {
		t.Error("zero density must leave data unchanged")
	}
	if out := WithDensity(src, FormatGIF, Density{X: 72}); !bytes.Equal(out, src) {
		t.Error("unsupported format must leave data unchanged")
	}
}

func TestReadDensity_Absent(t *testing.T) {
	if d := ReadDensity(encodePNG(t, createInMemoryImage(3, 3, color.White))); !d.IsZero() {
		t.Errorf("plain PNG: got %+v, want zero", d)
	}
	if d := ReadDensity([]byte("not an image")); !d.IsZero() {
		t.Errorf("garbage: got %+v, want zero", d)
	}
}
