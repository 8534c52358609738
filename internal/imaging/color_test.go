package imaging

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

// createInMemoryImage creates an in-memory test image
func createInMemoryImage(width, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createPatternImage creates an image with different colors in each quadrant
func createPatternImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.Color
			if x < width/2 && y < height/2 {
				c = color.RGBA{255, 0, 0, 255} // Red top-left
			} else if x >= width/2 && y < height/2 {
				c = color.RGBA{0, 255, 0, 255} // Green top-right
			} else if x < width/2 && y >= height/2 {
				c = color.RGBA{0, 0, 255, 255} // Blue bottom-left
			} else {
				c = color.RGBA{255, 255, 255, 255} // White bottom-right
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func TestSampleColor(t *testing.T) {
	img := createPatternImage(100, 100)

	tests := []struct {
		name    string
		x, y    int
		wantHex string
	}{
		{"top-left red", 10, 10, "#FF0000"},
		{"top-right green", 90, 10, "#00FF00"},
		{"bottom-left blue", 10, 90, "#0000FF"},
		{"bottom-right white", 90, 90, "#FFFFFF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := SampleColor(img, tt.x, tt.y)
			if err != nil {
				t.Fatalf("SampleColor failed: %v", err)
			}
			if result.Hex != tt.wantHex {
				t.Errorf("Hex: got %s, want %s", result.Hex, tt.wantHex)
			}
			if result.RGBA.A != 255 {
				t.Errorf("alpha: got %d, want 255", result.RGBA.A)
			}
		})
	}
}

func TestSampleColor_HSL(t *testing.T) {
	tests := []struct {
		name string
		c    color.Color
		want HSLColor
	}{
		{"red", color.RGBA{255, 0, 0, 255}, HSLColor{0, 100, 50}},
		{"green", color.RGBA{0, 255, 0, 255}, HSLColor{120, 100, 50}},
		{"blue", color.RGBA{0, 0, 255, 255}, HSLColor{240, 100, 50}},
		{"white", color.RGBA{255, 255, 255, 255}, HSLColor{0, 0, 100}},
		{"black", color.RGBA{0, 0, 0, 255}, HSLColor{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := SampleColor(createInMemoryImage(4, 4, tt.c), 1, 1)
			if err != nil {
				t.Fatalf("SampleColor failed: %v", err)
			}
			if result.HSL != tt.want {
				t.Errorf("HSL: got %+v, want %+v", result.HSL, tt.want)
			}
		})
	}
}

func TestSampleColor_Unpremultiplied(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 128})

	result, err := SampleColor(img, 0, 0)
	if err != nil {
		t.Fatalf("SampleColor failed: %v", err)
	}
	if result.RGBA != (RGBAColor{255, 0, 0, 128}) {
		t.Errorf("RGBA: got %+v, want {255 0 0 128}", result.RGBA)
	}
}

func TestSampleColor_OutOfBounds(t *testing.T) {
	img := createInMemoryImage(10, 10, color.White)

	tests := []struct {
		name string
		x, y int
	}{
		{"negative x", -1, 5},
		{"negative y", 5, -1},
		{"x at width", 10, 5},
		{"y at height", 5, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SampleColor(img, tt.x, tt.y)
			if !errors.Is(err, ErrOutOfBounds) {
				t.Errorf("expected ErrOutOfBounds for (%d,%d), got %v", tt.x, tt.y, err)
			}
		})
	}
}

func TestSampleColor_OffsetBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(50, 50, 60, 60))
	img.Set(50, 50, color.RGBA{0, 0, 255, 255})

	result, err := SampleColor(img, 0, 0)
	if err != nil {
		t.Fatalf("SampleColor failed: %v", err)
	}
	if result.Hex != "#0000FF" {
		t.Errorf("Hex: got %s, want #0000FF", result.Hex)
	}
}

func TestSampleColors(t *testing.T) {
	img := createPatternImage(100, 100)

	points := []LabeledPoint{
		{X: 10, Y: 10, Label: "red"},
		{X: 90, Y: 90, Label: "white"},
		{X: 90, Y: 10},
	}

	results, err := SampleColors(img, points)
	if err != nil {
		t.Fatalf("SampleColors failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Label != "red" || results[0].Color.Hex != "#FF0000" {
		t.Errorf("first sample: got %+v", results[0])
	}
	if results[2].Label != "" || results[2].Color.Hex != "#00FF00" {
		t.Errorf("third sample: got %+v", results[2])
	}
}

func TestSampleColors_OutOfBounds(t *testing.T) {
	img := createInMemoryImage(10, 10, color.White)

	_, err := SampleColors(img, []LabeledPoint{{X: 1, Y: 1}, {X: 100, Y: 1}})
	if !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
}

func TestGetPixels(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(1, 1, color.NRGBA{255, 0, 0, 255})
	img.SetNRGBA(2, 1, color.NRGBA{0, 255, 0, 0})

	pixels, err := GetPixels(img, Window{X: 1, Y: 1, Columns: 2, Rows: 1})
	if err != nil {
		t.Fatalf("GetPixels failed: %v", err)
	}
	if len(pixels) != 2 {
		t.Fatalf("got %d pixels, want 2", len(pixels))
	}

	if pixels[0] != (Pixel{Red: 65535, Green: 0, Blue: 0, Opacity: 0}) {
		t.Errorf("opaque red: got %+v", pixels[0])
	}
	if pixels[1].Opacity != QuantumRange {
		t.Errorf("transparent pixel opacity: got %d, want %d", pixels[1].Opacity, QuantumRange)
	}
}

func TestGetPixels_RowMajor(t *testing.T) {
	img := createPatternImage(4, 4)

	pixels, err := GetPixels(img, Window{X: 1, Y: 1, Columns: 2, Rows: 2})
	if err != nil {
		t.Fatalf("GetPixels failed: %v", err)
	}

	// red, green / blue, white
	want := []Pixel{
		{Red: 65535},
		{Green: 65535},
		{Blue: 65535},
		{Red: 65535, Green: 65535, Blue: 65535},
	}
	for i := range want {
		if pixels[i] != want[i] {
			t.Errorf("pixel %d: got %+v, want %+v", i, pixels[i], want[i])
		}
	}
}

func TestGetPixels_OutOfBounds(t *testing.T) {
	img := createInMemoryImage(10, 10, color.White)

	tests := []struct {
		name string
		w    Window
	}{
		{"past right edge", Window{X: 5, Y: 0, Columns: 6, Rows: 1}},
		{"past bottom edge", Window{X: 0, Y: 9, Columns: 1, Rows: 2}},
		{"negative origin", Window{X: -1, Y: 0, Columns: 1, Rows: 1}},
		{"zero columns", Window{X: 0, Y: 0, Columns: 0, Rows: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GetPixels(img, tt.w)
			if !errors.Is(err, ErrOutOfBounds) {
				t.Errorf("expected ErrOutOfBounds, got %v", err)
			}
		})
	}

	if _, err := GetPixels(img, Window{X: 0, Y: 0, Columns: 10, Rows: 10}); err != nil {
		t.Errorf("full window should succeed: %v", err)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#ff0000", color.NRGBA{255, 0, 0, 255}, false},
		{"00FF00", color.NRGBA{0, 255, 0, 255}, false},
		{"#00f", color.NRGBA{0, 0, 255, 255}, false},
		{"#ffffff80", color.NRGBA{255, 255, 255, 128}, false},
		{"white", color.NRGBA{255, 255, 255, 255}, false},
		{" Black ", color.NRGBA{0, 0, 0, 255}, false},
		{"none", color.NRGBA{}, false},
		{"transparent", color.NRGBA{}, false},
		{"#gg0000", color.NRGBA{}, true},
		{"chartreuse-ish", color.NRGBA{}, true},
		{"#12345", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidColor) {
					t.Errorf("expected ErrInvalidColor, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseColor(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q): got %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestHexString(t *testing.T) {
	if got := HexString(color.RGBA{0xAB, 0x01, 0xFF, 0xFF}); got != "ab01ff" {
		t.Errorf("HexString: got %s, want ab01ff", got)
	}
}
