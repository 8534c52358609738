package imaging

import (
	"errors"
	"image"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/soniakeys/quant/median"
	"golang.org/x/image/draw"
)

// DefaultColorCount is the palette size used when none is requested.
const DefaultColorCount = 5

// quantizeSampleSize bounds the image before quantization; the palette of
// a 196x196 thumbnail is indistinguishable from the full image's.
const quantizeSampleSize = 196

// ErrInvalidColorCount is returned for a negative palette size.
var ErrInvalidColorCount = errors.New("colors must be positive")

// PaletteColor is one entry of a dominant color palette.
type PaletteColor struct {
	R   uint8  `json:"r"`
	G   uint8  `json:"g"`
	B   uint8  `json:"b"`
	Hex string `json:"hex"` // lower-case "rrggbb", no '#'
}

// QuantizeColors reduces img to a small palette and returns its dominant
// colors, most frequent first.
//
// Parameters:
//   - img: The source image.
//   - count: Number of colors wanted; 0 selects DefaultColorCount.
//
// Returns at most count distinct colors. The image is quantized to one more
// color than requested because the median cut often spends an entry on a
// near duplicate; duplicates by hex value are dropped before truncating.
func QuantizeColors(img image.Image, count int) ([]PaletteColor, error) {
	if count < 0 {
		return nil, ErrInvalidColorCount
	}
	if count == 0 {
		count = DefaultColorCount
	}

	sample := imaging.Fit(img, quantizeSampleSize, quantizeSampleSize, imaging.Box)
	paletted := median.Quantizer(count + 1).Paletted(sample)
	draw.Draw(paletted, sample.Bounds(), sample, sample.Bounds().Min, draw.Src)

	counts := make([]int, len(paletted.Palette))
	for _, idx := range paletted.Pix {
		counts[idx]++
	}

	type entry struct {
		color PaletteColor
		n     int
	}
	byHex := make(map[string]*entry)
	for i, c := range paletted.Palette {
		if counts[i] == 0 {
			continue
		}
		hex := HexString(c)
		if e, ok := byHex[hex]; ok {
			e.n += counts[i]
			continue
		}
		n := ToNRGBA(c)
		byHex[hex] = &entry{color: PaletteColor{R: n.R, G: n.G, B: n.B, Hex: hex}, n: counts[i]}
	}

	entries := make([]*entry, 0, len(byHex))
	for _, e := range byHex {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].n != entries[j].n {
			return entries[i].n > entries[j].n
		}
		return entries[i].color.Hex < entries[j].color.Hex
	})

	if len(entries) > count {
		entries = entries[:count]
	}
	out := make([]PaletteColor, len(entries))
	for i, e := range entries {
		out[i] = e.color
	}
	return out, nil
}
