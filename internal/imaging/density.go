package imaging

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"math"
)

// Density is the print resolution of an image in pixels per inch.
type Density struct {
	X float64 `json:"width"`
	Y float64 `json:"height"`
}

// IsZero reports whether no density is recorded.
func (d Density) IsZero() bool {
	return d.X == 0 && d.Y == 0
}

const inchesPerMeter = 39.3700787

var (
	pngSignature = []byte("\x89PNG\r\n\x1a\n")
	jfifMarker   = []byte("JFIF\x00")
)

// ReadDensity extracts the resolution stored in a PNG pHYs chunk or a JPEG
// JFIF header. Other formats report a zero Density.
func ReadDensity(data []byte) Density {
	switch {
	case bytes.HasPrefix(data, pngSignature):
		return readPNGDensity(data)
	case len(data) > 4 && data[0] == 0xFF && data[1] == 0xD8:
		return readJFIFDensity(data)
	}
	return Density{}
}

func readPNGDensity(data []byte) Density {
	pos := len(pngSignature)
	for pos+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos:]))
		kind := string(data[pos+4 : pos+8])
		body := pos + 8
		if length < 0 || body+length > len(data) {
			break
		}
		switch kind {
		case "pHYs":
			if length < 9 || data[body+8] != 1 {
				return Density{}
			}
			x := float64(binary.BigEndian.Uint32(data[body:]))
			y := float64(binary.BigEndian.Uint32(data[body+4:]))
			return Density{X: roundDensity(x / inchesPerMeter), Y: roundDensity(y / inchesPerMeter)}
		case "IDAT", "IEND":
			return Density{}
		}
		pos = body + length + 4
	}
	return Density{}
}

func readJFIFDensity(data []byte) Density {
	// APP0 must directly follow SOI: FFE0 len "JFIF\0" ver(2) unit x(2) y(2)
	if len(data) < 18 || data[2] != 0xFF || data[3] != 0xE0 {
		return Density{}
	}
	if !bytes.Equal(data[6:11], jfifMarker) {
		return Density{}
	}
	unit := data[13]
	x := float64(binary.BigEndian.Uint16(data[14:]))
	y := float64(binary.BigEndian.Uint16(data[16:]))
	switch unit {
	case 1:
		return Density{X: x, Y: y}
	case 2:
		return Density{X: roundDensity(x * 2.54), Y: roundDensity(y * 2.54)}
	}
	return Density{}
}

func roundDensity(v float64) float64 {
	return math.Round(v*10) / 10
}

// WithDensity stamps a resolution into encoded PNG or JPEG data. Other
// formats, and a zero density, are returned unchanged.
func WithDensity(data []byte, format Format, d Density) []byte {
	if d.IsZero() {
		return data
	}
	if d.Y == 0 {
		d.Y = d.X
	}
	if d.X == 0 {
		d.X = d.Y
	}

	switch format {
	case FormatPNG:
		return insertPNGDensity(data, d)
	case FormatJPEG:
		return insertJFIFDensity(data, d)
	}
	return data
}

// insertPNGDensity adds a pHYs chunk right after IHDR.
func insertPNGDensity(data []byte, d Density) []byte {
	const ihdrEnd = 8 + 4 + 4 + 13 + 4
	if len(data) < ihdrEnd || !bytes.HasPrefix(data, pngSignature) {
		return data
	}

	chunk := make([]byte, 4+4+9+4)
	binary.BigEndian.PutUint32(chunk[0:], 9)
	copy(chunk[4:], "pHYs")
	binary.BigEndian.PutUint32(chunk[8:], uint32(math.Round(d.X*inchesPerMeter)))
	binary.BigEndian.PutUint32(chunk[12:], uint32(math.Round(d.Y*inchesPerMeter)))
	chunk[16] = 1
	binary.BigEndian.PutUint32(chunk[17:], crc32.ChecksumIEEE(chunk[4:17]))

	out := make([]byte, 0, len(data)+len(chunk))
	out = append(out, data[:ihdrEnd]...)
	out = append(out, chunk...)
	return append(out, data[ihdrEnd:]...)
}

// insertJFIFDensity adds a JFIF APP0 segment after SOI. The standard
// library encoder writes none, so there is never one to replace.
func insertJFIFDensity(data []byte, d Density) []byte {
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		return data
	}
	if len(data) >= 4 && data[2] == 0xFF && data[3] == 0xE0 {
		return data
	}

	seg := make([]byte, 18)
	seg[0], seg[1] = 0xFF, 0xE0
	binary.BigEndian.PutUint16(seg[2:], 16)
	copy(seg[4:], jfifMarker)
	seg[9], seg[10] = 1, 1
	seg[11] = 1
	binary.BigEndian.PutUint16(seg[12:], uint16(clampDensity(d.X)))
	binary.BigEndian.PutUint16(seg[14:], uint16(clampDensity(d.Y)))

	out := make([]byte, 0, len(data)+len(seg))
	out = append(out, data[:2]...)
	out = append(out, seg...)
	return append(out, data[2:]...)
}

func clampDensity(v float64) float64 {
	return math.Max(1, math.Min(math.Round(v), math.MaxUint16))
}
