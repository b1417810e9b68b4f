package bitgrid

import "fmt"

// Grid is a row-major matrix of frame bits.
type Grid struct {
	Width  int
	Height int
	Bits   []bool
}

// BytesToBits expands buf into individual bits, most significant bit first.
func BytesToBits(buf []byte) []bool {
	bits := make([]bool, len(buf)*8)
	for i, b := range buf {
		for j := 0; j < 8; j++ {
			bits[i*8+j] = b&(0x80>>j) != 0
		}
	}
	return bits
}

// BitsToBytes packs bits into bytes, most significant bit first. A trailing
// partial byte is padded with zero bits on the low end.
func BitsToBytes(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, bit := range bits {
		if bit {
			out[i/8] |= 0x80 >> (i % 8)
		}
	}
	return out
}

// FitToCapacity returns a copy of bits with exactly capacity entries,
// zero-padding or truncating on the right. A non-positive capacity yields an
// empty slice.
func FitToCapacity(bits []bool, capacity int) []bool {
	if capacity <= 0 {
		return []bool{}
	}
	out := make([]bool, capacity)
	copy(out, bits)
	return out
}

// New builds a width x height grid from payload. The payload is padded or
// truncated to fit.
func New(payload []byte, width, height int) (Grid, error) {
	if width <= 0 || height <= 0 {
		return Grid{}, fmt.Errorf("bitgrid: invalid dimensions %dx%d", width, height)
	}
	return Grid{
		Width:  width,
		Height: height,
		Bits:   FitToCapacity(BytesToBits(payload), width*height),
	}, nil
}

// Capacity reports the number of bits the grid carries.
func (g Grid) Capacity() int {
	return g.Width * g.Height
}

// At reports the bit at column x, row y.
func (g Grid) At(x, y int) bool {
	return g.Bits[y*g.Width+x]
}

// Bytes packs the grid back into bytes. The result has ceil(capacity/8)
// bytes.
func (g Grid) Bytes() []byte {
	return BitsToBytes(g.Bits)
}

// Equal reports whether two grids have the same shape and bits.
func (g Grid) Equal(other Grid) bool {
	if g.Width != other.Width || g.Height != other.Height || len(g.Bits) != len(other.Bits) {
		return false
	}
	for i := range g.Bits {
		if g.Bits[i] != other.Bits[i] {
			return false
		}
	}
	return true
}
