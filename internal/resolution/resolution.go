// Package resolution derives the per-frame bit capacity and chooses the
// rectangular frame shape that carries it.
package resolution

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidCapacity reports a capacity with no positive divisor pair.
var ErrInvalidCapacity = errors.New("invalid capacity")

// Orientation selects how divisor pairs are presented.
type Orientation int

const (
	// Default keeps the natural ordering (narrow and tall first).
	Default Orientation = iota
	// Vertical is identical to Default.
	Vertical
	// Horizontal swaps every pair so frames are wide and short.
	Horizontal
)

// String returns the config spelling of the orientation.
func (o Orientation) String() string {
	switch o {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return "default"
	}
}

// ParseOrientation accepts "h", "horizontal", "v" and "vertical". Anything
// else maps to Default.
func ParseOrientation(value string) Orientation {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "h", "horizontal":
		return Horizontal
	case "v", "vertical":
		return Vertical
	default:
		return Default
	}
}

// Resolution is a frame shape measured in grid cells.
type Resolution struct {
	Width  int `toml:"width" json:"width"`
	Height int `toml:"height" json:"height"`
}

// Capacity reports Width*Height.
func (r Resolution) Capacity() int {
	return r.Width * r.Height
}

// Scaled returns the pixel dimensions after upscaling by factor.
func (r Resolution) Scaled(factor int) Resolution {
	return Resolution{Width: r.Width * factor, Height: r.Height * factor}
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Capacity derives the number of bits one frame must carry for a payload
// bitrate (bits per second) and frame duration.
func Capacity(bitrate, frameDurationMs int) int {
	if bitrate <= 0 || frameDurationMs <= 0 {
		return 0
	}
	return int(int64(bitrate) * int64(frameDurationMs) / 1000)
}

// Candidates enumerates every (w, h) with w*h == capacity and
// w <= floor(sqrt(capacity)), ordered by increasing w. Horizontal swaps each
// pair.
func Candidates(capacity int, orientation Orientation) ([]Resolution, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	limit := isqrt(capacity)
	out := make([]Resolution, 0, 8)
	for w := 1; w <= limit; w++ {
		if capacity%w != 0 {
			continue
		}
		res := Resolution{Width: w, Height: capacity / w}
		if orientation == Horizontal {
			res.Width, res.Height = res.Height, res.Width
		}
		out = append(out, res)
	}
	return out, nil
}

// Plan selects the resolution for a run. choice is 1-indexed into
// Candidates; an out-of-range choice (including zero) selects the first
// candidate.
func Plan(capacity int, orientation Orientation, choice int) (Resolution, error) {
	candidates, err := Candidates(capacity, orientation)
	if err != nil {
		return Resolution{}, err
	}
	if choice >= 1 && choice <= len(candidates) {
		return candidates[choice-1], nil
	}
	return candidates[0], nil
}

func isqrt(n int) int {
	r := int(math.Sqrt(float64(n)))
	for r*r > n {
		r--
	}
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}
