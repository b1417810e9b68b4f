// Package raster maps frame bit grids to RGB pixel rasters and back.
//
// Encoding replicates every grid cell into a scale x scale block of pure
// white (true) or black (false) pixels across all three channels. Decoding
// decimates a raster to the grid shape with nearest-neighbor sampling,
// converts each sample to luma and thresholds it. The pair round-trips
// exactly over a lossless channel; it makes no attempt to survive lossy
// video compression.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"vidbits/internal/bitgrid"
)

// DefaultThreshold is the luma value a sample must exceed to read as a set
// bit (127 of 255).
const DefaultThreshold = 127

const (
	on  = 255
	off = 0
)

// Raster is a packed RGB24 image. Pix holds Width*Height*3 bytes, row-major.
type Raster struct {
	Width  int
	Height int
	Pix    []byte
}

// New allocates a black raster.
func New(width, height int) *Raster {
	return &Raster{Width: width, Height: height, Pix: make([]byte, width*height*3)}
}

// FrameSize reports the number of bytes in one packed frame.
func FrameSize(width, height int) int {
	return width * height * 3
}

// ColorModel implements image.Image.
func (r *Raster) ColorModel() color.Model { return color.RGBAModel }

// Bounds implements image.Image.
func (r *Raster) Bounds() image.Rectangle { return image.Rect(0, 0, r.Width, r.Height) }

// At implements image.Image.
func (r *Raster) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= r.Width || y >= r.Height {
		return color.RGBA{}
	}
	i := (y*r.Width + x) * 3
	return color.RGBA{R: r.Pix[i], G: r.Pix[i+1], B: r.Pix[i+2], A: 0xff}
}

// Luma returns the BT.601 luma of the pixel at (x, y), rounded to the
// nearest integer.
func (r *Raster) Luma(x, y int) int {
	i := (y*r.Width + x) * 3
	return luma(uint32(r.Pix[i]), uint32(r.Pix[i+1]), uint32(r.Pix[i+2]))
}

// FromImage copies any image into a packed raster.
func FromImage(img image.Image) *Raster {
	if r, ok := img.(*Raster); ok {
		return r
	}
	b := img.Bounds()
	out := New(b.Dx(), b.Dy())
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			out.Pix[i] = uint8(cr >> 8)
			out.Pix[i+1] = uint8(cg >> 8)
			out.Pix[i+2] = uint8(cb >> 8)
			i += 3
		}
	}
	return out
}

// Rasterize expands grid into a (Width*scale) x (Height*scale) raster.
func Rasterize(grid bitgrid.Grid, scale int) (*Raster, error) {
	if scale < 1 {
		return nil, fmt.Errorf("rasterize: scale must be >= 1, got %d", scale)
	}
	if grid.Width <= 0 || grid.Height <= 0 || len(grid.Bits) != grid.Width*grid.Height {
		return nil, fmt.Errorf("rasterize: malformed grid %dx%d with %d bits", grid.Width, grid.Height, len(grid.Bits))
	}
	out := New(grid.Width*scale, grid.Height*scale)
	stride := out.Width * 3
	for gy := 0; gy < grid.Height; gy++ {
		row := out.Pix[gy*scale*stride : (gy*scale+1)*stride]
		for gx := 0; gx < grid.Width; gx++ {
			if !grid.At(gx, gy) {
				continue
			}
			start := gx * scale * 3
			for i := start; i < start+scale*3; i++ {
				row[i] = on
			}
		}
		// The first pixel row of each cell row is complete; replicate it.
		for k := 1; k < scale; k++ {
			copy(out.Pix[(gy*scale+k)*stride:(gy*scale+k+1)*stride], row)
		}
	}
	return out, nil
}

// Derasterize decimates img to width x height with nearest-neighbor sampling
// and thresholds the luma of each sample. A cell reads true when its luma is
// strictly greater than threshold.
func Derasterize(img image.Image, width, height, threshold int) (bitgrid.Grid, error) {
	if img == nil {
		return bitgrid.Grid{}, errors.New("derasterize: nil image")
	}
	if width <= 0 || height <= 0 {
		return bitgrid.Grid{}, fmt.Errorf("derasterize: invalid target %dx%d", width, height)
	}
	src := FromImage(img)
	if src.Width < width || src.Height < height {
		return bitgrid.Grid{}, fmt.Errorf("derasterize: source %dx%d smaller than target %dx%d", src.Width, src.Height, width, height)
	}
	grid := bitgrid.Grid{Width: width, Height: height, Bits: make([]bool, width*height)}
	for y := 0; y < height; y++ {
		sy := y * src.Height / height
		for x := 0; x < width; x++ {
			sx := x * src.Width / width
			grid.Bits[y*width+x] = src.Luma(sx, sy) > threshold
		}
	}
	return grid, nil
}

func luma(r, g, b uint32) int {
	return int((299*r + 587*g + 114*b + 500) / 1000)
}
