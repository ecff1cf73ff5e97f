// Package rgbimage holds linear RGB frame buffers and the accumulations that
// renders add samples into.
package rgbimage

import (
	"fmt"
	"math"

	"lumen/vmath/vec3"
)

// Image is a row-major RGB raster.  Row 0 is the top row.
type Image struct {
	RowSize, ColSize int
	Pixels           []vec3.T

	// The gamma most recently applied by GammaCorrect, or 0 if the pixels are
	// still linear.
	Gamma float64
}

func NewImage(rowSize, colSize int) *Image {
	im := &Image{}
	im.Resize(rowSize, colSize)
	return im
}

func (im *Image) Resize(rowSize, colSize int) {
	im.RowSize = rowSize
	im.ColSize = colSize
	im.Pixels = make([]vec3.T, rowSize*colSize)
	im.Gamma = 0
}

func (im *Image) At(r, c int) vec3.T {
	return im.Pixels[r*im.ColSize+c]
}

func (im *Image) Set(r, c int, v vec3.T) {
	im.Pixels[r*im.ColSize+c] = v
}

// Add sums src into im pixel by pixel.
func (im *Image) Add(src *Image) error {
	if src.RowSize != im.RowSize || src.ColSize != im.ColSize {
		return fmt.Errorf("image size mismatch: %dx%d vs %dx%d", im.RowSize, im.ColSize, src.RowSize, src.ColSize)
	}
	for i := range im.Pixels {
		im.Pixels[i] = vec3.AddVV(im.Pixels[i], src.Pixels[i])
	}
	return nil
}

func (im *Image) Scale(k float64) {
	for i := range im.Pixels {
		im.Pixels[i] = vec3.MulVS(im.Pixels[i], k)
	}
}

// Clamp limits every channel to [lo, hi].  NaN channels become lo.
func (im *Image) Clamp(lo, hi float64) {
	for i := range im.Pixels {
		p := vec3.Clamp(im.Pixels[i], lo, hi)
		for ch := range p {
			if math.IsNaN(p[ch]) {
				p[ch] = lo
			}
		}
		im.Pixels[i] = p
	}
}

// GammaCorrect raises every channel to 1/gamma.  Correcting twice with the
// same gamma is a no-op; correcting with a different gamma first undoes the
// previous correction.
func (im *Image) GammaCorrect(gamma float64) {
	if im.Gamma == gamma {
		return
	}

	exp := 1.0 / gamma
	if im.Gamma != 0 {
		exp = im.Gamma / gamma
	}
	for i := range im.Pixels {
		im.Pixels[i] = vec3.Pow(im.Pixels[i], exp)
	}
	im.Gamma = gamma
}

// Copy returns a deep copy of im.
func (im *Image) Copy() *Image {
	dst := &Image{
		RowSize: im.RowSize,
		ColSize: im.ColSize,
		Pixels:  make([]vec3.T, len(im.Pixels)),
		Gamma:   im.Gamma,
	}
	copy(dst.Pixels, im.Pixels)
	return dst
}
