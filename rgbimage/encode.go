package rgbimage

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// quantize maps a channel in [0, 1) to [0, 255].
func quantize(c float64) uint8 {
	v := int(255.999 * c)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// WritePPM writes im as an ASCII (P3) PPM, one pixel per line, rows from top
// to bottom.
func WritePPM(w io.Writer, im *Image) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "P3\n%d %d\n255\n", im.ColSize, im.RowSize); err != nil {
		return fmt.Errorf("while writing PPM header: %w", err)
	}

	for _, p := range im.Pixels {
		if _, err := fmt.Fprintf(bw, "%d %d %d\n", quantize(p[0]), quantize(p[1]), quantize(p[2])); err != nil {
			return fmt.Errorf("while writing PPM pixel: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("while flushing PPM: %w", err)
	}
	return nil
}

// ToNRGBA quantizes im into a standard library image.
func ToNRGBA(im *Image) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, im.ColSize, im.RowSize))
	for r := 0; r < im.RowSize; r++ {
		for c := 0; c < im.ColSize; c++ {
			p := im.At(r, c)
			dst.SetNRGBA(c, r, color.NRGBA{
				R: quantize(p[0]),
				G: quantize(p[1]),
				B: quantize(p[2]),
				A: 255,
			})
		}
	}
	return dst
}

func WritePNG(w io.Writer, im *Image) error {
	if err := png.Encode(w, ToNRGBA(im)); err != nil {
		return fmt.Errorf("while encoding PNG: %w", err)
	}
	return nil
}

// WriteFile picks PNG or PPM from the extension of name.
func WriteFile(name string, im *Image) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("while creating output file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		err = WritePNG(f, im)
	default:
		err = WritePPM(f, im)
	}
	if err != nil {
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("while closing output file: %w", err)
	}
	return nil
}
