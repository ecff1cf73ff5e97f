package rgbimage

import (
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// DevelopClampHi keeps developed channels strictly below 1 so that they
// quantize to at most 255.
const DevelopClampHi = 0.9999

const accumulationLayoutVersion = 1

// Accumulation is the running per-pixel sum of a render's sample frames.
type Accumulation struct {
	Sums    *Image
	Samples int
}

func NewAccumulation(rowSize, colSize int) *Accumulation {
	return &Accumulation{
		Sums: NewImage(rowSize, colSize),
	}
}

// AddFrame adds one full-frame sample.
func (a *Accumulation) AddFrame(frame *Image) error {
	if err := a.Sums.Add(frame); err != nil {
		return fmt.Errorf("while adding frame: %w", err)
	}
	a.Samples++
	return nil
}

// Merge folds b's samples into a.
func (a *Accumulation) Merge(b *Accumulation) error {
	if err := a.Sums.Add(b.Sums); err != nil {
		return fmt.Errorf("while merging accumulations: %w", err)
	}
	a.Samples += b.Samples
	return nil
}

// Develop averages the samples, clamps to [0, DevelopClampHi] and applies
// gamma.  An accumulation with no samples develops to black.
func (a *Accumulation) Develop(gamma float64) *Image {
	im := a.Sums.Copy()
	if a.Samples == 0 {
		im.Scale(0)
	} else {
		im.Scale(1.0 / float64(a.Samples))
	}
	im.Clamp(0, DevelopClampHi)
	im.GammaCorrect(gamma)
	return im
}

// WriteAccumulation writes a as an 8-byte little-endian header length, a
// protobuf Struct header, and then the zlib-compressed little-endian pixel
// sums.
func WriteAccumulation(a *Accumulation, w io.Writer) error {
	hdr, err := structpb.NewStruct(map[string]interface{}{
		"layout_version": accumulationLayoutVersion,
		"rows":           a.Sums.RowSize,
		"cols":           a.Sums.ColSize,
		"samples":        a.Samples,
	})
	if err != nil {
		return fmt.Errorf("while building header: %w", err)
	}

	hdrBytes, err := proto.MarshalOptions{Deterministic: true}.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("while marshaling header: %w", err)
	}

	headerLengthBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(headerLengthBytes, uint64(len(hdrBytes)))
	if _, err := w.Write(headerLengthBytes); err != nil {
		return fmt.Errorf("while writing header length: %w", err)
	}

	if _, err := w.Write(hdrBytes); err != nil {
		return fmt.Errorf("while writing header: %w", err)
	}

	zipWriter := zlib.NewWriter(w)

	if err := binary.Write(zipWriter, binary.LittleEndian, a.Sums.Pixels); err != nil {
		return fmt.Errorf("while writing pixel sums: %w", err)
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("while closing zip writer: %w", err)
	}

	return nil
}

// Bounds on allocations driven by untrusted input.
const (
	maxHeaderLength = 1 << 20
	maxPixels       = 1 << 26
)

func ReadAccumulation(in io.Reader) (*Accumulation, error) {
	var headerLength uint64
	if err := binary.Read(in, binary.LittleEndian, &headerLength); err != nil {
		return nil, fmt.Errorf("while reading header length: %w", err)
	}
	if headerLength > maxHeaderLength {
		return nil, fmt.Errorf("header length %d is implausibly large", headerLength)
	}

	headerBytes := make([]byte, int(headerLength))
	if _, err := io.ReadFull(in, headerBytes); err != nil {
		return nil, fmt.Errorf("while reading header bytes: %w", err)
	}

	hdr := &structpb.Struct{}
	if err := proto.Unmarshal(headerBytes, hdr); err != nil {
		return nil, fmt.Errorf("while unmarshaling header: %w", err)
	}

	fields := hdr.GetFields()
	intField := func(name string) (int, error) {
		v, ok := fields[name]
		if !ok {
			return 0, fmt.Errorf("header is missing %q", name)
		}
		n := v.GetNumberValue()
		if n < 0 || n > math.MaxInt32 || n != math.Trunc(n) {
			return 0, fmt.Errorf("header field %q has bad value %v", name, n)
		}
		return int(n), nil
	}

	version, err := intField("layout_version")
	if err != nil {
		return nil, err
	}
	if version != accumulationLayoutVersion {
		return nil, fmt.Errorf("bad data layout version: %v", version)
	}

	rows, err := intField("rows")
	if err != nil {
		return nil, err
	}
	cols, err := intField("cols")
	if err != nil {
		return nil, err
	}
	samples, err := intField("samples")
	if err != nil {
		return nil, err
	}

	if rows != 0 && cols > maxPixels/rows {
		return nil, fmt.Errorf("image of %dx%d pixels is too large", rows, cols)
	}

	a := NewAccumulation(rows, cols)
	a.Samples = samples

	zipReader, err := zlib.NewReader(in)
	if err != nil {
		return nil, fmt.Errorf("while opening zip reader: %w", err)
	}
	defer zipReader.Close()

	if err := binary.Read(zipReader, binary.LittleEndian, a.Sums.Pixels); err != nil {
		return nil, fmt.Errorf("while reading pixel sums: %w", err)
	}

	return a, nil
}

func ReadAccumulationFromFile(name string) (*Accumulation, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("while opening file: %w", err)
	}
	defer f.Close()

	return ReadAccumulation(f)
}
