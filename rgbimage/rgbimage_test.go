package rgbimage

import (
	"bytes"
	"encoding/binary"
	"image/png"
	"math"
	"strings"
	"testing"

	"lumen/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestClampAndGammaIdempotent(t *testing.T) {
	im := NewImage(1, 4)
	im.Pixels = []vec3.T{
		{-0.5, 0, 0.25},
		{0.5, 1, 2},
		{math.NaN(), 0.81, 0.9999},
		{0.04, 0.16, 0.64},
	}

	im.Clamp(0, DevelopClampHi)
	once := im.Copy()
	im.Clamp(0, DevelopClampHi)
	if diff := cmp.Diff(im, once); diff != "" {
		t.Errorf("Clamp is not idempotent; diff (-twice +once)\n%s", diff)
	}

	im.GammaCorrect(2)
	once = im.Copy()
	im.GammaCorrect(2)
	if diff := cmp.Diff(im, once); diff != "" {
		t.Errorf("GammaCorrect is not idempotent; diff (-twice +once)\n%s", diff)
	}

	want := []vec3.T{
		{0, 0, 0.5},
		{math.Sqrt(0.5), math.Sqrt(DevelopClampHi), math.Sqrt(DevelopClampHi)},
		{0, 0.9, math.Sqrt(0.9999)},
		{0.2, 0.4, 0.8},
	}
	if diff := cmp.Diff(im.Pixels, want, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Bad corrected pixels; diff (-got +want)\n%s", diff)
	}
}

func TestGammaChange(t *testing.T) {
	im := NewImage(1, 1)
	im.Pixels[0] = vec3.T{0.25, 0.5, 0.125}
	im.GammaCorrect(2)
	im.GammaCorrect(3)

	want := vec3.Pow(vec3.T{0.25, 0.5, 0.125}, 1.0/3.0)
	if diff := cmp.Diff(im.Pixels[0], want, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Switching gamma did not undo the first correction; diff (-got +want)\n%s", diff)
	}
}

func TestAccumulationDevelop(t *testing.T) {
	acc := NewAccumulation(2, 2)

	if got := acc.Develop(2); got.Pixels[0] != (vec3.T{}) {
		t.Errorf("Empty accumulation should develop to black, got %v", got.Pixels[0])
	}

	for _, v := range []float64{0.1, 0.3, 0.5, 0.7} {
		frame := NewImage(2, 2)
		for i := range frame.Pixels {
			frame.Pixels[i] = vec3.T{v, 2 * v, 4 * v}
		}
		if err := acc.AddFrame(frame); err != nil {
			t.Fatalf("Unexpected error from AddFrame: %v", err)
		}
	}
	if acc.Samples != 4 {
		t.Fatalf("Got %d samples, want 4", acc.Samples)
	}

	got := acc.Develop(2)
	want := vec3.T{math.Sqrt(0.4), math.Sqrt(0.8), math.Sqrt(DevelopClampHi)}
	for _, p := range got.Pixels {
		if diff := cmp.Diff(p, want, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
			t.Fatalf("Bad developed pixel; diff (-got +want)\n%s", diff)
		}
	}

	// Developing must not disturb the sums.
	if diff := cmp.Diff(acc.Sums.Pixels[3], vec3.T{1.6, 3.2, 6.4}, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Develop modified the sums; diff (-got +want)\n%s", diff)
	}

	if err := acc.AddFrame(NewImage(3, 2)); err == nil {
		t.Errorf("AddFrame accepted a frame of the wrong size")
	}
}

func TestAccumulationCodec(t *testing.T) {
	acc := NewAccumulation(3, 5)
	for i := range acc.Sums.Pixels {
		acc.Sums.Pixels[i] = vec3.T{float64(i), float64(i) * 0.5, -float64(i)}
	}
	acc.Samples = 17

	buf := &bytes.Buffer{}
	if err := WriteAccumulation(acc, buf); err != nil {
		t.Fatalf("Unexpected error from WriteAccumulation: %v", err)
	}

	got, err := ReadAccumulation(buf)
	if err != nil {
		t.Fatalf("Unexpected error from ReadAccumulation: %v", err)
	}

	if diff := cmp.Diff(got, acc); diff != "" {
		t.Errorf("Accumulation changed across the codec; diff (-got +want)\n%s", diff)
	}
}

// encodeHeader builds an accumulation stream with the given header fields and
// no pixel data.
func encodeHeader(t *testing.T, fields map[string]interface{}) []byte {
	t.Helper()
	hdr, err := structpb.NewStruct(fields)
	if err != nil {
		t.Fatalf("Unexpected error from NewStruct: %v", err)
	}
	hdrBytes, err := proto.Marshal(hdr)
	if err != nil {
		t.Fatalf("Unexpected error from Marshal: %v", err)
	}
	out := make([]byte, 8, 8+len(hdrBytes))
	binary.LittleEndian.PutUint64(out, uint64(len(hdrBytes)))
	return append(out, hdrBytes...)
}

func TestReadAccumulationRejectsGarbage(t *testing.T) {
	header := func(rows, cols float64) []byte {
		return encodeHeader(t, map[string]interface{}{
			"layout_version": accumulationLayoutVersion,
			"rows":           rows,
			"cols":           cols,
			"samples":        1,
		})
	}

	testCases := []struct {
		name  string
		input []byte
	}{
		{"empty", nil},
		{"short header", []byte{10, 0, 0, 0, 0, 0, 0, 0, 1, 2}},
		{"huge header", []byte{0, 0, 0, 0, 0, 0, 0, 1}},
		{"negative rows", header(-1, 4)},
		{"fractional cols", header(4, 2.5)},
		{"huge rows and cols", header(1e10, 1e10)},
		{"rows beyond int", header(1e30, 1)},
		{"product overflows", header(1<<62, 4)},
		{"too many pixels", header(1<<20, 1<<20)},
		{"no pixel data", header(2, 2)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ReadAccumulation(bytes.NewReader(tc.input)); err == nil {
				t.Errorf("ReadAccumulation accepted bad input")
			}
		})
	}
}

func TestWritePPM(t *testing.T) {
	im := NewImage(2, 2)
	im.Pixels = []vec3.T{
		{0, 0, 0}, {1, 1, 1},
		{0.5, 0.25, DevelopClampHi}, {-1, 2, 0.999},
	}

	buf := &strings.Builder{}
	if err := WritePPM(buf, im); err != nil {
		t.Fatalf("Unexpected error from WritePPM: %v", err)
	}

	want := "P3\n2 2\n255\n" +
		"0 0 0\n" +
		"255 255 255\n" +
		"127 63 255\n" +
		"0 255 255\n"
	if diff := cmp.Diff(buf.String(), want); diff != "" {
		t.Errorf("Bad PPM output; diff (-got +want)\n%s", diff)
	}
}

func TestWritePNG(t *testing.T) {
	im := NewImage(2, 3)
	im.Set(1, 2, vec3.T{0.5, 0, 1})

	buf := &bytes.Buffer{}
	if err := WritePNG(buf, im); err != nil {
		t.Fatalf("Unexpected error from WritePNG: %v", err)
	}

	decoded, err := png.Decode(buf)
	if err != nil {
		t.Fatalf("Could not decode PNG: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Fatalf("Decoded PNG is %dx%d, want 3x2", b.Dx(), b.Dy())
	}
	r, g, b, _ := decoded.At(2, 1).RGBA()
	if r>>8 != 127 || g>>8 != 0 || b>>8 != 255 {
		t.Errorf("Bad pixel (2,1): got %d %d %d", r>>8, g>>8, b>>8)
	}
}
