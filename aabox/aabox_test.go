package aabox

import (
	"math"
	"math/rand"
	"testing"

	"lumen/ray"
	"lumen/vmath/vec3"

	"github.com/google/go-cmp/cmp"
)

var unitBox = FromCorners(vec3.T{-1, -1, -1}, vec3.T{1, 1, 1})

func TestHitBasic(t *testing.T) {
	testCases := []struct {
		desc string
		r    ray.Ray
		s    ray.Span
		want bool
	}{
		{
			desc: "straight through",
			r:    ray.Ray{Point: vec3.T{0, 0, -5}, Slope: vec3.T{0, 0, 1}},
			s:    ray.Forward(0),
			want: true,
		},
		{
			desc: "pointing away",
			r:    ray.Ray{Point: vec3.T{0, 0, -5}, Slope: vec3.T{0, 0, -1}},
			s:    ray.Forward(0),
			want: false,
		},
		{
			desc: "negative direction",
			r:    ray.Ray{Point: vec3.T{0, 0, 5}, Slope: vec3.T{0, 0, -1}},
			s:    ray.Forward(0),
			want: true,
		},
		{
			desc: "passes beside",
			r:    ray.Ray{Point: vec3.T{2, 0, -5}, Slope: vec3.T{0, 0, 1}},
			s:    ray.Forward(0),
			want: false,
		},
		{
			desc: "span ends before box",
			r:    ray.Ray{Point: vec3.T{0, 0, -5}, Slope: vec3.T{0, 0, 1}},
			s:    ray.Span{Lo: 0, Hi: 3},
			want: false,
		},
		{
			desc: "diagonal",
			r:    ray.Ray{Point: vec3.T{-5, -5, -5}, Slope: vec3.T{1, 1, 1}},
			s:    ray.Forward(0.001),
			want: true,
		},
		{
			desc: "origin inside",
			r:    ray.Ray{Point: vec3.T{0.5, 0.5, 0.5}, Slope: vec3.T{0.3, -0.2, 1}},
			s:    ray.Forward(0.001),
			want: true,
		},
		{
			desc: "origin on slab plane with zero slope",
			r:    ray.Ray{Point: vec3.T{1, 0, -5}, Slope: vec3.T{0, 0, 1}},
			s:    ray.Forward(0),
			want: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			if got := unitBox.Hit(tc.r, tc.s); got != tc.want {
				t.Errorf("Bad slab test result; got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHitNegationSymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(12345))
	for i := 0; i < 5000; i++ {
		box := MinContainingAABox(
			FromCorners(vec3.RandomRange(-3, 3, rng), vec3.RandomRange(-3, 3, rng)),
			FromCorners(vec3.RandomRange(-3, 3, rng), vec3.RandomRange(-3, 3, rng)),
		)

		r := ray.Ray{
			Point: vec3.RandomRange(-6, 6, rng),
			Slope: vec3.RandomRange(-1, 1, rng),
		}
		lo := -10 * rng.Float64()
		hi := 10 * rng.Float64()

		flipped := ray.Ray{Point: r.Point, Slope: vec3.Neg(r.Slope)}

		got := box.Hit(r, ray.Span{Lo: lo, Hi: hi})
		gotFlipped := box.Hit(flipped, ray.Span{Lo: -hi, Hi: -lo})
		if got != gotFlipped {
			t.Fatalf("Slab test not symmetric under negation for box %+v ray %+v span [%v, %v]: %v vs %v", box, r, lo, hi, got, gotFlipped)
		}
	}
}

func TestMinContainingAABoxIsUnion(t *testing.T) {
	a := FromCorners(vec3.T{0, 0, 0}, vec3.T{1, 1, 1})
	b := FromCorners(vec3.T{2, -1, 0.5}, vec3.T{3, 0.5, 4})

	got := MinContainingAABox(a, b)
	want := FromCorners(vec3.T{0, -1, 0}, vec3.T{3, 1, 4})
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Bad union; diff (-got +want)\n%s", diff)
	}
	if !got.Contains(a) || !got.Contains(b) {
		t.Errorf("Union %+v does not contain its inputs", got)
	}

	if diff := cmp.Diff(MinContainingAABox(AccumZeroAABox(), a), a); diff != "" {
		t.Errorf("AccumZeroAABox is not the identity; diff (-got +want)\n%s", diff)
	}
}

func TestFromCornersOrder(t *testing.T) {
	a := vec3.T{1, -2, 3}
	b := vec3.T{-1, 2, 0}
	want := AABox{
		X: ray.Span{Lo: -1, Hi: 1},
		Y: ray.Span{Lo: -2, Hi: 2},
		Z: ray.Span{Lo: 0, Hi: 3},
	}
	for _, got := range []AABox{FromCorners(a, b), FromCorners(b, a)} {
		if diff := cmp.Diff(got, want); diff != "" {
			t.Errorf("Bad box from corners; diff (-got +want)\n%s", diff)
		}
	}
}

func TestMeasures(t *testing.T) {
	b := FromCorners(vec3.T{0, 0, 0}, vec3.T{1, 2, 3})
	if got := b.SurfaceArea(); got != 22 {
		t.Errorf("Bad surface area; got %v, want 22", got)
	}
	if got := b.CentroidKey(2); got != 3 {
		t.Errorf("Bad centroid key; got %v, want 3", got)
	}
	if !b.IsFinite() || AccumZeroAABox().IsFinite() {
		t.Errorf("Bad finiteness")
	}
	if math.IsNaN(b.Max()[1]) || b.Max()[1] != 2 {
		t.Errorf("Bad max corner %v", b.Max())
	}
}
