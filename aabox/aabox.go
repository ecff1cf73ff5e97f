package aabox

import (
	"math"

	"lumen/ray"
	"lumen/vmath/vec3"
)

// AABox is an axis-aligned box stored as one span per axis.  A well-formed
// box has Lo <= Hi on every axis.
type AABox struct {
	X, Y, Z ray.Span
}

// FromCorners builds the box spanning two opposite corners, given in either
// order.
func FromCorners(a, b vec3.T) AABox {
	min, max := vec3.MinVV(a, b), vec3.MaxVV(a, b)
	return AABox{
		X: ray.Span{Lo: min[0], Hi: max[0]},
		Y: ray.Span{Lo: min[1], Hi: max[1]},
		Z: ray.Span{Lo: min[2], Hi: max[2]},
	}
}

// AccumZeroAABox is the identity for MinContainingAABox.  It is inverted on
// every axis and must only be used as the seed of a fold.
func AccumZeroAABox() AABox {
	return AABox{
		X: ray.Span{Lo: math.Inf(1), Hi: math.Inf(-1)},
		Y: ray.Span{Lo: math.Inf(1), Hi: math.Inf(-1)},
		Z: ray.Span{Lo: math.Inf(1), Hi: math.Inf(-1)},
	}
}

// MinContainingAABox is the union of a and b.
func MinContainingAABox(a, b AABox) AABox {
	return AABox{
		X: ray.MinContainingSpan(a.X, b.X),
		Y: ray.MinContainingSpan(a.Y, b.Y),
		Z: ray.MinContainingSpan(a.Z, b.Z),
	}
}

func (a AABox) Min() vec3.T {
	return vec3.T{a.X.Lo, a.Y.Lo, a.Z.Lo}
}

func (a AABox) Max() vec3.T {
	return vec3.T{a.X.Hi, a.Y.Hi, a.Z.Hi}
}

// Axis returns the span for axis i (0, 1 or 2).
func (a AABox) Axis(i int) ray.Span {
	switch i {
	case 0:
		return a.X
	case 1:
		return a.Y
	default:
		return a.Z
	}
}

// CentroidKey is Lo+Hi on axis i: twice the centroid, which orders boxes the
// same way without the division.
func (a AABox) CentroidKey(i int) float64 {
	s := a.Axis(i)
	return s.Lo + s.Hi
}

// Contains reports whether b lies entirely inside a.
func (a AABox) Contains(b AABox) bool {
	for i := 0; i < 3; i++ {
		sa, sb := a.Axis(i), b.Axis(i)
		if sb.Lo < sa.Lo || sb.Hi > sa.Hi {
			return false
		}
	}
	return true
}

func (a AABox) IsFinite() bool {
	return a.X.IsFinite() && a.Y.IsFinite() && a.Z.IsFinite()
}

func (a AABox) SurfaceArea() float64 {
	xLen := a.X.Hi - a.X.Lo
	yLen := a.Y.Hi - a.Y.Lo
	zLen := a.Z.Hi - a.Z.Lo
	return 2 * (xLen*yLen + xLen*zLen + yLen*zLen)
}

// Hit is the slab test.  It narrows s axis by axis and gives up as soon as
// the interval is empty.
//
// A zero slope component produces an infinite reciprocal, which the
// comparisons below handle without a special case.  The comparisons are
// written so that a NaN bound (origin exactly on a slab plane with zero slope)
// leaves the interval unchanged.
func (a AABox) Hit(r ray.Ray, s ray.Span) bool {
	for i := 0; i < 3; i++ {
		axis := a.Axis(i)
		invD := 1.0 / r.Slope[i]
		t0 := (axis.Lo - r.Point[i]) * invD
		t1 := (axis.Hi - r.Point[i]) * invD
		if invD < 0.0 {
			t0, t1 = t1, t0
		}

		if t0 > s.Lo {
			s.Lo = t0
		}
		if t1 < s.Hi {
			s.Hi = t1
		}
		if s.Hi <= s.Lo {
			return false
		}
	}
	return true
}
