package ray

import (
	"math"

	"lumen/vmath/vec3"
)

// Span is a closed parametric interval [Lo, Hi] along a ray.
type Span struct {
	Lo, Hi float64
}

// Forward is the span [lo, +inf).
func Forward(lo float64) Span {
	return Span{lo, math.Inf(1)}
}

func MinContainingSpan(a, b Span) Span {
	min := a.Lo
	if b.Lo < a.Lo {
		min = b.Lo
	}

	max := a.Hi
	if b.Hi > a.Hi {
		max = b.Hi
	}

	return Span{min, max}
}

func (s Span) Contains(t float64) bool {
	return s.Lo <= t && t <= s.Hi
}

func (s Span) IsFinite() bool {
	return !math.IsInf(s.Lo, 0) && !math.IsInf(s.Hi, 0)
}

// Ray is a half-line.  Slope is not required to be unit length.
type Ray struct {
	Point vec3.T
	Slope vec3.T
}

func (r Ray) Eval(t float64) vec3.T {
	return vec3.T{
		r.Point[0] + t*r.Slope[0],
		r.Point[1] + t*r.Slope[1],
		r.Point[2] + t*r.Slope[2],
	}
}
