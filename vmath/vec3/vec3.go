// Package vec3 is the 3-vector algebra shared by every other package.  Points
// and linear RGB colors are represented with the same type.
package vec3

import (
	"math"
	"math/rand"
)

type T [3]float64

func (v T) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func (v T) NormSquared() float64 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

// NearZero reports whether every component is within 1e-8 of zero.
func (v T) NearZero() bool {
	const thresh = 1e-8
	return math.Abs(v[0]) < thresh && math.Abs(v[1]) < thresh && math.Abs(v[2]) < thresh
}

func Normalize(v T) T {
	l := v.Norm()
	return T{
		v[0] / l,
		v[1] / l,
		v[2] / l,
	}
}

func AddVV(a, b T) T {
	return T{
		a[0] + b[0],
		a[1] + b[1],
		a[2] + b[2],
	}
}

func SubVV(a, b T) T {
	return T{
		a[0] - b[0],
		a[1] - b[1],
		a[2] - b[2],
	}
}

// MulVV is the component-wise (Hadamard) product.  Attenuation colors compose
// with it.
func MulVV(a, b T) T {
	return T{
		a[0] * b[0],
		a[1] * b[1],
		a[2] * b[2],
	}
}

func MulVS(a T, b float64) T {
	return T{
		a[0] * b,
		a[1] * b,
		a[2] * b,
	}
}

func DivVS(a T, b float64) T {
	return T{
		a[0] / b,
		a[1] / b,
		a[2] / b,
	}
}

func Neg(a T) T {
	return T{-a[0], -a[1], -a[2]}
}

func IProd(a, b T) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func CProd(a, b T) T {
	return T{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func MinVV(a, b T) T {
	return T{
		math.Min(a[0], b[0]),
		math.Min(a[1], b[1]),
		math.Min(a[2], b[2]),
	}
}

func MaxVV(a, b T) T {
	return T{
		math.Max(a[0], b[0]),
		math.Max(a[1], b[1]),
		math.Max(a[2], b[2]),
	}
}

// Lerp returns (1-t)*a + t*b.
func Lerp(t float64, a, b T) T {
	return AddVV(MulVS(a, 1-t), MulVS(b, t))
}

// Clamp limits every component to [lo, hi].
func Clamp(v T, lo, hi float64) T {
	result := v
	for i := range result {
		if result[i] < lo {
			result[i] = lo
		}
		if result[i] > hi {
			result[i] = hi
		}
	}
	return result
}

// Pow raises every component to p.
func Pow(v T, p float64) T {
	return T{
		math.Pow(v[0], p),
		math.Pow(v[1], p),
		math.Pow(v[2], p),
	}
}

func Reflect(a, n T) T {
	return SubVV(a, MulVS(n, 2*IProd(a, n)))
}

// Refract bends the unit vector uv through a surface with unit normal n.
// etaRatio is the ratio of the incident index to the transmitted index.  The
// caller is responsible for ruling out total internal reflection.
func Refract(uv, n T, etaRatio float64) T {
	cosTheta := math.Min(IProd(Neg(uv), n), 1.0)
	perp := MulVS(AddVV(uv, MulVS(n, cosTheta)), etaRatio)
	parallel := MulVS(n, -math.Sqrt(math.Abs(1.0-perp.NormSquared())))
	return AddVV(perp, parallel)
}

// RandomRange returns a vector with each component uniform in [lo, hi).
func RandomRange(lo, hi float64, rng *rand.Rand) T {
	return T{
		lo + (hi-lo)*rng.Float64(),
		lo + (hi-lo)*rng.Float64(),
		lo + (hi-lo)*rng.Float64(),
	}
}

// RandomInUnitSphere rejection-samples a point strictly inside the unit ball.
func RandomInUnitSphere(rng *rand.Rand) T {
	for {
		p := RandomRange(-1, 1, rng)
		if p.NormSquared() < 1.0 {
			return p
		}
	}
}

// RandomInUnitDisk rejection-samples a point inside the unit disk in the z=0
// plane.
func RandomInUnitDisk(rng *rand.Rand) T {
	for {
		p := T{2*rng.Float64() - 1, 2*rng.Float64() - 1, 0}
		if p.NormSquared() < 1.0 {
			return p
		}
	}
}

func UniformUnitDistribution(rng *rand.Rand) T {
	result := T{}
	for {
		result[0] = 2 * (rng.Float64() - 0.5)
		result[1] = 2 * (rng.Float64() - 0.5)
		result[2] = 2 * (rng.Float64() - 0.5)
		normSquared := result[0]*result[0] + result[1]*result[1] + result[2]*result[2]
		if normSquared <= 1.0 && normSquared != 0.0 {
			break
		}
	}
	return Normalize(result)
}
