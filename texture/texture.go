// Package texture holds the albedo maps that Lambertian surfaces sample.
//
// A Map is a pure function of the surface coordinates, so one map may be
// shared by any number of materials and evaluated from any number of
// goroutines.
package texture

import (
	"math"

	"lumen/vmath/vec2"
	"lumen/vmath/vec3"
)

type Coords struct {
	UV vec2.T
	P  vec3.T
}

type Map func(Coords) vec3.T

func Solid(c vec3.T) Map {
	return func(coords Coords) vec3.T {
		return c
	}
}

// CheckerVolume alternates between odd and even in a 3D checker pattern with
// cells of edge period, anchored in world space.
func CheckerVolume(period float64, odd, even Map) Map {
	k := math.Pi / period
	return func(coords Coords) vec3.T {
		sines := math.Sin(k*coords.P[0]) * math.Sin(k*coords.P[1]) * math.Sin(k*coords.P[2])
		if sines < 0.0 {
			return odd(coords)
		}
		return even(coords)
	}
}

// CheckerSurface alternates in a 2D pattern over the surface coordinates.
func CheckerSurface(period float64, odd, even Map) Map {
	return func(coords Coords) vec3.T {
		parity := 0

		qx := coords.UV[0] / period
		if qx-math.Floor(qx) > 0.5 {
			parity ^= 1
		}

		qy := coords.UV[1] / period
		if qy-math.Floor(qy) > 0.5 {
			parity ^= 1
		}

		if parity == 1 {
			return odd(coords)
		}
		return even(coords)
	}
}

// Noise is grey Perlin noise over world space.  scale is the lattice
// frequency; the result lies in [0, 1].
func Noise(scale float64) Map {
	return func(coords Coords) vec3.T {
		p := vec3.MulVS(coords.P, scale)
		n := 0.5 * (1.0 + Perlin(p))
		return vec3.T{n, n, n}
	}
}

// Marble modulates a sine stripe along z with turbulence.
func Marble(scale float64) Map {
	return func(coords Coords) vec3.T {
		n := 0.5 * (1.0 + math.Sin(scale*coords.P[2]+10*Turbulence(coords.P, 7)))
		return vec3.T{n, n, n}
	}
}
