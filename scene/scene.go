// Package scene holds the integrator and the parallel render driver.
package scene

import (
	"math/rand"

	"lumen/camera"
	"lumen/geometry"
	"lumen/ray"
	"lumen/vmath/vec3"
)

const (
	// MaxDepth is the default bounce limit.  Paths still alive at the limit
	// contribute black, which biases long glass and mirror paths darker.
	MaxDepth = 50

	// HitEpsilon is the lower bound of every intersection query, so that a
	// scattered ray does not immediately hit the surface it left.
	HitEpsilon = 0.001

	// Gamma is applied when developing an accumulation.
	Gamma = 2.0
)

var (
	white   = vec3.T{1, 1, 1}
	skyBlue = vec3.T{0.5, 0.7, 1.0}
)

type Scene struct {
	Name   string
	World  geometry.Intersectable
	Camera *camera.Camera
}

// Sky is the radiance arriving along a ray that escapes the scene: white
// looking straight down, blending to sky blue looking straight up.
func Sky(dir vec3.T) vec3.T {
	unit := vec3.Normalize(dir)
	t := 0.5 * (unit[1] + 1.0)
	return vec3.Lerp(t, white, skyBlue)
}

// RayColor estimates the radiance arriving back along r.
func RayColor(r ray.Ray, world geometry.Intersectable, depth int, rng *rand.Rand) vec3.T {
	if depth <= 0 {
		return vec3.T{}
	}

	h, ok := world.Hit(r, ray.Forward(HitEpsilon))
	if !ok {
		return Sky(r.Slope)
	}

	sc, ok := h.Material.Scatter(r, h.Contact, rng)
	if !ok {
		return vec3.T{}
	}

	return vec3.MulVV(sc.Attenuation, RayColor(sc.Ray, world, depth-1, rng))
}
