package contact

import (
	"lumen/ray"
	"lumen/vmath/vec2"
	"lumen/vmath/vec3"
)

// Contact describes where a ray met a surface.  It only lives for the
// duration of one intersection query.
type Contact struct {
	T float64
	R ray.Ray
	P vec3.T

	// N always points against R.  FrontFace records whether that is also the
	// geometric outward normal.
	N         vec3.T
	FrontFace bool

	// Surface coordinates in [0,1]x[0,1].
	UV vec2.T
}

// SetFaceNormal orients outward against the incoming ray.
func (c *Contact) SetFaceNormal(r ray.Ray, outward vec3.T) {
	c.FrontFace = vec3.IProd(r.Slope, outward) < 0.0
	if c.FrontFace {
		c.N = outward
	} else {
		c.N = vec3.Neg(outward)
	}
}
