package camera

import (
	"math"
	"math/rand"

	"lumen/ray"
	"lumen/vmath/mat33"
	"lumen/vmath/vec3"
)

// Params are the seven geometric inputs of a thin-lens camera.
type Params struct {
	// Vertical field of view, in degrees.
	VFov        float64
	AspectRatio float64

	LookFrom vec3.T
	LookAt   vec3.T
	Up       vec3.T

	// Distance from LookFrom to the plane of perfect focus.
	FocusDist float64

	// Lens diameter.  Zero gives a pinhole camera.
	Aperture float64
}

// Camera is a thin-lens camera.  It is immutable after New and safe for
// concurrent use.
type Camera struct {
	Params Params

	origin     vec3.T
	horizontal vec3.T
	vertical   vec3.T
	lowerLeft  vec3.T
	lensRadius float64

	// Columns are u (right), v (up) and w (backwards).
	LensToWorld mat33.T
}

func New(p Params) *Camera {
	w := vec3.Normalize(vec3.SubVV(p.LookFrom, p.LookAt))
	u := vec3.Normalize(vec3.CProd(p.Up, w))
	v := vec3.CProd(w, u)

	h := math.Tan(p.VFov * math.Pi / 180.0 / 2.0)
	viewportHeight := 2.0 * h
	viewportWidth := p.AspectRatio * viewportHeight

	horizontal := vec3.MulVS(u, p.FocusDist*viewportWidth)
	vertical := vec3.MulVS(v, p.FocusDist*viewportHeight)
	lowerLeft := vec3.SubVV(
		vec3.SubVV(p.LookFrom, vec3.MulVS(horizontal, 0.5)),
		vec3.AddVV(vec3.MulVS(vertical, 0.5), vec3.MulVS(w, p.FocusDist)),
	)

	return &Camera{
		Params:      p,
		origin:      p.LookFrom,
		horizontal:  horizontal,
		vertical:    vertical,
		lowerLeft:   lowerLeft,
		lensRadius:  p.Aperture / 2.0,
		LensToWorld: mat33.FromColumns(u, v, w),
	}
}

// ImageWidth derives the image width from a height and the aspect ratio.
func (c *Camera) ImageWidth(height int) int {
	return int(float64(height) * c.Params.AspectRatio)
}

// GetRay returns a ray through the viewport point (s, t), where (0, 0) is the
// lower left corner and (1, 1) the upper right.  The origin is jittered
// across the lens.
func (c *Camera) GetRay(s, t float64, rng *rand.Rand) ray.Ray {
	rd := vec3.MulVS(vec3.RandomInUnitDisk(rng), c.lensRadius)
	offset := mat33.MulMV(c.LensToWorld, vec3.T{rd[0], rd[1], 0})

	origin := vec3.AddVV(c.origin, offset)
	target := vec3.AddVV(c.lowerLeft, vec3.AddVV(vec3.MulVS(c.horizontal, s), vec3.MulVS(c.vertical, t)))

	return ray.Ray{
		Point: origin,
		Slope: vec3.SubVV(target, origin),
	}
}

// ImageToRay returns a jittered ray through pixel (curRow, curCol) of an
// imgRows x imgCols image.  Row 0 is the top of the image.
func (c *Camera) ImageToRay(curRow, imgRows, curCol, imgCols int, rng *rand.Rand) ray.Ray {
	s := (float64(curCol) + rng.Float64()) / float64(imgCols-1)
	t := (float64(imgRows-1-curRow) + rng.Float64()) / float64(imgRows-1)
	return c.GetRay(s, t, rng)
}
