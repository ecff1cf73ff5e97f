// Package material decides what happens to a ray after it meets a surface.
package material

import (
	"math"
	"math/rand"

	"lumen/contact"
	"lumen/ray"
	"lumen/texture"
	"lumen/vmath/vec3"
)

// Scatter is the outgoing half of a surface interaction: the ray to follow and
// the per-channel throughput along it.
type Scatter struct {
	Attenuation vec3.T
	Ray         ray.Ray
}

// Material is implemented by every surface type.  Materials are immutable
// once built, and are shared by pointer across many primitives and
// goroutines.  The rng belongs to the calling worker.
//
// Scatter returns false when the ray is absorbed.
type Material interface {
	Scatter(in ray.Ray, c contact.Contact, rng *rand.Rand) (Scatter, bool)
}

// Lambertian is an ideal diffuse reflector.
type Lambertian struct {
	Albedo texture.Map
}

func NewLambertian(albedo vec3.T) *Lambertian {
	return &Lambertian{Albedo: texture.Solid(albedo)}
}

func (l *Lambertian) Scatter(in ray.Ray, c contact.Contact, rng *rand.Rand) (Scatter, bool) {
	dir := vec3.AddVV(c.N, vec3.UniformUnitDistribution(rng))
	if dir.NearZero() {
		dir = c.N
	}

	return Scatter{
		Attenuation: l.Albedo(texture.Coords{UV: c.UV, P: c.P}),
		Ray: ray.Ray{
			Point: c.P,
			Slope: dir,
		},
	}, true
}

// Metal is a specular reflector.  Fuzz perturbs the mirror direction to
// approximate a rough surface.
type Metal struct {
	Albedo vec3.T
	Fuzz   float64
}

// NewMetal clamps albedo channels and fuzz to [0, 1].
func NewMetal(albedo vec3.T, fuzz float64) *Metal {
	return &Metal{
		Albedo: vec3.Clamp(albedo, 0, 1),
		Fuzz:   math.Max(0, math.Min(1, fuzz)),
	}
}

func (m *Metal) Scatter(in ray.Ray, c contact.Contact, rng *rand.Rand) (Scatter, bool) {
	reflected := vec3.Reflect(vec3.Normalize(in.Slope), c.N)
	dir := vec3.AddVV(reflected, vec3.MulVS(vec3.RandomInUnitSphere(rng), m.Fuzz))

	// Fuzz can push the ray below the surface; treat it as absorbed.
	if vec3.IProd(dir, c.N) <= 0.0 {
		return Scatter{}, false
	}

	return Scatter{
		Attenuation: m.Albedo,
		Ray: ray.Ray{
			Point: c.P,
			Slope: dir,
		},
	}, true
}

// Dielectric is a clear refracting material such as glass or water.
type Dielectric struct {
	// Index of refraction relative to the surrounding medium.
	IR float64
}

func NewDielectric(ir float64) *Dielectric {
	return &Dielectric{IR: ir}
}

func (d *Dielectric) Scatter(in ray.Ray, c contact.Contact, rng *rand.Rand) (Scatter, bool) {
	ratio := d.IR
	if c.FrontFace {
		ratio = 1.0 / d.IR
	}

	unitDir := vec3.Normalize(in.Slope)
	cosTheta := math.Min(vec3.IProd(vec3.Neg(unitDir), c.N), 1.0)
	sinTheta := math.Sqrt(1.0 - cosTheta*cosTheta)

	var dir vec3.T
	if ratio*sinTheta > 1.0 || Reflectance(cosTheta, ratio) > rng.Float64() {
		dir = vec3.Reflect(unitDir, c.N)
	} else {
		dir = vec3.Refract(unitDir, c.N, ratio)
	}

	return Scatter{
		Attenuation: vec3.T{1, 1, 1},
		Ray: ray.Ray{
			Point: c.P,
			Slope: dir,
		},
	}, true
}

// Reflectance is Schlick's approximation of the Fresnel reflection
// coefficient.
func Reflectance(cosine, ratio float64) float64 {
	r0 := (1 - ratio) / (1 + ratio)
	r0 = r0 * r0
	return r0 + (1-r0)*math.Pow(1-cosine, 5)
}
