package material

import (
	"math"
	"math/rand"
	"testing"

	"lumen/contact"
	"lumen/ray"
	"lumen/texture"
	"lumen/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// floorContact is a hit on the plane y=0 seen from above.
func floorContact(in ray.Ray) contact.Contact {
	c := contact.Contact{
		T: 1,
		R: in,
		P: vec3.T{0, 0, 0},
	}
	c.SetFaceNormal(in, vec3.T{0, 1, 0})
	return c
}

func inUnitCube(c vec3.T) bool {
	for _, ch := range c {
		if ch < 0 || ch > 1 || math.IsNaN(ch) {
			return false
		}
	}
	return true
}

func TestLambertianAlwaysScatters(t *testing.T) {
	rng := rand.New(rand.NewSource(12345))
	m := &Lambertian{
		Albedo: texture.CheckerVolume(0.5, texture.Solid(vec3.T{0.2, 0.3, 0.1}), texture.Solid(vec3.T{0.9, 0.9, 0.9})),
	}
	in := ray.Ray{Point: vec3.T{0, 1, 0}, Slope: vec3.T{0.3, -1, 0.2}}
	c := floorContact(in)

	for i := 0; i < 1000; i++ {
		s, ok := m.Scatter(in, c, rng)
		if !ok {
			t.Fatalf("Lambertian absorbed a ray")
		}
		if !inUnitCube(s.Attenuation) {
			t.Fatalf("Lambertian attenuation %v outside [0,1]", s.Attenuation)
		}
		if vec3.IProd(s.Ray.Slope, c.N) < 0 {
			t.Fatalf("Lambertian scattered %v below the surface", s.Ray.Slope)
		}
		if s.Ray.Point != c.P {
			t.Fatalf("Scattered ray starts at %v, want hit point %v", s.Ray.Point, c.P)
		}
	}
}

func TestMetalEnergyAndAbsorption(t *testing.T) {
	rng := rand.New(rand.NewSource(12345))
	m := NewMetal(vec3.T{1.5, 0.6, -0.2}, 3)
	if m.Fuzz != 1 || m.Albedo != (vec3.T{1, 0.6, 0}) {
		t.Fatalf("NewMetal did not clamp; got albedo=%v fuzz=%v", m.Albedo, m.Fuzz)
	}

	// A grazing ray with full fuzz is absorbed some of the time.
	in := ray.Ray{Point: vec3.T{-1, 0.01, 0}, Slope: vec3.T{1, -0.01, 0}}
	c := floorContact(in)
	absorbed := 0
	for i := 0; i < 1000; i++ {
		s, ok := m.Scatter(in, c, rng)
		if !ok {
			absorbed++
			continue
		}
		if !inUnitCube(s.Attenuation) {
			t.Fatalf("Metal attenuation %v outside [0,1]", s.Attenuation)
		}
		if vec3.IProd(s.Ray.Slope, c.N) <= 0 {
			t.Fatalf("Metal returned a ray %v going into the surface", s.Ray.Slope)
		}
	}
	if absorbed == 0 {
		t.Errorf("Fuzzy metal never absorbed a grazing ray")
	}
}

func TestMetalMirror(t *testing.T) {
	rng := rand.New(rand.NewSource(12345))
	m := NewMetal(vec3.T{0.7, 0.6, 0.5}, 0)

	in := ray.Ray{Point: vec3.T{-1, 1, 0}, Slope: vec3.T{1, -1, 0}}
	s, ok := m.Scatter(in, floorContact(in), rng)
	if !ok {
		t.Fatalf("Smooth metal absorbed a 45 degree ray")
	}
	want := vec3.Normalize(vec3.T{1, 1, 0})
	if diff := cmp.Diff(s.Ray.Slope, want, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Bad mirror direction; diff (-got +want)\n%s", diff)
	}
}

func TestDielectricIsWhite(t *testing.T) {
	rng := rand.New(rand.NewSource(12345))
	m := NewDielectric(1.5)
	for i := 0; i < 200; i++ {
		in := ray.Ray{Point: vec3.T{0, 1, 0}, Slope: vec3.RandomRange(-1, 1, rng)}
		in.Slope[1] = -math.Abs(in.Slope[1]) - 0.01
		s, ok := m.Scatter(in, floorContact(in), rng)
		if !ok {
			t.Fatalf("Dielectric absorbed a ray")
		}
		if s.Attenuation != (vec3.T{1, 1, 1}) {
			t.Fatalf("Dielectric attenuation %v, want exactly white", s.Attenuation)
		}
	}
}

func TestDielectricTotalInternalReflection(t *testing.T) {
	rng := rand.New(rand.NewSource(12345))
	m := NewDielectric(1.5)

	// Inside the glass below the plane y=0, heading up at 60 degrees from the
	// normal.  The critical angle for ir=1.5 is about 41.8 degrees.
	in := ray.Ray{
		Point: vec3.T{0, -1, 0},
		Slope: vec3.T{math.Sin(math.Pi / 3), math.Cos(math.Pi / 3), 0},
	}
	c := contact.Contact{T: 1, R: in, P: vec3.T{0, 0, 0}}
	c.SetFaceNormal(in, vec3.T{0, 1, 0})
	if c.FrontFace {
		t.Fatalf("Test setup error: ray should be leaving the glass")
	}

	want := vec3.Reflect(vec3.Normalize(in.Slope), c.N)
	for i := 0; i < 1000; i++ {
		s, ok := m.Scatter(in, c, rng)
		if !ok {
			t.Fatalf("Dielectric absorbed a ray")
		}
		if diff := cmp.Diff(s.Ray.Slope, want, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
			t.Fatalf("Ray beyond the critical angle was not reflected; diff (-got +want)\n%s", diff)
		}
	}
}

func TestDielectricRefractsAtNormalIncidence(t *testing.T) {
	rng := rand.New(rand.NewSource(12345))
	m := NewDielectric(1.5)

	in := ray.Ray{Point: vec3.T{0, 1, 0}, Slope: vec3.T{0, -1, 0}}
	refracted := 0
	for i := 0; i < 1000; i++ {
		s, _ := m.Scatter(in, floorContact(in), rng)
		if s.Ray.Slope[1] < 0 {
			refracted++
		}
	}

	// Schlick gives 4% reflectance head on.
	if refracted < 900 {
		t.Errorf("Only %d of 1000 head-on rays refracted, want about 960", refracted)
	}
}

func TestReflectance(t *testing.T) {
	if got := Reflectance(1, 1.0/1.5); math.Abs(got-0.04) > 1e-12 {
		t.Errorf("Head-on reflectance got %v, want 0.04", got)
	}
	if got := Reflectance(0, 1.0/1.5); math.Abs(got-1) > 1e-12 {
		t.Errorf("Grazing reflectance got %v, want 1", got)
	}
}
