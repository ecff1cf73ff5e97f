package vec3

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestArithmetic(t *testing.T) {
	a := T{1, 2, 3}
	b := T{4, 5, 6}

	testCases := []struct {
		desc string
		got  T
		want T
	}{
		{"AddVV", AddVV(a, b), T{5, 7, 9}},
		{"SubVV", SubVV(b, a), T{3, 3, 3}},
		{"MulVV", MulVV(a, b), T{4, 10, 18}},
		{"MulVS", MulVS(a, 2), T{2, 4, 6}},
		{"DivVS", DivVS(b, 2), T{2, 2.5, 3}},
		{"Neg", Neg(a), T{-1, -2, -3}},
		{"CProd", CProd(T{1, 0, 0}, T{0, 1, 0}), T{0, 0, 1}},
		{"MinVV", MinVV(T{1, 5, -2}, T{3, 0, -1}), T{1, 0, -2}},
		{"MaxVV", MaxVV(T{1, 5, -2}, T{3, 0, -1}), T{3, 5, -1}},
		{"Lerp", Lerp(0.25, T{0, 0, 0}, T{4, 8, 12}), T{1, 2, 3}},
		{"Clamp", Clamp(T{-1, 0.5, 2}, 0, 1), T{0, 0.5, 1}},
		{"Pow", Pow(T{4, 9, 16}, 0.5), T{2, 3, 4}},
		{"Reflect", Reflect(T{1, -1, 0}, T{0, 1, 0}), T{1, 1, 0}},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			if diff := cmp.Diff(tc.got, tc.want, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
				t.Errorf("Bad result; diff (-got +want)\n%s", diff)
			}
		})
	}

	if got := IProd(a, b); got != 32 {
		t.Errorf("Bad IProd; got %v, want 32", got)
	}
}

func TestNormalize(t *testing.T) {
	n := Normalize(T{3, 0, 4})
	if math.Abs(n.Norm()-1) > 1e-12 {
		t.Errorf("Normalized vector has norm %v, want 1", n.Norm())
	}
	if diff := cmp.Diff(n, T{0.6, 0, 0.8}, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Bad normalized vector; diff (-got +want)\n%s", diff)
	}
}

func TestNearZero(t *testing.T) {
	if !(T{1e-9, -1e-9, 0}).NearZero() {
		t.Errorf("Tiny vector not reported as near zero")
	}
	if (T{1e-9, 1e-3, 0}).NearZero() {
		t.Errorf("Vector with a 1e-3 component reported as near zero")
	}
}

func TestRefractStraightThrough(t *testing.T) {
	// At normal incidence the direction is unchanged regardless of the ratio.
	got := Refract(T{0, 0, -1}, T{0, 0, 1}, 1.0/1.5)
	if diff := cmp.Diff(got, T{0, 0, -1}, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Bad refraction; diff (-got +want)\n%s", diff)
	}
}

func TestRefractSnell(t *testing.T) {
	eta := 1.0 / 1.5
	in := Normalize(T{1, 0, -1})
	out := Refract(in, T{0, 0, 1}, eta)

	sinIn := math.Abs(in[0])
	sinOut := math.Abs(out[0]) / out.Norm()
	if math.Abs(sinOut-eta*sinIn) > 1e-12 {
		t.Errorf("Snell's law violated; got sin(out)=%v, want %v", sinOut, eta*sinIn)
	}
	if math.Abs(out.Norm()-1) > 1e-12 {
		t.Errorf("Refracted vector has norm %v, want 1", out.Norm())
	}
}

func TestRandomDistributions(t *testing.T) {
	rng := rand.New(rand.NewSource(12345))
	for i := 0; i < 1000; i++ {
		if p := RandomInUnitSphere(rng); p.NormSquared() >= 1 {
			t.Fatalf("RandomInUnitSphere returned %v outside the unit ball", p)
		}
		if p := RandomInUnitDisk(rng); p.NormSquared() >= 1 || p[2] != 0 {
			t.Fatalf("RandomInUnitDisk returned %v outside the unit disk", p)
		}
		if p := UniformUnitDistribution(rng); math.Abs(p.Norm()-1) > 1e-12 {
			t.Fatalf("UniformUnitDistribution returned %v with norm %v", p, p.Norm())
		}
		p := RandomRange(-2, 3, rng)
		for _, c := range p {
			if c < -2 || c >= 3 {
				t.Fatalf("RandomRange returned %v outside [-2, 3)", p)
			}
		}
	}
}
