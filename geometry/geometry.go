package geometry

import (
	"math"

	"lumen/aabox"
	"lumen/contact"
	"lumen/material"
	"lumen/ray"
	"lumen/vmath/vec2"
	"lumen/vmath/vec3"
)

// Hit is a contact together with the material of the surface that was hit.
// The material is borrowed from the primitive.
type Hit struct {
	contact.Contact
	Material material.Material
}

// Intersectable is anything a ray can be tested against.
//
// Hit reports the closest intersection with parameter inside s.
// GetAABox must bound every point Hit can report.
type Intersectable interface {
	Hit(r ray.Ray, s ray.Span) (Hit, bool)
	GetAABox() aabox.AABox
}

type Sphere struct {
	Center   vec3.T
	Radius   float64
	Material material.Material
}

func NewSphere(center vec3.T, radius float64, m material.Material) *Sphere {
	return &Sphere{
		Center:   center,
		Radius:   radius,
		Material: m,
	}
}

func (s *Sphere) GetAABox() aabox.AABox {
	r := vec3.T{s.Radius, s.Radius, s.Radius}
	return aabox.FromCorners(vec3.SubVV(s.Center, r), vec3.AddVV(s.Center, r))
}

func (s *Sphere) Hit(r ray.Ray, span ray.Span) (Hit, bool) {
	oc := vec3.SubVV(r.Point, s.Center)
	a := r.Slope.NormSquared()
	halfB := vec3.IProd(oc, r.Slope)
	c := oc.NormSquared() - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return Hit{}, false
	}
	sqrtd := math.Sqrt(discriminant)

	root := (-halfB - sqrtd) / a
	if !span.Contains(root) {
		root = (-halfB + sqrtd) / a
		if !span.Contains(root) {
			return Hit{}, false
		}
	}

	p := r.Eval(root)
	outward := vec3.DivVS(vec3.SubVV(p, s.Center), s.Radius)

	h := Hit{
		Contact: contact.Contact{
			T:  root,
			R:  r,
			P:  p,
			UV: SphereUV(outward),
		},
		Material: s.Material,
	}
	h.SetFaceNormal(r, outward)
	return h, true
}

// SphereUV maps a point on the unit sphere to [0,1]x[0,1].  u runs around the
// y axis starting from -x; v runs from the south pole (y=-1) to the north.
func SphereUV(p vec3.T) vec2.T {
	theta := math.Acos(-p[1])
	phi := math.Atan2(-p[2], p[0]) + math.Pi
	return vec2.T{phi / (2 * math.Pi), theta / math.Pi}
}

// List is an unaccelerated aggregate; Hit scans every item.
type List struct {
	Items []Intersectable
}

func (l *List) Add(items ...Intersectable) {
	l.Items = append(l.Items, items...)
}

func (l *List) Hit(r ray.Ray, s ray.Span) (Hit, bool) {
	closest := Hit{}
	found := false
	for _, item := range l.Items {
		if h, ok := item.Hit(r, s); ok {
			s.Hi = h.T
			closest = h
			found = true
		}
	}
	return closest, found
}

// GetAABox is the union of the items' boxes, or the zero box for an empty
// list.
func (l *List) GetAABox() aabox.AABox {
	if len(l.Items) == 0 {
		return aabox.AABox{}
	}
	result := l.Items[0].GetAABox()
	for _, item := range l.Items[1:] {
		result = aabox.MinContainingAABox(result, item.GetAABox())
	}
	return result
}
