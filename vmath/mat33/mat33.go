package mat33

import (
	"lumen/vmath/vec3"
)

// T is a row-major 3x3 matrix.
type T struct {
	Elts [9]float64
}

// FromColumns builds the matrix whose columns are a, b, and c.  Used to turn an
// orthonormal basis into a local-to-world map.
func FromColumns(a, b, c vec3.T) T {
	return T{[9]float64{
		a[0], b[0], c[0],
		a[1], b[1], c[1],
		a[2], b[2], c[2],
	}}
}

func MulMV(a T, b vec3.T) vec3.T {
	return vec3.T{
		a.Elts[0]*b[0] + a.Elts[1]*b[1] + a.Elts[2]*b[2],
		a.Elts[3]*b[0] + a.Elts[4]*b[1] + a.Elts[5]*b[2],
		a.Elts[6]*b[0] + a.Elts[7]*b[1] + a.Elts[8]*b[2],
	}
}
