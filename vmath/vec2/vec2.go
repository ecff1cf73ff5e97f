package vec2

// T is a surface (u, v) coordinate pair.
type T [2]float64
