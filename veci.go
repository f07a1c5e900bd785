/*

Integer 3D Vectors

*/

package volmesh

import "gonum.org/v1/gonum/spatial/r3"

// V3i is a 3D integer vector. It is used for grid coordinates and extents.
type V3i [3]int

// SubScalar subtracts a scalar from each component of the vector.
func (a V3i) SubScalar(b int) V3i {
	return V3i{a[0] - b, a[1] - b, a[2] - b}
}

// AddScalar adds a scalar to each component of the vector.
func (a V3i) AddScalar(b int) V3i {
	return V3i{a[0] + b, a[1] + b, a[2] + b}
}

// ToV3 converts V3i (integer) to r3.Vec (float).
func (a V3i) ToV3() r3.Vec {
	return r3.Vec{X: float64(a[0]), Y: float64(a[1]), Z: float64(a[2])}
}

// Add adds two vectors. Return v = a + b.
func (a V3i) Add(b V3i) V3i {
	return V3i{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// Min returns the smallest component of the vector.
func (a V3i) Min() int {
	m := a[0]
	if a[1] < m {
		m = a[1]
	}
	if a[2] < m {
		m = a[2]
	}
	return m
}

// Prod returns the product of the components.
func (a V3i) Prod() int { return a[0] * a[1] * a[2] }
