package render

import (
	"github.com/soypat/volmesh/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// TriangleReader streams triangles, in the manner of io.Reader.
// It returns io.EOF once all triangles have been read.
type TriangleReader interface {
	ReadTriangles(t []Triangle3) (int, error)
}

// Triangle3 is a 3D triangle.
type Triangle3 [3]r3.Vec

// Normal returns the unit normal of the triangle following its winding,
// (V1-V0)×(V2-V0). Degenerate triangles return the zero vector.
func (t Triangle3) Normal() r3.Vec {
	n := r3.Cross(r3.Sub(t[1], t[0]), r3.Sub(t[2], t[0]))
	norm := r3.Norm(n)
	if norm == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/norm, n)
}

// Degenerate returns true if two vertices of the triangle are within tol
// of each other on every axis.
func (t Triangle3) Degenerate(tol float64) bool {
	return d3.EqualWithin(t[0], t[1], tol) ||
		d3.EqualWithin(t[1], t[2], tol) ||
		d3.EqualWithin(t[2], t[0], tol)
}

// Centroid returns the mean of the triangle vertices.
func (t Triangle3) Centroid() r3.Vec {
	return r3.Scale(1./3., r3.Add(t[0], r3.Add(t[1], t[2])))
}
