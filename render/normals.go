package render

import (
	"github.com/soypat/volmesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// vertexAt returns the i'th vertex of a flat xyz buffer.
func vertexAt(verts []float32, i uint32) r3.Vec {
	return r3.Vec{X: float64(verts[3*i]), Y: float64(verts[3*i+1]), Z: float64(verts[3*i+2])}
}

// averagedNormals returns per vertex normals as the normalized sum of the
// unit face normals of incident triangles, in index buffer winding.
// Vertices whose face normals sum to zero get a zero normal.
func averagedNormals(verts []float32, indices []uint32) []float32 {
	sum := make([]r3.Vec, len(verts)/3)
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		n := Triangle3{vertexAt(verts, a), vertexAt(verts, b), vertexAt(verts, c)}.Normal()
		sum[a] = r3.Add(sum[a], n)
		sum[b] = r3.Add(sum[b], n)
		sum[c] = r3.Add(sum[c], n)
	}
	normals := make([]float32, len(verts))
	for i, n := range sum {
		putUnit(normals[3*i:], n)
	}
	return normals
}

// radialNormals returns per vertex normals pointing from center to each vertex.
func radialNormals(verts []float32, center r3.Vec) []float32 {
	normals := make([]float32, len(verts))
	for i := 0; i < len(verts)/3; i++ {
		putUnit(normals[3*i:], r3.Sub(vertexAt(verts, uint32(i)), center))
	}
	return normals
}

// putUnit writes the unit vector of n to dst, or zeros if n is zero.
func putUnit(dst []float32, n r3.Vec) {
	norm := r3.Norm(n)
	if norm == 0 {
		dst[0], dst[1], dst[2] = 0, 0, 0
		return
	}
	n = r3.Scale(1/norm, n)
	dst[0], dst[1], dst[2] = float32(n.X), float32(n.Y), float32(n.Z)
}

// volumeCenter returns the midpoint of the first and last sample positions of
// v in output coordinates.
func volumeCenter(v volmesh.Volume, flipDepth bool) r3.Vec {
	d := volmesh.Dims(v)
	lo := v.Sample(0, 0, 0).Pos
	hi := v.Sample(d[0]-1, d[1]-1, d[2]-1).Pos
	c := r3.Scale(0.5, r3.Add(lo, hi))
	if flipDepth {
		c.Z = -c.Z
	}
	return c
}
