package render

import (
	"math"

	"github.com/soypat/volmesh/internal/d3"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	_ kdtree.Interface = kdVertices{}
	_ kdtree.Bounder   = kdVertices{}
)

// VertexIndex answers nearest neighbour queries over the welded vertices
// of a mesh.
type VertexIndex struct {
	tree  *kdtree.Tree
	verts kdVertices
}

// NewVertexIndex builds a kd-tree over the vertices of m.
func NewVertexIndex(m *Mesh) *VertexIndex {
	verts := make(kdVertices, m.NumVertices())
	for i := range verts {
		verts[i] = kdVertex{Vec: m.Vertex(i), idx: i}
	}
	// kdtree.New reorders its argument.
	tree := kdtree.New(append(kdVertices(nil), verts...), true)
	return &VertexIndex{tree: tree, verts: verts}
}

// Len returns the number of indexed vertices.
func (vi *VertexIndex) Len() int { return len(vi.verts) }

// Nearest returns the index of the vertex closest to p and its distance.
// It returns -1 for an empty index.
func (vi *VertexIndex) Nearest(p r3.Vec) (index int, dist float64) {
	if len(vi.verts) == 0 {
		return -1, math.Inf(1)
	}
	got, d2 := vi.tree.Nearest(kdVertex{Vec: p, idx: -1})
	return got.(kdVertex).idx, math.Sqrt(d2)
}

// MinSpacing returns the smallest distance between two distinct vertices.
// A zero result means two vertices share a position, which exact welding
// never produces. It returns +Inf when fewer than two vertices are indexed.
func (vi *VertexIndex) MinSpacing() float64 {
	best := math.Inf(1)
	for _, v := range vi.verts {
		keep := kdtree.NewNKeeper(2)
		vi.tree.NearestSet(keep, v)
		for _, c := range keep.Heap {
			if c.Comparable == nil || c.Comparable.(kdVertex).idx == v.idx {
				continue
			}
			best = math.Min(best, c.Dist)
		}
	}
	return math.Sqrt(best)
}

// Bounds returns the bounding box of the indexed vertices.
func (vi *VertexIndex) Bounds() r3.Box {
	if vi.tree.Root == nil || vi.tree.Root.Bounding == nil {
		return r3.Box{}
	}
	bb := vi.tree.Root.Bounding
	if bb.Min == nil {
		return r3.Box{}
	}
	return r3.Box{Min: bb.Min.(kdVertex).Vec, Max: bb.Max.(kdVertex).Vec}
}

type kdVertices []kdVertex

// kdVertex is a vertex position tagged with its index in the mesh.
type kdVertex struct {
	r3.Vec
	idx int
}

func (k kdVertices) Index(i int) kdtree.Comparable {
	return k[i]
}

// Len returns the length of the list.
func (k kdVertices) Len() int { return len(k) }

// Pivot partitions the list based on the dimension specified.
func (k kdVertices) Pivot(d kdtree.Dim) int {
	p := kdPlane{dim: int(d), vertices: k}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

// Slice returns a slice of the list using zero-based half
// open indexing equivalent to built-in slice indexing.
func (k kdVertices) Slice(start, end int) kdtree.Interface {
	return k[start:end]
}

func (k kdVertices) Bounds() *kdtree.Bounding {
	min := r3.Vec{X: math.MaxFloat64, Y: math.MaxFloat64, Z: math.MaxFloat64}
	max := r3.Scale(-1, min)
	for _, v := range k {
		min = d3.MinElem(min, v.Vec)
		max = d3.MaxElem(max, v.Vec)
	}
	return &kdtree.Bounding{
		Min: kdVertex{Vec: min, idx: -1},
		Max: kdVertex{Vec: max, idx: -1},
	}
}

// Compare returns the signed distance of a from the plane passing through
// b and perpendicular to the dimension d.
//
// Given c = a.Compare(b, d):
//
//	c = a_d - b_d
func (a kdVertex) Compare(b kdtree.Comparable, d kdtree.Dim) float64 {
	return kdComp(a.Vec, b.(kdVertex).Vec, int(d))
}

// Dims returns the number of dimensions described in the Comparable.
func (a kdVertex) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between the receiver and
// the parameter.
func (a kdVertex) Distance(b kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(a.Vec, b.(kdVertex).Vec))
}

// c = a.dim - b.dim
func kdComp(a, b r3.Vec, dim int) (c float64) {
	switch dim {
	case 0:
		c = a.X - b.X
	case 1:
		c = a.Y - b.Y
	case 2:
		c = a.Z - b.Z
	}
	return c
}

type kdPlane struct {
	dim      int
	vertices kdVertices
}

func (p kdPlane) Less(i, j int) bool {
	return kdComp(p.vertices[i].Vec, p.vertices[j].Vec, p.dim) < 0
}
func (p kdPlane) Swap(i, j int) {
	p.vertices[i], p.vertices[j] = p.vertices[j], p.vertices[i]
}
func (p kdPlane) Len() int {
	return len(p.vertices)
}
func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	p.vertices = p.vertices[start:end]
	return p
}
