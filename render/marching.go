package render

import (
	"fmt"
	"math"

	"github.com/soypat/volmesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// marchingCubesMaxTriangles is the largest row of mcTriangleTable in triangles.
const marchingCubesMaxTriangles = 5

// mcCorners are the grid offsets of the 8 cell corners. Corner i sets bit i
// of the case mask. The numbering is a rotation of the classic layout
// (x←y, y←z, z←x) so the tables keep their handedness.
var mcCorners = [8]volmesh.V3i{
	{0, 0, 0},
	{0, 0, 1},
	{1, 0, 1},
	{1, 0, 0},
	{0, 1, 0},
	{0, 1, 1},
	{1, 1, 1},
	{1, 1, 0},
}

// mcEdges are the corner pairs of the 12 cell edges. The corner with the
// lower grid coordinate comes first so that cells sharing an edge
// interpolate it with identical arithmetic.
var mcEdges = [12][2]uint8{
	{0, 1}, {1, 2}, {3, 2}, {0, 3},
	{4, 5}, {5, 6}, {7, 6}, {4, 7},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// cellCorners holds the 8 corner samples of the cell with minimum corner origin.
type cellCorners struct {
	origin  volmesh.V3i
	samples [8]volmesh.Sample
}

// load fetches the corner samples of the cell at origin from v.
func (c *cellCorners) load(v volmesh.Volume, dims volmesh.V3i, origin volmesh.V3i) {
	if origin[0] < 0 || origin[1] < 0 || origin[2] < 0 ||
		origin[0] >= dims[0]-1 || origin[1] >= dims[1]-1 || origin[2] >= dims[2]-1 {
		panic(fmt.Sprintf("bug: cell %v out of range for volume %v", origin, dims))
	}
	c.origin = origin
	for i, off := range mcCorners {
		p := origin.Add(off)
		c.samples[i] = v.Sample(p[0], p[1], p[2])
	}
}

// caseMask returns the 8 bit corner mask of the cell. Bit i is set
// when corner i's value is below iso.
func (c *cellCorners) caseMask(iso float64) uint8 {
	var mask uint8
	for i := range c.samples {
		if c.samples[i].Value < iso {
			mask |= 1 << i
		}
	}
	return mask
}

// interpolator computes the surface crossing point on a cell edge.
type interpolator struct {
	iso       float64
	eps       float64
	flipDepth bool
}

// interpolate returns the point on segment p1-p2 where the linearly
// interpolated field equals the iso level. An endpoint whose value is within
// eps of the iso level is returned directly, p1 first. If both values are
// within eps of each other p1 is returned.
func (ip interpolator) interpolate(p1, p2 volmesh.Sample) r3.Vec {
	var p r3.Vec
	switch {
	case math.Abs(ip.iso-p1.Value) < ip.eps:
		p = p1.Pos
	case math.Abs(ip.iso-p2.Value) < ip.eps:
		p = p2.Pos
	case math.Abs(p1.Value-p2.Value) < ip.eps:
		p = p1.Pos
	default:
		mu := (ip.iso - p1.Value) / (p2.Value - p1.Value)
		p = r3.Vec{
			X: p1.Pos.X + mu*(p2.Pos.X-p1.Pos.X),
			Y: p1.Pos.Y + mu*(p2.Pos.Y-p1.Pos.Y),
			Z: p1.Pos.Z + mu*(p2.Pos.Z-p1.Pos.Z),
		}
	}
	if ip.flipDepth {
		p.Z = -p.Z
	}
	return p
}

// edgePoints interpolates every edge flagged in the edge table row of mask.
// The returned bitset has bit i set when points[i] was computed.
func (ip interpolator) edgePoints(c *cellCorners, mask uint8, points *[12]r3.Vec) (computed uint16) {
	computed = mcEdgeTable[mask]
	for i, e := range mcEdges {
		if computed&(1<<i) != 0 {
			points[i] = ip.interpolate(c.samples[e[0]], c.samples[e[1]])
		}
	}
	return computed
}

// cellTriangles writes the triangles of the cell into dst in table order and
// returns the number written. dst must have room for marchingCubesMaxTriangles.
func (ip interpolator) cellTriangles(dst []Triangle3, c *cellCorners) int {
	mask := c.caseMask(ip.iso)
	row := mcTriangleTable[mask]
	if len(row) == 0 {
		return 0
	}
	var points [12]r3.Vec
	computed := ip.edgePoints(c, mask, &points)
	n := 0
	for i := 0; i < len(row); i += 3 {
		for j := 0; j < 3; j++ {
			edge := row[i+j]
			if computed&(1<<edge) == 0 {
				panic(fmt.Sprintf("bug: triangle table references edge %d not crossed in case %#02x", edge, mask))
			}
			dst[n][j] = points[edge]
		}
		n++
	}
	return n
}
