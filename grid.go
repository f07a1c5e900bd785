package volmesh

import (
	"fmt"

	"github.com/soypat/volmesh/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

var _ Volume = (*Grid)(nil)

// Grid is an in-memory Volume. Samples are stored with x as the outer
// dimension and z as the inner dimension, matching the sweep order of
// the isosurface extraction.
type Grid struct {
	dims    V3i
	samples []Sample
	// centered is set once Normalize has translated the samples by offset.
	centered bool
	offset   r3.Vec
}

// NewGrid returns a width×height×depth grid whose sample positions are
// the integer grid coordinates and whose values are zero.
func NewGrid(width, height, depth int) (*Grid, error) {
	if width <= 0 || height <= 0 || depth <= 0 {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrInvalidDims, width, height, depth)
	}
	g := &Grid{
		dims:    V3i{width, height, depth},
		samples: make([]Sample, width*height*depth),
	}
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			for z := 0; z < depth; z++ {
				g.samples[g.index(x, y, z)].Pos = r3.Vec{X: float64(x), Y: float64(y), Z: float64(z)}
			}
		}
	}
	return g, nil
}

// NewGridFromValues returns a grid with positions at integer grid coordinates
// and values taken from vals, indexed as vals[(x*height+y)*depth+z].
func NewGridFromValues(width, height, depth int, vals []float64) (*Grid, error) {
	g, err := NewGrid(width, height, depth)
	if err != nil {
		return nil, err
	}
	if len(vals) != len(g.samples) {
		return nil, fmt.Errorf("%w: got %d values for %d samples", ErrInvalidDims, len(vals), len(g.samples))
	}
	for i := range g.samples {
		g.samples[i].Value = vals[i]
	}
	return g, nil
}

func (g *Grid) Width() int  { return g.dims[0] }
func (g *Grid) Height() int { return g.dims[1] }
func (g *Grid) Depth() int  { return g.dims[2] }

// Dims returns the grid extents.
func (g *Grid) Dims() V3i { return g.dims }

// Sample returns the sample at x,y,z. It panics if the coordinates are out of range.
func (g *Grid) Sample(x, y, z int) Sample {
	return g.samples[g.index(x, y, z)]
}

// SetValue sets the scalar value at x,y,z.
func (g *Grid) SetValue(x, y, z int, v float64) {
	g.samples[g.index(x, y, z)].Value = v
}

// SetPos sets the sample position at x,y,z.
func (g *Grid) SetPos(x, y, z int, p r3.Vec) {
	g.samples[g.index(x, y, z)].Pos = p
}

// Fill sets every value of the grid to f evaluated at the sample's grid
// coordinates and position.
func (g *Grid) Fill(f func(x, y, z int, pos r3.Vec) float64) {
	for x := 0; x < g.dims[0]; x++ {
		for y := 0; y < g.dims[1]; y++ {
			for z := 0; z < g.dims[2]; z++ {
				s := &g.samples[g.index(x, y, z)]
				s.Value = f(x, y, z, s.Pos)
			}
		}
	}
}

// ValueRange returns the smallest and largest sample values.
func (g *Grid) ValueRange() (min, max float64) {
	min, max = g.samples[0].Value, g.samples[0].Value
	for _, s := range g.samples[1:] {
		if s.Value < min {
			min = s.Value
		}
		if s.Value > max {
			max = s.Value
		}
	}
	return min, max
}

// Bounds returns the box enclosing all sample positions.
func (g *Grid) Bounds() r3.Box {
	bb := r3.Box{Min: g.samples[0].Pos, Max: g.samples[0].Pos}
	for _, s := range g.samples[1:] {
		bb.Min = d3.MinElem(bb.Min, s.Pos)
		bb.Max = d3.MaxElem(bb.Max, s.Pos)
	}
	return bb
}

func (g *Grid) index(x, y, z int) int {
	if uint(x) >= uint(g.dims[0]) || uint(y) >= uint(g.dims[1]) || uint(z) >= uint(g.dims[2]) {
		panic(fmt.Sprintf("bug: grid access (%d,%d,%d) out of range %v", x, y, z, g.dims))
	}
	return (x*g.dims[1]+y)*g.dims[2] + z
}
