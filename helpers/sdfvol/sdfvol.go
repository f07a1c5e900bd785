// Package sdfvol builds volumes by sampling signed distance functions.
package sdfvol

import (
	"errors"
	"math"

	"github.com/deadsy/sdfx/sdf"
	"github.com/soypat/volmesh"
	"github.com/soypat/volmesh/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Sample evaluates s on a regular lattice covering its bounding box and
// returns the distances as a grid. The longest axis of the box is divided
// into cells cells and the other axes use the same spacing. The surface of
// s is the isosurface of the grid at level 0.
func Sample(s sdf.SDF3, cells int) (*volmesh.Grid, error) {
	if cells < 1 {
		return nil, errors.New("need at least one cell along the longest axis")
	}
	sbb := s.BoundingBox()
	// Scale the bounding box about the center to make sure the boundaries
	// aren't on the object surface.
	bb := d3.Box{Min: fromV3(sbb.Min), Max: fromV3(sbb.Max)}.ScaleAboutCenter(1.01)
	size := bb.Size()
	step := d3.Max(size) / float64(cells)
	dims := volmesh.V3i{
		int(math.Ceil(size.X/step)) + 1,
		int(math.Ceil(size.Y/step)) + 1,
		int(math.Ceil(size.Z/step)) + 1,
	}
	g, err := volmesh.NewGrid(dims[0], dims[1], dims[2])
	if err != nil {
		return nil, err
	}
	for x := 0; x < dims[0]; x++ {
		for y := 0; y < dims[1]; y++ {
			for z := 0; z < dims[2]; z++ {
				p := r3.Add(bb.Min, r3.Scale(step, volmesh.V3i{x, y, z}.ToV3()))
				g.SetPos(x, y, z, p)
				g.SetValue(x, y, z, s.Evaluate(sdf.V3{X: p.X, Y: p.Y, Z: p.Z}))
			}
		}
	}
	return g, nil
}

// Sphere returns an n×n×n grid whose values are the distance of each sample
// from the grid center. The isosurface at level r is a sphere of radius r in
// grid units. Positions are grid coordinates.
func Sphere(n int) (*volmesh.Grid, error) {
	g, err := volmesh.NewGrid(n, n, n)
	if err != nil {
		return nil, err
	}
	c := d3.Elem(float64(n-1) / 2)
	g.Fill(func(_, _, _ int, pos r3.Vec) float64 {
		return r3.Norm(r3.Sub(pos, c))
	})
	return g, nil
}

// Shape samples a sphere of radius r and a rounded box of side 2r from sdfx
// joined together, a non star shaped test solid.
func Shape(r float64, cells int) (*volmesh.Grid, error) {
	sphere, err := sdf.Sphere3D(r)
	if err != nil {
		return nil, err
	}
	box, err := sdf.Box3D(sdf.V3{X: 2 * r, Y: 2 * r, Z: 2 * r}, r/4)
	if err != nil {
		return nil, err
	}
	box = sdf.Transform3D(box, sdf.Translate3d(sdf.V3{X: 1.5 * r}))
	return Sample(sdf.Union3D(sphere, box), cells)
}

func fromV3(v sdf.V3) r3.Vec { return r3.Vec{X: v.X, Y: v.Y, Z: v.Z} }
