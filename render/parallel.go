package render

import (
	"context"

	"github.com/soypat/volmesh"
	"golang.org/x/sync/errgroup"
)

// cellTriangle is a triangle in table winding and the grid coordinates of
// the cell that produced it.
type cellTriangle struct {
	tri  Triangle3
	cell volmesh.V3i
}

// slab is the range of cells [x0, x1) along x.
type slab struct {
	x0, x1 int
}

// slabResult holds the triangles of a slab in sweep order (x, y then z).
type slabResult struct {
	tris   []cellTriangle
	culled bool
}

// splitSlabs divides cellsX cells into at most n contiguous slabs of
// near equal size.
func splitSlabs(cellsX, n int) []slab {
	if n > cellsX {
		n = cellsX
	}
	if n < 1 {
		n = 1
	}
	slabs := make([]slab, n)
	for i := range slabs {
		slabs[i] = slab{x0: i * cellsX / n, x1: (i + 1) * cellsX / n}
	}
	return slabs
}

// sweep classifies and triangulates every cell of v. With workers <= 1 the
// cells are swept on the calling goroutine, otherwise slabs are processed
// concurrently. Results are returned in slab order so concatenating them
// reproduces the single threaded sweep.
func sweep(ctx context.Context, v volmesh.Volume, dims volmesh.V3i, ip interpolator, workers int) ([]slabResult, error) {
	cellsX := dims[0] - 1
	if workers <= 1 {
		res, err := sweepSlab(ctx, v, dims, ip, slab{x0: 0, x1: cellsX})
		if err != nil {
			return nil, err
		}
		return []slabResult{res}, nil
	}
	// More slabs than workers keeps workers busy when some slabs are culled.
	slabs := splitSlabs(cellsX, 4*workers)
	results := make([]slabResult, len(slabs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, s := range slabs {
		i, s := i, s
		g.Go(func() error {
			res, err := sweepSlab(ctx, v, dims, ip, s)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// sweepSlab triangulates the cells of slab s. The context is checked once
// per x plane.
func sweepSlab(ctx context.Context, v volmesh.Volume, dims volmesh.V3i, ip interpolator, s slab) (slabResult, error) {
	if slabCulled(v, dims, ip.iso, s) {
		return slabResult{culled: true}, nil
	}
	cells := (s.x1 - s.x0) * (dims[1] - 1) * (dims[2] - 1)
	// Most cells of a volume do not intersect the surface.
	tris := make([]cellTriangle, 0, clamp(cells*marchingCubesMaxTriangles/64, 64, 1<<20))
	var (
		c   cellCorners
		buf [marchingCubesMaxTriangles]Triangle3
	)
	for x := s.x0; x < s.x1; x++ {
		if err := ctx.Err(); err != nil {
			return slabResult{}, err
		}
		for y := 0; y < dims[1]-1; y++ {
			for z := 0; z < dims[2]-1; z++ {
				c.load(v, dims, volmesh.V3i{x, y, z})
				nt := ip.cellTriangles(buf[:], &c)
				for _, t := range buf[:nt] {
					tris = append(tris, cellTriangle{tri: t, cell: c.origin})
				}
			}
		}
	}
	return slabResult{tris: tris}, nil
}

// slabCulled reports whether every sample of slab s lies on the same side of
// iso, in which case no cell of the slab can intersect the surface.
func slabCulled(v volmesh.Volume, dims volmesh.V3i, iso float64, s slab) bool {
	var below, above bool
	for x := s.x0; x <= s.x1; x++ {
		for y := 0; y < dims[1]; y++ {
			for z := 0; z < dims[2]; z++ {
				if v.Sample(x, y, z).Value < iso {
					below = true
				} else {
					above = true
				}
				if below && above {
					return false
				}
			}
		}
	}
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
