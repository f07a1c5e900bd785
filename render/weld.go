package render

import (
	"fmt"
	"math"

	"github.com/soypat/volmesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// weldKey identifies a welded vertex. In exact mode it holds the float32 bit
// patterns of the output coordinates, otherwise the coordinates rounded to
// multiples of the weld tolerance.
type weldKey [3]int64

// welder deduplicates vertices into an append-only vertex list.
// It is not safe for concurrent use.
type welder struct {
	tol     float64
	lookup  map[weldKey]uint32
	verts   []float32
	colours []float32
	colour  colourFunc
	// hits counts lookups that reused an existing vertex.
	hits int
}

func newWelder(tol float64, colour colourFunc, sizeHint int) *welder {
	return &welder{
		tol:     tol,
		lookup:  make(map[weldKey]uint32, sizeHint),
		verts:   make([]float32, 0, 3*sizeHint),
		colours: make([]float32, 0, 3*sizeHint),
		colour:  colour,
	}
}

// key returns the canonical key of p.
func (w *welder) key(p r3.Vec) weldKey {
	if w.tol > 0 {
		return weldKey{
			int64(math.Round(p.X / w.tol)),
			int64(math.Round(p.Y / w.tol)),
			int64(math.Round(p.Z / w.tol)),
		}
	}
	return weldKey{f32key(p.X), f32key(p.Y), f32key(p.Z)}
}

// f32key folds negative zero onto zero so both weld together.
func f32key(v float64) int64 {
	f := float32(v)
	if f == 0 {
		f = 0
	}
	return int64(math.Float32bits(f))
}

// add returns the index of the vertex with key k, creating it at p with the
// colour of cell if no such vertex exists yet.
func (w *welder) add(k weldKey, p r3.Vec, cell volmesh.V3i) uint32 {
	if idx, ok := w.lookup[k]; ok {
		w.hits++
		return idx
	}
	n := len(w.verts) / 3
	if uint64(n) > math.MaxUint32 {
		panic(fmt.Sprintf("bug: vertex count %d overflows uint32 indices", n))
	}
	idx := uint32(n)
	w.lookup[k] = idx
	c := w.colour(cell)
	w.verts = append(w.verts, float32(p.X), float32(p.Y), float32(p.Z))
	w.colours = append(w.colours, c[0], c[1], c[2])
	return idx
}

func (w *welder) len() int { return len(w.verts) / 3 }
