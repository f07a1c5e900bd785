package volmesh

import (
	"github.com/soypat/volmesh/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Normalizer is implemented by volumes that can recenter their sample
// positions in place.
type Normalizer interface {
	// Normalize translates sample positions so that the volume is centered
	// at the origin and returns the translation applied. Calls after the
	// first are no-ops that return the original translation.
	Normalize() r3.Vec
}

// Normalize translates every sample by -max/2 on each axis, where max is
// the largest position component found on that axis (the smallest is
// assumed to be zero). It runs once: later calls return the same
// translation without moving samples again.
func (g *Grid) Normalize() r3.Vec {
	if g.centered {
		return g.offset
	}
	g.offset = r3.Scale(-0.5, maxPos(g))
	for i := range g.samples {
		g.samples[i].Pos = r3.Add(g.samples[i].Pos, g.offset)
	}
	g.centered = true
	return g.offset
}

// Recenter runs the normalization step on v. Volumes implementing
// Normalizer are translated in place; any other volume is wrapped in a
// read only view that applies the translation on access.
func Recenter(v Volume) Volume {
	if n, ok := v.(Normalizer); ok {
		n.Normalize()
		return v
	}
	if c, ok := v.(centered); ok {
		return c
	}
	return centered{Volume: v, offset: r3.Scale(-0.5, maxPos(v))}
}

// Offset returns the translation a Recenter view applies to sample
// positions and true, or false if v is not such a view.
func Offset(v Volume) (r3.Vec, bool) {
	c, ok := v.(centered)
	return c.offset, ok
}

type centered struct {
	Volume
	offset r3.Vec
}

func (c centered) Sample(x, y, z int) Sample {
	s := c.Volume.Sample(x, y, z)
	s.Pos = r3.Add(s.Pos, c.offset)
	return s
}

func maxPos(v Volume) r3.Vec {
	d := Dims(v)
	var max r3.Vec
	first := true
	for x := 0; x < d[0]; x++ {
		for y := 0; y < d[1]; y++ {
			for z := 0; z < d[2]; z++ {
				p := v.Sample(x, y, z).Pos
				if first {
					max, first = p, false
					continue
				}
				max = d3.MaxElem(max, p)
			}
		}
	}
	return max
}
