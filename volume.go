package volmesh

import (
	"errors"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidDims is returned when a grid is constructed with non-positive
// dimensions or with a value count that does not match its dimensions.
var ErrInvalidDims = errors.New("invalid grid dimensions")

// Sample is a scalar value of a volume at a position in space.
type Sample struct {
	Pos   r3.Vec
	Value float64
}

// Volume is a dense 3D grid of samples. Implementations must be safe
// for concurrent reads.
type Volume interface {
	// Width is the number of samples along the x axis.
	Width() int
	// Height is the number of samples along the y axis.
	Height() int
	// Depth is the number of samples along the z axis.
	Depth() int
	// Sample returns the sample at grid coordinates x,y,z.
	Sample(x, y, z int) Sample
}

// Dims returns the extents of v as an integer vector.
func Dims(v Volume) V3i {
	return V3i{v.Width(), v.Height(), v.Depth()}
}

// Cells returns the number of unit cells of v. It is zero when
// any dimension is smaller than 2.
func Cells(v Volume) int {
	d := Dims(v)
	if d.Min() < 2 {
		return 0
	}
	return d.SubScalar(1).Prod()
}

// ValueRange returns the smallest and largest sample values of v.
func ValueRange(v Volume) (min, max float64) {
	if g, ok := v.(*Grid); ok {
		return g.ValueRange()
	}
	d := Dims(v)
	if d.Min() < 1 {
		return 0, 0
	}
	min = v.Sample(0, 0, 0).Value
	max = min
	for x := 0; x < d[0]; x++ {
		for y := 0; y < d[1]; y++ {
			for z := 0; z < d[2]; z++ {
				val := v.Sample(x, y, z).Value
				if val < min {
					min = val
				}
				if val > max {
					max = val
				}
			}
		}
	}
	return min, max
}
