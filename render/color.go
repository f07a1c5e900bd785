package render

import "github.com/soypat/volmesh"

// colourFunc returns the colour of a vertex created by the cell at grid
// coordinates cell.
type colourFunc func(cell volmesh.V3i) [3]float32

// flatColour returns a colourFunc that always returns c.
func flatColour(c [3]float32) colourFunc {
	return func(volmesh.V3i) [3]float32 { return c }
}

// gridColour returns a colourFunc mapping cell coordinates to the RGB
// gradient (x/W, y/H, z/D) where dims are the volume extents.
func gridColour(dims volmesh.V3i) colourFunc {
	w, h, d := float32(dims[0]), float32(dims[1]), float32(dims[2])
	return func(cell volmesh.V3i) [3]float32 {
		return [3]float32{float32(cell[0]) / w, float32(cell[1]) / h, float32(cell[2]) / d}
	}
}

func (cfg Config) colourFunc(dims volmesh.V3i) colourFunc {
	if cfg.Colours {
		return gridColour(dims)
	}
	return flatColour(cfg.FlatColour)
}
