package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chewxy/math32"
	"github.com/sirupsen/logrus"
	"github.com/soypat/volmesh"
	"github.com/soypat/volmesh/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is an indexed triangle mesh extracted from a volume. Vertices,
// Normals and Colours hold 3 components per vertex; Indices holds 3
// vertex indices per triangle.
type Mesh struct {
	Vertices []float32
	Indices  []uint32
	Normals  []float32
	Colours  []float32
	extents  volmesh.V3i
}

// Width returns the width of the source volume.
func (m *Mesh) Width() int { return m.extents[0] }

// Height returns the height of the source volume.
func (m *Mesh) Height() int { return m.extents[1] }

// Depth returns the depth of the source volume.
func (m *Mesh) Depth() int { return m.extents[2] }

// Extents returns the dimensions of the source volume.
func (m *Mesh) Extents() volmesh.V3i { return m.extents }

func (m *Mesh) NumVertices() int  { return len(m.Vertices) / 3 }
func (m *Mesh) NumTriangles() int { return len(m.Indices) / 3 }

// Vertex returns the position of the i'th vertex.
func (m *Mesh) Vertex(i int) r3.Vec { return vertexAt(m.Vertices, uint32(i)) }

// Triangle returns the i'th triangle in index buffer winding.
func (m *Mesh) Triangle(i int) Triangle3 {
	idx := m.Indices[3*i : 3*i+3]
	return Triangle3{
		vertexAt(m.Vertices, idx[0]),
		vertexAt(m.Vertices, idx[1]),
		vertexAt(m.Vertices, idx[2]),
	}
}

// Triangles expands the indexed mesh into a triangle soup.
func (m *Mesh) Triangles() []Triangle3 {
	tris := make([]Triangle3, m.NumTriangles())
	for i := range tris {
		tris[i] = m.Triangle(i)
	}
	return tris
}

// Bounds returns the bounding box of the mesh vertices. It returns the zero
// box for an empty mesh.
func (m *Mesh) Bounds() r3.Box {
	if m.NumVertices() == 0 {
		return r3.Box{}
	}
	bb := d3.Box{Min: m.Vertex(0), Max: m.Vertex(0)}
	for i := 1; i < m.NumVertices(); i++ {
		bb = bb.Include(m.Vertex(i))
	}
	return r3.Box(bb)
}

// Validate checks the buffers are consistent: equal vertex attribute
// lengths, indices in range, finite values and normals of unit or zero length.
func (m *Mesh) Validate() error {
	const normTol = 1e-4
	nv := m.NumVertices()
	switch {
	case len(m.Vertices)%3 != 0:
		return fmt.Errorf("vertex buffer length %d not a multiple of 3", len(m.Vertices))
	case len(m.Indices)%3 != 0:
		return fmt.Errorf("index buffer length %d not a multiple of 3", len(m.Indices))
	case len(m.Normals) != len(m.Vertices):
		return fmt.Errorf("got %d normal components for %d vertex components", len(m.Normals), len(m.Vertices))
	case len(m.Colours) != len(m.Vertices):
		return fmt.Errorf("got %d colour components for %d vertex components", len(m.Colours), len(m.Vertices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= nv {
			return fmt.Errorf("index %d at %d out of range for %d vertices", idx, i, nv)
		}
	}
	for i := 0; i < nv; i++ {
		v := [3]float32(m.Vertices[3*i : 3*i+3])
		n := [3]float32(m.Normals[3*i : 3*i+3])
		if bad3F32(v) || bad3F32(n) || bad3F32([3]float32(m.Colours[3*i:3*i+3])) {
			return fmt.Errorf("inf/NaN attribute at vertex %d", i)
		}
		norm := math32.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
		if norm != 0 && math32.Abs(norm-1) > normTol {
			return fmt.Errorf("normal of vertex %d has length %g", i, norm)
		}
	}
	return nil
}

// ExtractIsosurface extracts the surface of v at isoLevel with the default
// configuration. It is shorthand for Extract(v, cfg) with cfg set to
// DefaultConfig(isoLevel) and Colours to colours.
func ExtractIsosurface(v volmesh.Volume, isoLevel float64, colours bool) (*Mesh, error) {
	cfg := DefaultConfig(isoLevel)
	cfg.Colours = colours
	return Extract(v, cfg)
}

// Extract extracts the isosurface of v at cfg.IsoLevel using marching cubes.
// If cfg.Recenter is set v is normalized first, in place when v implements
// volmesh.Normalizer. A volume with a dimension smaller than 2 produces an
// empty mesh.
func Extract(v volmesh.Volume, cfg Config) (*Mesh, error) {
	return ExtractContext(context.Background(), v, cfg)
}

// ExtractContext is Extract with cancellation. A cancelled extraction
// returns the context error and no mesh.
func ExtractContext(ctx context.Context, v volmesh.Volume, cfg Config) (*Mesh, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.logger()
	dims := volmesh.Dims(v)
	m := &Mesh{extents: dims}
	if dims.Min() < 2 {
		log.WithField("dims", dims).Warn("invalid volume: need at least 2 samples per axis, returning empty mesh")
		m.Vertices, m.Indices, m.Normals, m.Colours = []float32{}, []uint32{}, []float32{}, []float32{}
		return m, nil
	}
	start := time.Now()
	if cfg.Recenter {
		v = volmesh.Recenter(v)
	}
	ip := interpolator{iso: cfg.IsoLevel, eps: cfg.Epsilon, flipDepth: cfg.FlipDepth}
	slabs, err := sweep(ctx, v, dims, ip, cfg.Workers)
	if err != nil {
		return nil, err
	}
	var ntri, culled int
	for _, s := range slabs {
		ntri += len(s.tris)
		if s.culled {
			culled++
		}
	}
	// Closed surfaces have about half as many vertices as triangles.
	w := newWelder(cfg.WeldTolerance, cfg.colourFunc(dims), ntri/2+1)
	indices := make([]uint32, 0, 3*ntri)
	degenerate := 0
	for _, s := range slabs {
		for _, ct := range s.tris {
			t := ct.tri
			ka, kb, kc := w.key(t[0]), w.key(t[1]), w.key(t[2])
			if ka == kb || kb == kc || kc == ka {
				degenerate++
				if cfg.DropDegenerate {
					continue
				}
			}
			a := w.add(ka, t[0], ct.cell)
			b := w.add(kb, t[1], ct.cell)
			c := w.add(kc, t[2], ct.cell)
			if cfg.ReverseWinding {
				a, c = c, a
			}
			indices = append(indices, a, b, c)
		}
	}
	m.Vertices, m.Colours, m.Indices = w.verts, w.colours, indices
	switch cfg.Normals {
	case NormalsAveraged:
		m.Normals = averagedNormals(m.Vertices, m.Indices)
	case NormalsRadial:
		m.Normals = radialNormals(m.Vertices, volumeCenter(v, cfg.FlipDepth))
	default:
		panic("bug: unhandled normal mode " + cfg.Normals.String())
	}
	log.WithFields(logrus.Fields{
		"dims":       dims,
		"cells":      volmesh.Cells(v),
		"slabs":      len(slabs),
		"culled":     culled,
		"triangles":  m.NumTriangles(),
		"vertices":   m.NumVertices(),
		"welded":     w.hits,
		"degenerate": degenerate,
		"elapsed":    time.Since(start),
	}).Debug("isosurface extracted")
	return m, nil
}

// ErrEmptyMesh is returned by encoders given a mesh without triangles.
var ErrEmptyMesh = errors.New("empty mesh")
