package render

import (
	"math"
	"math/bits"
	"math/rand"
	"testing"

	"github.com/soypat/volmesh"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestMarchingCubes(t *testing.T) {
	max := 0
	for _, tri := range mcTriangleTable {
		if len(tri) > max {
			max = len(tri)
		}
	}
	got := max / 3
	if got != marchingCubesMaxTriangles {
		t.Errorf("mismatch marching cubes max triangles. got %d. want %d", got, marchingCubesMaxTriangles)
	}
}

func TestCaseTables(t *testing.T) {
	for mask := 0; mask < 256; mask++ {
		row := mcTriangleTable[mask]
		if len(row)%3 != 0 {
			t.Errorf("case %#02x: row length %d not a multiple of 3", mask, len(row))
		}
		// An edge is crossed iff its corners lie on different sides.
		var want uint16
		for i, e := range mcEdges {
			if (mask>>e[0])&1 != (mask>>e[1])&1 {
				want |= 1 << i
			}
		}
		if mcEdgeTable[mask] != want {
			t.Errorf("case %#02x: edge table %#03x, corners give %#03x", mask, mcEdgeTable[mask], want)
		}
		var used uint16
		for _, edge := range row {
			if edge >= 12 {
				t.Fatalf("case %#02x: edge index %d out of range", mask, edge)
			}
			used |= 1 << edge
		}
		if used != want {
			t.Errorf("case %#02x: triangles use edges %#03x, want %#03x", mask, used, want)
		}
	}
	if len(mcTriangleTable[0]) != 0 || len(mcTriangleTable[255]) != 0 {
		t.Error("cases 0 and 255 must not produce triangles")
	}
}

func TestEdgeCorners(t *testing.T) {
	for i, e := range mcEdges {
		a, b := mcCorners[e[0]], mcCorners[e[1]]
		diff := 0
		for axis := 0; axis < 3; axis++ {
			switch b[axis] - a[axis] {
			case 0:
			case 1:
				diff++
			default:
				t.Errorf("edge %d: corner %d must precede corner %d along the edge axis", i, e[0], e[1])
			}
		}
		if diff != 1 {
			t.Errorf("edge %d joins corners %v and %v which are not adjacent", i, a, b)
		}
	}
}

func TestInterpolate(t *testing.T) {
	p1 := volmesh.Sample{Pos: r3.Vec{X: 0, Y: 0, Z: 1}}
	p2 := volmesh.Sample{Pos: r3.Vec{X: 2, Y: 0, Z: 1}}
	ip := interpolator{iso: 0.5, eps: DefaultEpsilon}
	for _, test := range []struct {
		name   string
		v1, v2 float64
		want   r3.Vec
	}{
		{name: "midpoint", v1: 0, v2: 1, want: r3.Vec{X: 1, Z: 1}},
		{name: "quarter", v1: 0, v2: 2, want: r3.Vec{X: 0.5, Z: 1}},
		{name: "descending", v1: 1, v2: 0, want: r3.Vec{X: 1, Z: 1}},
		{name: "snap p1", v1: 0.5 + 1e-7, v2: 1, want: p1.Pos},
		{name: "snap p2", v1: 0, v2: 0.5 - 1e-7, want: p2.Pos},
		{name: "both at iso prefers p1", v1: 0.5, v2: 0.5, want: p1.Pos},
		{name: "flat edge", v1: 3, v2: 3 + 1e-7, want: p1.Pos},
	} {
		p1.Value, p2.Value = test.v1, test.v2
		got := ip.interpolate(p1, p2)
		if got != test.want {
			t.Errorf("%s: got %v, want %v", test.name, got, test.want)
		}
	}
	ip.flipDepth = true
	p1.Value, p2.Value = 0, 1
	got := ip.interpolate(p1, p2)
	if got != (r3.Vec{X: 1, Z: -1}) {
		t.Errorf("flipped depth: got %v", got)
	}
}

// Cells that share an edge must compute bit identical crossing points.
func TestSharedEdgeIdentical(t *testing.T) {
	const n = 5
	rng := rand.New(rand.NewSource(1))
	g, err := volmesh.NewGrid(n, n, n)
	if err != nil {
		t.Fatal(err)
	}
	g.Fill(func(x, y, z int, pos r3.Vec) float64 { return rng.Float64() })
	g.Normalize()
	dims := g.Dims()
	ip := interpolator{iso: 0.5, eps: DefaultEpsilon, flipDepth: true}
	seen := make(map[[2]volmesh.V3i]r3.Vec)
	shared := 0
	var c cellCorners
	for x := 0; x < n-1; x++ {
		for y := 0; y < n-1; y++ {
			for z := 0; z < n-1; z++ {
				c.load(g, dims, volmesh.V3i{x, y, z})
				for _, e := range mcEdges {
					key := [2]volmesh.V3i{c.origin.Add(mcCorners[e[0]]), c.origin.Add(mcCorners[e[1]])}
					p := ip.interpolate(c.samples[e[0]], c.samples[e[1]])
					if prev, ok := seen[key]; ok {
						shared++
						if prev != p {
							t.Fatalf("edge %v: got %v and %v from adjacent cells", key, prev, p)
						}
					}
					seen[key] = p
				}
			}
		}
	}
	if shared == 0 {
		t.Fatal("no shared edges found")
	}
}

func TestCaseMask(t *testing.T) {
	var c cellCorners
	for i := range c.samples {
		c.samples[i].Value = 1
	}
	if got := c.caseMask(0.5); got != 0 {
		t.Errorf("all above: got mask %#02x", got)
	}
	if got := c.caseMask(2); got != 255 {
		t.Errorf("all below: got mask %#02x", got)
	}
	c.samples[0].Value = 0.5
	if got := c.caseMask(0.5); got != 0 {
		t.Errorf("value equal to iso is not below: got mask %#02x", got)
	}
	c.samples[0].Value = 0
	c.samples[6].Value = 0
	if got := c.caseMask(0.5); got != 0b0100_0001 {
		t.Errorf("got mask %#08b, want corners 0 and 6", got)
	}
}

func TestCellTrianglesCount(t *testing.T) {
	ip := interpolator{iso: 0.5, eps: DefaultEpsilon}
	var c cellCorners
	for i, off := range mcCorners {
		c.samples[i].Pos = off.ToV3()
	}
	var buf [marchingCubesMaxTriangles]Triangle3
	for mask := 0; mask < 256; mask++ {
		for i := range c.samples {
			c.samples[i].Value = 1
			if mask&(1<<i) != 0 {
				c.samples[i].Value = 0
			}
		}
		n := ip.cellTriangles(buf[:], &c)
		if n != len(mcTriangleTable[mask])/3 {
			t.Errorf("case %#02x: got %d triangles", mask, n)
		}
		if n > 0 && bits.OnesCount16(mcEdgeTable[mask]) < 3 {
			t.Errorf("case %#02x: triangles from fewer than 3 crossed edges", mask)
		}
		for _, tri := range buf[:n] {
			if tri.Degenerate(1e-9) {
				t.Errorf("case %#02x: degenerate triangle %v", mask, tri)
			}
		}
	}
}

func TestCellOutOfRangePanics(t *testing.T) {
	g, _ := volmesh.NewGrid(2, 2, 2)
	defer func() {
		if recover() == nil {
			t.Error("expected panic loading a cell outside the volume")
		}
	}()
	var c cellCorners
	c.load(g, g.Dims(), volmesh.V3i{1, 0, 0})
}

func TestWeldKey(t *testing.T) {
	w := newWelder(0, flatColour(FlatGray), 0)
	if w.key(r3.Vec{X: math.Copysign(0, -1)}) != w.key(r3.Vec{}) {
		t.Error("negative zero must weld with zero")
	}
	if w.key(r3.Vec{X: 1}) == w.key(r3.Vec{X: 1 + 1e-6}) {
		t.Error("exact keys must differ for distinct float32 values")
	}
	q := newWelder(0.01, flatColour(FlatGray), 0)
	if q.key(r3.Vec{X: 1}) != q.key(r3.Vec{X: 1.004}) {
		t.Error("quantized keys must weld within half a tolerance")
	}
	a := w.add(w.key(r3.Vec{X: 1}), r3.Vec{X: 1}, volmesh.V3i{})
	b := w.add(w.key(r3.Vec{X: 1}), r3.Vec{X: 1}, volmesh.V3i{1, 1, 1})
	if a != b || w.len() != 1 || w.hits != 1 {
		t.Errorf("welding same position: got indices %d %d, %d vertices", a, b, w.len())
	}
}

func TestSplitSlabs(t *testing.T) {
	for _, test := range []struct{ cells, n, want int }{
		{10, 3, 3}, {2, 8, 2}, {1, 4, 1}, {7, 0, 1},
	} {
		slabs := splitSlabs(test.cells, test.n)
		if len(slabs) != test.want {
			t.Errorf("split %d cells in %d: got %d slabs", test.cells, test.n, len(slabs))
		}
		x := 0
		for _, s := range slabs {
			if s.x0 != x || s.x1 <= s.x0 {
				t.Errorf("split %d cells in %d: slabs %v not contiguous", test.cells, test.n, slabs)
			}
			x = s.x1
		}
		if x != test.cells {
			t.Errorf("split %d cells in %d: slabs end at %d", test.cells, test.n, x)
		}
	}
}

func TestGridColour(t *testing.T) {
	c := gridColour(volmesh.V3i{4, 2, 8})(volmesh.V3i{1, 1, 2})
	if c != [3]float32{0.25, 0.5, 0.25} {
		t.Errorf("got colour %v", c)
	}
}
