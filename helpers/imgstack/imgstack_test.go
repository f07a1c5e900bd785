package imgstack

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/mholt/archiver/v3"
	"github.com/soypat/volmesh/render"
)

// writeSlice writes a w×h gray PNG where pixel (x,y) has value f(x,y).
func writeSlice(t *testing.T, path string, w, h int, f func(x, y int) uint8) {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.SetGray(x, y, color.Gray{Y: f(x, y)})
		}
	}
	fp, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer fp.Close()
	if err := png.Encode(fp, img); err != nil {
		t.Fatal(err)
	}
}

// writeStack writes n slices named slice<i>.png whose uniform value is
// 10*i, so natural ordering can be checked from values.
func writeStack(t *testing.T, dir string, n, w, h int) []string {
	var paths []string
	for i := 0; i < n; i++ {
		i := i
		p := filepath.Join(dir, "slice"+strconv.Itoa(i)+".png")
		writeSlice(t, p, w, h, func(x, y int) uint8 { return uint8(10 * i) })
		paths = append(paths, p)
	}
	return paths
}

func TestLoadNaturalOrder(t *testing.T) {
	dir := t.TempDir()
	writeStack(t, dir, 12, 3, 4)
	// Files of other types are ignored.
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("scan"), 0o644)
	g, err := Load(dir, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if g.Width() != 3 || g.Height() != 12 || g.Depth() != 4 {
		t.Fatalf("got dims %v, want 3x12x4", g.Dims())
	}
	for y := 0; y < 12; y++ {
		want := float64(10*y) / 255
		if got := g.Sample(1, y, 2).Value; !near(got, want) {
			t.Errorf("slice %d: got value %g, want %g", y, got, want)
		}
	}
	if p := g.Sample(2, 5, 3).Pos; p.X != 2 || p.Y != 5 || p.Z != 3 {
		t.Errorf("got position %v, want grid coordinates", p)
	}
}

func TestLoadAxes(t *testing.T) {
	dir := t.TempDir()
	writeSlice(t, filepath.Join(dir, "a.png"), 4, 2, func(x, y int) uint8 { return uint8(50*x + 10*y) })
	writeSlice(t, filepath.Join(dir, "b.png"), 4, 2, func(x, y int) uint8 { return 0 })
	g, err := Load(dir, Options{})
	if err != nil {
		t.Fatal(err)
	}
	// Image column is x, image row is z.
	if got, want := g.Sample(3, 0, 1).Value, float64(50*3+10)/255; !near(got, want) {
		t.Errorf("got %g, want %g", got, want)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir, Options{}); !errors.Is(err, ErrNoSlices) {
		t.Errorf("empty dir: got %v, want ErrNoSlices", err)
	}
	writeSlice(t, filepath.Join(dir, "1.png"), 4, 4, func(x, y int) uint8 { return 0 })
	writeSlice(t, filepath.Join(dir, "2.png"), 4, 5, func(x, y int) uint8 { return 0 })
	if _, err := Load(dir, Options{}); !errors.Is(err, ErrSliceSize) {
		t.Errorf("got %v, want ErrSliceSize", err)
	}
	os.WriteFile(filepath.Join(dir, "3.png"), []byte("not a png"), 0o644)
	if _, err := Load(dir, Options{}); err == nil {
		t.Error("expected decode error")
	}
	if _, err := Load(filepath.Join(dir, "missing"), Options{}); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestLoadDownsample(t *testing.T) {
	dir := t.TempDir()
	writeStack(t, dir, 6, 8, 8)
	g, err := Load(dir, Options{Downsample: 2, Workers: 2})
	if err != nil {
		t.Fatal(err)
	}
	if g.Width() != 4 || g.Height() != 3 || g.Depth() != 4 {
		t.Fatalf("got dims %v, want 4x3x4", g.Dims())
	}
	// Slices 0, 2 and 4 are kept.
	// Resampling may round by one gray level.
	if got, want := g.Sample(0, 2, 0).Value, 40./255; math.Abs(got-want) > 1.5/255 {
		t.Errorf("got %g, want %g", got, want)
	}
	if p := g.Sample(1, 1, 1).Pos; p.X != 2 || p.Y != 2 || p.Z != 2 {
		t.Errorf("got position %v, want coordinates scaled by downsample factor", p)
	}
}

func TestLoadArchive(t *testing.T) {
	dir := t.TempDir()
	paths := writeStack(t, dir, 5, 3, 3)
	zip := filepath.Join(t.TempDir(), "stack.zip")
	if err := archiver.Archive(paths, zip); err != nil {
		t.Fatal(err)
	}
	g, err := LoadArchive(zip, Options{})
	if err != nil {
		t.Fatal(err)
	}
	ref, err := Load(dir, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if g.Dims() != ref.Dims() {
		t.Fatalf("archive dims %v, directory dims %v", g.Dims(), ref.Dims())
	}
	for y := 0; y < g.Height(); y++ {
		if g.Sample(0, y, 0) != ref.Sample(0, y, 0) {
			t.Errorf("slice %d differs between archive and directory", y)
		}
	}
}

func TestLoadExtract(t *testing.T) {
	// A bright cube inside a dark stack.
	dir := t.TempDir()
	const n = 8
	for i := 0; i < n; i++ {
		inside := i >= 2 && i < 6
		writeSlice(t, filepath.Join(dir, "s"+strconv.Itoa(i)+".png"), n, n, func(x, y int) uint8 {
			if inside && x >= 2 && x < 6 && y >= 2 && y < 6 {
				return 0
			}
			return 255
		})
	}
	g, err := Load(dir, Options{})
	if err != nil {
		t.Fatal(err)
	}
	m, err := render.ExtractIsosurface(g, 0.5, true)
	if err != nil {
		t.Fatal(err)
	}
	if m.NumTriangles() == 0 {
		t.Fatal("no surface extracted from stack")
	}
	if err := m.Validate(); err != nil {
		t.Fatal(err)
	}
	bb := m.Bounds()
	if bb.Min.X < -2 || bb.Max.X > 2 {
		t.Errorf("surface bounds %+v exceed the dark block", bb)
	}
}

func TestNaturalLess(t *testing.T) {
	for _, test := range []struct {
		a, b string
		want bool
	}{
		{"slice2.png", "slice10.png", true},
		{"slice10.png", "slice2.png", false},
		{"a", "b", true},
		{"img007", "img7", false},
		{"img7", "img007", true},
		{"x1y2", "x1y10", true},
		{"same", "same", false},
		{"ab", "abc", true},
	} {
		if got := naturalLess(test.a, test.b); got != test.want {
			t.Errorf("naturalLess(%q, %q) = %v, want %v", test.a, test.b, got, test.want)
		}
	}
}

func near(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
