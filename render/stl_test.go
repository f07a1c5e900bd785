package render_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/soypat/volmesh/internal/d3"
	"github.com/soypat/volmesh/render"
)

func sphereMesh(t testing.TB) *render.Mesh {
	cfg := render.DefaultConfig(sphereRadius)
	cfg.DropDegenerate = true
	m, err := render.Extract(sphere(t), cfg)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestSTLCreateWriteRead(t *testing.T) {
	m := sphereMesh(t)
	path := filepath.Join(t.TempDir(), "sphere.stl")
	err := render.CreateSTL(path, m)
	if err != nil {
		t.Fatal(err)
	}
	fp, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer fp.Close()
	bfile, err := io.ReadAll(fp)
	if err != nil {
		t.Fatal(err)
	}
	var b bytes.Buffer
	err = render.WriteSTL(&b, m)
	if err != nil {
		t.Fatal(err)
	}
	if b.Len() != len(bfile) {
		t.Fatal("WriteSTL and CreateSTL output length mismatch")
	}
	if !bytes.Equal(b.Bytes(), bfile) {
		t.Fatal("WriteSTL and CreateSTL output mismatch")
	}
}

func TestSTLWriteReadback(t *testing.T) {
	m := sphereMesh(t)
	var b bytes.Buffer
	if err := render.WriteSTL(&b, m); err != nil {
		t.Fatal(err)
	}
	output, err := render.ReadSTL(&b)
	if err != nil {
		t.Fatal(err)
	}
	input := m.Triangles()
	if len(output) != len(input) {
		t.Fatalf("length of triangles written/read not equal: %d vs %d", len(input), len(output))
	}
	mismatches := 0
	for iface, expect := range input {
		got := output[iface]
		for i := range expect {
			// Vertices are float32 in both the mesh and the file.
			if !d3.EqualWithin(got[i], expect[i], 0) {
				mismatches++
				t.Errorf("%dth triangle vertex mismatch. got %0.5g, want %0.5g", iface, got[i], expect[i])
			}
		}
		if mismatches > 10 {
			t.Fatal("too many mismatches")
		}
	}
}

func TestSTLEmptyMesh(t *testing.T) {
	m, err := render.ExtractIsosurface(sphere(t), 1000, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := render.WriteSTL(io.Discard, m); !errors.Is(err, render.ErrEmptyMesh) {
		t.Errorf("got %v, want ErrEmptyMesh", err)
	}
	if err := render.CreateSTL(filepath.Join(t.TempDir(), "empty.stl"), m); !errors.Is(err, render.ErrEmptyMesh) {
		t.Errorf("got %v, want ErrEmptyMesh", err)
	}
	if _, err := render.ReadSTL(bytes.NewReader(make([]byte, 84))); !errors.Is(err, render.ErrEmptyMesh) {
		t.Errorf("got %v, want ErrEmptyMesh", err)
	}
}

func TestSTLTruncated(t *testing.T) {
	var b bytes.Buffer
	if err := render.WriteSTL(&b, sphereMesh(t)); err != nil {
		t.Fatal(err)
	}
	if _, err := render.ReadSTL(bytes.NewReader(b.Bytes()[:b.Len()-10])); err == nil {
		t.Error("expected error reading truncated STL")
	}
}
