package render_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/soypat/volmesh/render"
)

func TestGLBWrite(t *testing.T) {
	cfg := render.DefaultConfig(sphereRadius)
	cfg.Colours = true
	m, err := render.Extract(sphere(t), cfg)
	if err != nil {
		t.Fatal(err)
	}
	var b bytes.Buffer
	if err := render.WriteGLB(&b, m); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(b.Bytes(), []byte("glTF")) {
		t.Fatal("output is not binary glTF")
	}
	var doc gltf.Document
	if err := gltf.NewDecoder(&b).Decode(&doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Meshes) != 1 || len(doc.Meshes[0].Primitives) != 1 {
		t.Fatalf("got %d meshes", len(doc.Meshes))
	}
	prim := doc.Meshes[0].Primitives[0]
	for _, attr := range []string{gltf.POSITION, gltf.NORMAL, gltf.COLOR_0} {
		idx, ok := prim.Attributes[attr]
		if !ok {
			t.Fatalf("missing attribute %s", attr)
		}
		if got := doc.Accessors[idx].Count; got != uint32(m.NumVertices()) {
			t.Errorf("%s: got %d elements, want %d", attr, got, m.NumVertices())
		}
	}
	if prim.Indices == nil {
		t.Fatal("missing indices")
	}
	if got := doc.Accessors[*prim.Indices].Count; got != uint32(len(m.Indices)) {
		t.Errorf("got %d indices, want %d", got, len(m.Indices))
	}
}

func TestGLBCreate(t *testing.T) {
	m := sphereMesh(t)
	path := filepath.Join(t.TempDir(), "sphere.glb")
	if err := render.CreateGLB(path, m); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	// Positions, normals, colours and indices at least.
	if min := int64(4 * (3*3*m.NumVertices() + len(m.Indices))); info.Size() < min {
		t.Errorf("file size %d smaller than buffer size %d", info.Size(), min)
	}
}
