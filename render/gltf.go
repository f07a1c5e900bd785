package render

import (
	"io"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// CreateGLB writes the mesh to a binary glTF file at path.
func CreateGLB(path string, m *Mesh) error {
	doc, err := gltfDocument(m)
	if err != nil {
		return err
	}
	return gltf.SaveBinary(doc, path)
}

// WriteGLB writes the mesh to w as binary glTF. The document holds a single
// node and mesh whose primitive carries POSITION, NORMAL and COLOR_0
// attributes and uint32 indices.
func WriteGLB(w io.Writer, m *Mesh) error {
	doc, err := gltfDocument(m)
	if err != nil {
		return err
	}
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	return enc.Encode(doc)
}

func gltfDocument(m *Mesh) (*gltf.Document, error) {
	if m.NumTriangles() == 0 {
		return nil, ErrEmptyMesh
	}
	nv := m.NumVertices()
	positions := make([][3]float32, nv)
	normals := make([][3]float32, nv)
	colours := make([][4]float32, nv)
	for i := 0; i < nv; i++ {
		copy(positions[i][:], m.Vertices[3*i:])
		copy(normals[i][:], m.Normals[3*i:])
		copy(colours[i][:3], m.Colours[3*i:])
		colours[i][3] = 1
	}
	indices := make([]uint32, len(m.Indices))
	copy(indices, m.Indices)

	doc := gltf.NewDocument()
	doc.Asset.Generator = "volmesh"
	posAccessor := modeler.WritePosition(doc, positions)
	normalAccessor := modeler.WriteNormal(doc, normals)
	colourAccessor := modeler.WriteColor(doc, colours)
	indicesAccessor := modeler.WriteIndices(doc, indices)
	prim := &gltf.Primitive{
		Attributes: map[string]uint32{
			gltf.POSITION: uint32(posAccessor),
			gltf.NORMAL:   uint32(normalAccessor),
			gltf.COLOR_0:  uint32(colourAccessor),
		},
		Indices:  gltf.Index(uint32(indicesAccessor)),
		Material: gltf.Index(0),
	}
	doc.Materials = []*gltf.Material{{
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float32{1, 1, 1, 1},
			MetallicFactor:  gltf.Float(0),
			RoughnessFactor: gltf.Float(1),
		},
		AlphaMode: gltf.AlphaOpaque,
	}}
	doc.Meshes = []*gltf.Mesh{{Name: "isosurface", Primitives: []*gltf.Primitive{prim}}}
	doc.Nodes = []*gltf.Node{{Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	return doc, nil
}
