// Package preview rasterises extracted meshes to images in software.
package preview

import (
	"errors"
	"image"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"github.com/soypat/volmesh/internal/d3"
	"github.com/soypat/volmesh/render"
	"gonum.org/v1/gonum/spatial/r3"
)

// View describes the camera and output of a preview.
type View struct {
	// what position (point) to look at
	LookAt r3.Vec
	// which way is up (direction)
	Up r3.Vec
	// where the camera/eye located at (point)
	Eye       r3.Vec
	Near, Far float64
	// Output width and height in pixels.
	Width, Height int
	// Supersampling factor, values below 2 disable it.
	Scale int
	// Background colour as hex string.
	Background string
	// Object colour as hex string. Empty uses the mesh vertex colours.
	Colour string
}

// DefaultView is an isometric view of a mesh scaled to the bi-unit cube.
var DefaultView = View{
	Up:         r3.Vec{Y: 1},
	Eye:        d3.Elem(2.4),
	Near:       1,
	Far:        10,
	Width:      768,
	Height:     432,
	Scale:      2,
	Background: "#FFF8E3",
}

// Render draws m with a Phong shader. The mesh is fit in a bi-unit cube
// centered at the origin; m is not modified.
func Render(m *render.Mesh, view View) (image.Image, error) {
	if m.NumTriangles() == 0 {
		return nil, render.ErrEmptyMesh
	}
	if view.Width <= 0 || view.Height <= 0 {
		return nil, errors.New("preview size must be positive")
	}
	const fovy = 30 // vertical field of view in degrees
	scale := view.Scale
	if scale < 1 {
		scale = 1
	}
	var (
		eye    = vec(view.Eye)
		center = vec(view.LookAt)
		up     = vec(view.Up)
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize() // light direction
	)
	mesh := toFauxgl(m)
	// fit mesh in a bi-unit cube centered at the origin
	mesh.BiUnitCube()
	context := fauxgl.NewContext(view.Width*scale, view.Height*scale)
	context.ClearColorBufferWith(fauxgl.HexColor(view.Background))
	aspect := float64(view.Width) / float64(view.Height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(fovy, aspect, view.Near, view.Far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	if view.Colour != "" {
		shader.ObjectColor = fauxgl.HexColor(view.Colour)
	} else {
		// Discard makes the shader use vertex colours.
		shader.ObjectColor = fauxgl.Discard
	}
	context.Shader = shader
	context.DrawMesh(mesh)
	img := context.Image()
	if scale > 1 {
		// downsample image for antialiasing
		img = resize.Resize(uint(view.Width), uint(view.Height), img, resize.Bilinear)
	}
	return img, nil
}

// SavePNG renders m and writes the image to path.
func SavePNG(path string, m *render.Mesh, view View) error {
	img, err := Render(m, view)
	if err != nil {
		return err
	}
	return fauxgl.SavePNG(path, img)
}

func toFauxgl(m *render.Mesh) *fauxgl.Mesh {
	vertex := func(i uint32) fauxgl.Vertex {
		p, n, c := m.Vertices[3*i:], m.Normals[3*i:], m.Colours[3*i:]
		return fauxgl.Vertex{
			Position: fauxgl.V(float64(p[0]), float64(p[1]), float64(p[2])),
			Normal:   fauxgl.V(float64(n[0]), float64(n[1]), float64(n[2])),
			Color:    fauxgl.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: 1},
		}
	}
	tris := make([]*fauxgl.Triangle, 0, m.NumTriangles())
	for i := 0; i < len(m.Indices); i += 3 {
		tris = append(tris, fauxgl.NewTriangle(vertex(m.Indices[i]), vertex(m.Indices[i+1]), vertex(m.Indices[i+2])))
	}
	return fauxgl.NewTriangleMesh(tris)
}

func vec(v r3.Vec) fauxgl.Vector { return fauxgl.V(v.X, v.Y, v.Z) }
