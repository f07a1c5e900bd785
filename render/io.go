package render

import "io"

// ReadAll reads the full contents of a TriangleReader and returns the slice read.
// It does not return error on io.EOF, like the io.ReadAll implementation.
func ReadAll(r TriangleReader) ([]Triangle3, error) {
	var err error
	var nt int
	result := make([]Triangle3, 0, 1<<12)
	buf := make([]Triangle3, 1024)
	for {
		nt, err = r.ReadTriangles(buf)
		result = append(result, buf[:nt]...)
		if err != nil {
			break
		}
	}
	if err == io.EOF {
		return result, nil
	}
	return result, err
}

// NewMeshReader returns a TriangleReader over the triangles of m in index
// buffer winding. The mesh must not be modified while being read.
func NewMeshReader(m *Mesh) TriangleReader {
	return &meshReader{m: m}
}

type meshReader struct {
	m    *Mesh
	next int
}

func (r *meshReader) ReadTriangles(dst []Triangle3) (int, error) {
	if len(dst) == 0 {
		panic("cannot write to empty triangle slice")
	}
	n := 0
	for n < len(dst) && r.next < r.m.NumTriangles() {
		dst[n] = r.m.Triangle(r.next)
		n++
		r.next++
	}
	if r.next == r.m.NumTriangles() {
		return n, io.EOF
	}
	return n, nil
}
