package render

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/sirupsen/logrus"
)

// DefaultEpsilon is the tolerance below which two scalar values are
// considered equal during edge interpolation.
const DefaultEpsilon = 1e-5

// NormalMode selects how vertex normals are estimated.
type NormalMode uint8

const (
	// NormalsAveraged sets each vertex normal to the normalized sum of the
	// face normals of its incident triangles.
	NormalsAveraged NormalMode = iota
	// NormalsRadial sets each vertex normal to the unit vector from the
	// volume center to the vertex. It is only correct for surfaces that
	// are star shaped around the volume center.
	NormalsRadial
)

func (m NormalMode) String() string {
	switch m {
	case NormalsAveraged:
		return "averaged"
	case NormalsRadial:
		return "radial"
	}
	return fmt.Sprintf("NormalMode(%d)", uint8(m))
}

var (
	// FlatGray is the default vertex colour when procedural colouring is off.
	FlatGray = [3]float32{0.6, 0.6, 0.6}
	// FlatWhite is an alternative flat vertex colour.
	FlatWhite = [3]float32{1, 1, 1}
)

// Config holds the parameters of an isosurface extraction.
// The zero value is not ready for use, see DefaultConfig.
type Config struct {
	// IsoLevel is the threshold of the surface. A corner is inside the
	// surface when its value is strictly below IsoLevel.
	IsoLevel float64
	// Colours enables procedural vertex colouring from grid position.
	// When false every vertex gets FlatColour.
	Colours    bool
	FlatColour [3]float32
	// Epsilon is the tolerance of the edge interpolation snapping rules.
	Epsilon float64
	// FlipDepth negates the z component of interpolated points, the depth
	// convention of renderers looking down +z.
	FlipDepth bool
	// ReverseWinding emits each triangle's indices in reverse table order.
	// With FlipDepth off this makes face normals point towards increasing
	// field values. Enabling both FlipDepth and ReverseWinding reproduces
	// the buffers of left handed OpenGL style viewers.
	ReverseWinding bool
	// Recenter translates the volume so that it is centered at the origin
	// before classification.
	Recenter bool
	// WeldTolerance selects the vertex welding key. Zero welds vertices
	// whose float32 output coordinates are bit identical. A positive value
	// welds vertices that round to the same multiple of WeldTolerance.
	WeldTolerance float64
	// DropDegenerate discards triangles with repeated vertex indices.
	DropDegenerate bool
	Normals        NormalMode
	// Workers is the number of concurrent slab workers. Values <= 1 run
	// the single threaded sweep. Output does not depend on Workers.
	Workers int
	// Log receives extraction reports. Nil discards them.
	Log logrus.FieldLogger
}

// DefaultConfig returns the configuration used by ExtractIsosurface.
func DefaultConfig(isoLevel float64) Config {
	return Config{
		IsoLevel:       isoLevel,
		FlatColour:     FlatGray,
		Epsilon:        DefaultEpsilon,
		ReverseWinding: true,
		Recenter:       true,
		Normals:        NormalsAveraged,
		Workers:        1,
	}
}

// LegacyConfig returns a configuration whose buffers match viewers using a
// depth flipped coordinate system, the convention of the slice viewer this
// package grew out of.
func LegacyConfig(isoLevel float64, colours bool) Config {
	cfg := DefaultConfig(isoLevel)
	cfg.Colours = colours
	cfg.FlipDepth = true
	return cfg
}

// Validate checks the configuration for values that can not produce a mesh.
func (cfg Config) Validate() error {
	switch {
	case math.IsNaN(cfg.IsoLevel) || math.IsInf(cfg.IsoLevel, 0):
		return errors.New("iso level must be finite")
	case math.IsNaN(cfg.Epsilon) || cfg.Epsilon < 0:
		return errors.New("epsilon must be a non-negative number")
	case math.IsNaN(cfg.WeldTolerance) || math.IsInf(cfg.WeldTolerance, 0) || cfg.WeldTolerance < 0:
		return errors.New("weld tolerance must be a finite non-negative number")
	case cfg.Normals > NormalsRadial:
		return fmt.Errorf("unknown normal mode %v", cfg.Normals)
	}
	return nil
}

func (cfg Config) logger() logrus.FieldLogger {
	if cfg.Log != nil {
		return cfg.Log
	}
	return discardLogger
}

var discardLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()
