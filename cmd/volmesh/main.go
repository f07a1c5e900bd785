// Command volmesh extracts the isosurface of a stack of image slices and
// writes it as STL or binary glTF, optionally with a PNG preview.
//
//	volmesh -dir ./scan -iso 0.4 -colours -out scan.glb -preview scan.png
//
// The slice directory may also be a zip or tar archive of slices.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/soypat/volmesh/helpers/imgstack"
	"github.com/soypat/volmesh/helpers/preview"
	"github.com/soypat/volmesh/render"
	"gonum.org/v1/gonum/spatial/r3"
)

func main() {
	log := logrus.New()
	if err := run(os.Args[1:], os.Stderr, log); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

func run(args []string, stderr io.Writer, log *logrus.Logger) error {
	opts := defaultOptions()
	fs := flag.NewFlagSet("volmesh", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML or TOML file with default option values. Flags take precedence.")
	fs.StringVar(&opts.Dir, "dir", opts.Dir, "Directory or archive of image slices.")
	fs.Float64Var(&opts.Iso, "iso", opts.Iso, "Iso level in slice intensity units [0,1].")
	fs.BoolVar(&opts.Colours, "colours", opts.Colours, "Colour vertices by position in the volume.")
	fs.StringVar(&opts.Out, "out", opts.Out, "Output mesh path, the .stl or .glb extension selects the format.")
	fs.StringVar(&opts.Preview, "preview", opts.Preview, "Optional PNG preview path.")
	fs.IntVar(&opts.Downsample, "downsample", opts.Downsample, "Keep every n'th slice and shrink slices by n.")
	fs.IntVar(&opts.Workers, "workers", opts.Workers, "Concurrent extraction workers.")
	fs.BoolVar(&opts.FlipDepth, "flipdepth", opts.FlipDepth, "Negate depth of output vertices.")
	fs.BoolVar(&opts.Reverse, "reverse", opts.Reverse, "Reverse triangle winding.")
	fs.Float64Var(&opts.WeldTol, "weldtol", opts.WeldTol, "Vertex weld tolerance, 0 welds bit identical vertices only.")
	fs.BoolVar(&opts.Radial, "radial", opts.Radial, "Use normals pointing away from the volume center.")
	fs.BoolVar(&opts.DropDegenerate, "dropdegenerate", opts.DropDegenerate, "Discard triangles with repeated vertices.")
	fs.BoolVar(&opts.Verbose, "verbose", opts.Verbose, "Verbose mode.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath != "" {
		if err := opts.load(*configPath); err != nil {
			return err
		}
		// Parse again so flags given explicitly override the file.
		if err := fs.Parse(args); err != nil {
			return err
		}
	}
	if opts.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	if err := opts.validate(); err != nil {
		return err
	}

	load := imgstack.Load
	if fi, err := os.Stat(opts.Dir); err != nil {
		return err
	} else if !fi.IsDir() {
		load = imgstack.LoadArchive
	}
	grid, err := load(opts.Dir, imgstack.Options{
		Spacing:    r3.Vec{X: opts.Spacing[0], Y: opts.Spacing[1], Z: opts.Spacing[2]},
		Downsample: opts.Downsample,
		Workers:    opts.Workers,
		Log:        log,
	})
	if err != nil {
		return fmt.Errorf("loading slices: %w", err)
	}
	m, err := render.Extract(grid, opts.renderConfig(log))
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"triangles": m.NumTriangles(),
		"vertices":  m.NumVertices(),
	}).Info("extracted isosurface")
	if m.NumTriangles() == 0 {
		return fmt.Errorf("no surface at iso level %g", opts.Iso)
	}
	if opts.Out != "" {
		if err := writeMesh(opts.Out, m); err != nil {
			return err
		}
		log.WithField("path", opts.Out).Info("wrote mesh")
	}
	if opts.Preview != "" {
		if err := preview.SavePNG(opts.Preview, m, preview.DefaultView); err != nil {
			return fmt.Errorf("preview: %w", err)
		}
		log.WithField("path", opts.Preview).Info("wrote preview")
	}
	return nil
}

func writeMesh(path string, m *render.Mesh) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		return render.CreateSTL(path, m)
	case ".glb":
		return render.CreateGLB(path, m)
	}
	return fmt.Errorf("unknown mesh format %q, use .stl or .glb", filepath.Ext(path))
}
