// Package imgstack loads stacks of grayscale image slices, such as CT or MRI
// exports, into volumes.
//
// Slice i of the stack becomes the plane y=i of the grid. Image column x
// maps to grid x and image row to grid z.
package imgstack

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archiver/v3"
	"github.com/nfnt/resize"
	"github.com/sirupsen/logrus"
	"github.com/soypat/volmesh"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrNoSlices is returned when no decodable slice files are found.
	ErrNoSlices = errors.New("no image slices found")
	// ErrSliceSize is returned when slices do not share dimensions.
	ErrSliceSize = errors.New("image slices differ in size")
)

// Extensions lists the file extensions recognised as slices.
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff"}

// Options configures slice loading. The zero value loads every slice at full
// resolution with unit spacing.
type Options struct {
	// Spacing scales grid coordinates into sample positions. Zero
	// components are treated as 1.
	Spacing r3.Vec
	// Downsample keeps every n'th slice and shrinks each slice by n.
	// Values below 2 disable downsampling.
	Downsample int
	// Workers limits concurrent slice decoding. Zero means one per slice.
	Workers int
	Log     logrus.FieldLogger
}

type slice struct {
	name string
	open func() (io.ReadCloser, error)
}

// Load reads the slices in dir, ordered by natural sort of their names.
func Load(dir string, opts Options) (*volmesh.Grid, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var slices []slice
	for _, e := range entries {
		if e.IsDir() || !supported(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		slices = append(slices, slice{
			name: e.Name(),
			open: func() (io.ReadCloser, error) { return os.Open(path) },
		})
	}
	return load(slices, opts)
}

// LoadArchive reads the slices stored in an archive file such as a zip or
// tarball. The archive format is inferred from the file extension.
func LoadArchive(path string, opts Options) (*volmesh.Grid, error) {
	var slices []slice
	err := archiver.Walk(path, func(f archiver.File) error {
		if f.IsDir() || !supported(f.Name()) {
			return nil
		}
		// Archive entries are only readable during the walk.
		b, err := io.ReadAll(f)
		if err != nil {
			return fmt.Errorf("reading %s: %w", f.Name(), err)
		}
		slices = append(slices, slice{
			name: f.Name(),
			open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(b)), nil },
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return load(slices, opts)
}

func load(slices []slice, opts Options) (*volmesh.Grid, error) {
	log := opts.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	sortNatural(slices, func(s slice) string { return s.name })
	step := opts.Downsample
	if step < 2 {
		step = 1
	}
	kept := slices[:0]
	for i := 0; i < len(slices); i += step {
		kept = append(kept, slices[i])
	}
	slices = kept
	if len(slices) == 0 {
		return nil, ErrNoSlices
	}
	imgs := make([]image.Image, len(slices))
	var g errgroup.Group
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}
	for i := range slices {
		i := i
		g.Go(func() error {
			img, err := decode(slices[i], step)
			if err != nil {
				return fmt.Errorf("slice %s: %w", slices[i].name, err)
			}
			imgs[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	bounds := imgs[0].Bounds()
	for i, img := range imgs[1:] {
		if img.Bounds().Size() != bounds.Size() {
			return nil, fmt.Errorf("%w: %s is %v, %s is %v", ErrSliceSize,
				slices[0].name, bounds.Size(), slices[i+1].name, img.Bounds().Size())
		}
	}
	width, depth, height := bounds.Dx(), bounds.Dy(), len(imgs)
	grid, err := volmesh.NewGrid(width, height, depth)
	if err != nil {
		return nil, err
	}
	spacing := opts.Spacing
	if spacing.X == 0 {
		spacing.X = 1
	}
	if spacing.Y == 0 {
		spacing.Y = 1
	}
	if spacing.Z == 0 {
		spacing.Z = 1
	}
	spacing = r3.Scale(float64(step), spacing)
	for y, img := range imgs {
		for x := 0; x < width; x++ {
			for z := 0; z < depth; z++ {
				grid.SetPos(x, y, z, r3.Vec{X: float64(x) * spacing.X, Y: float64(y) * spacing.Y, Z: float64(z) * spacing.Z})
				grid.SetValue(x, y, z, intensity(img, bounds.Min.X+x, bounds.Min.Y+z))
			}
		}
	}
	log.WithFields(logrus.Fields{
		"slices": len(imgs),
		"width":  width,
		"depth":  depth,
		"step":   step,
	}).Debug("loaded image stack")
	return grid, nil
}

func decode(s slice, step int) (image.Image, error) {
	rc, err := s.open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	img, _, err := image.Decode(rc)
	if err != nil {
		return nil, err
	}
	if step > 1 {
		b := img.Bounds()
		w, h := uint(b.Dx()/step), uint(b.Dy()/step)
		if w == 0 || h == 0 {
			return nil, fmt.Errorf("downsample factor %d too large for %v slice", step, b.Size())
		}
		img = resize.Resize(w, h, img, resize.Bilinear)
	}
	return img, nil
}

// intensity returns the mean of the red, green and blue channels in [0,1].
func intensity(img image.Image, x, y int) float64 {
	r, g, b, _ := img.At(x, y).RGBA()
	return float64(r+g+b) / (3 * 0xffff)
}

func supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
