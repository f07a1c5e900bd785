package main

import (
	"bytes"
	"errors"
	"flag"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/soypat/volmesh/render"
)

// writeBall writes n n×n slices of a dark ball on a white background.
func writeBall(t *testing.T, n int) string {
	dir := t.TempDir()
	c := float64(n-1) / 2
	r2 := c * c / 2
	for y := 0; y < n; y++ {
		img := image.NewGray(image.Rect(0, 0, n, n))
		for x := 0; x < n; x++ {
			for z := 0; z < n; z++ {
				dx, dy, dz := float64(x)-c, float64(y)-c, float64(z)-c
				v := uint8(255)
				if dx*dx+dy*dy+dz*dz < r2 {
					v = 0
				}
				img.SetGray(x, z, color.Gray{Y: v})
			}
		}
		fp, err := os.Create(filepath.Join(dir, "ball"+strconv.Itoa(y)+".png"))
		if err != nil {
			t.Fatal(err)
		}
		err = png.Encode(fp, img)
		fp.Close()
		if err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestRunWritesOutputs(t *testing.T) {
	dir := writeBall(t, 10)
	out := t.TempDir()
	stl := filepath.Join(out, "ball.stl")
	pngPath := filepath.Join(out, "ball.png")
	log, hook := test.NewNullLogger()
	err := run([]string{"-dir", dir, "-iso", "0.5", "-colours", "-workers", "3", "-out", stl, "-preview", pngPath}, os.Stderr, log)
	if err != nil {
		t.Fatal(err)
	}
	fp, err := os.Open(stl)
	if err != nil {
		t.Fatal(err)
	}
	defer fp.Close()
	tris, err := render.ReadSTL(fp)
	if err != nil {
		t.Fatal(err)
	}
	if len(tris) == 0 {
		t.Error("empty STL written")
	}
	if _, err := os.Stat(pngPath); err != nil {
		t.Error(err)
	}
	var wrote int
	for _, e := range hook.AllEntries() {
		if strings.HasPrefix(e.Message, "wrote") {
			wrote++
		}
	}
	if wrote != 2 {
		t.Errorf("got %d write log entries, want 2", wrote)
	}
}

func TestRunConfigFile(t *testing.T) {
	dir := writeBall(t, 8)
	out := t.TempDir()
	glb := filepath.Join(out, "ball.glb")
	for _, tc := range []struct {
		name, content string
	}{
		{"volmesh.yaml", "dir: " + strconv.Quote(dir) + "\niso: 0.9\nout: " + strconv.Quote(glb) + "\nverbose: true\n"},
		{"volmesh.toml", "dir = " + strconv.Quote(dir) + "\niso = 0.9\nout = " + strconv.Quote(glb) + "\nverbose = true\n"},
	} {
		cfgPath := filepath.Join(out, tc.name)
		if err := os.WriteFile(cfgPath, []byte(tc.content), 0o644); err != nil {
			t.Fatal(err)
		}
		log := logrus.New()
		log.SetOutput(&bytes.Buffer{})
		// The flag overrides the iso level of the file.
		if err := run([]string{"-config", cfgPath, "-iso", "0.5"}, os.Stderr, log); err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if log.GetLevel() != logrus.DebugLevel {
			t.Errorf("%s: verbose not read from file", tc.name)
		}
		if fi, err := os.Stat(glb); err != nil || fi.Size() == 0 {
			t.Errorf("%s: glb not written: %v", tc.name, err)
		}
		os.Remove(glb)
		// Iso 0.9 alone would still find the ball, a level above every
		// value must fail.
		err := run([]string{"-config", cfgPath, "-iso", "2"}, os.Stderr, log)
		if err == nil || !strings.Contains(err.Error(), "no surface") {
			t.Errorf("%s: got %v, want no surface error", tc.name, err)
		}
	}
}

func TestRunErrors(t *testing.T) {
	dir := writeBall(t, 4)
	log, _ := test.NewNullLogger()
	var stderr bytes.Buffer
	for _, args := range [][]string{
		{},
		{"-dir", dir},
		{"-dir", dir, "-out", "mesh.obj"},
		{"-dir", dir, "-out", "mesh.stl", "-downsample", "0"},
		{"-dir", filepath.Join(dir, "missing"), "-out", "mesh.stl"},
		{"-config", filepath.Join(dir, "missing.yaml")},
		{"-config", filepath.Join(dir, "ball0.png")},
	} {
		if err := run(args, &stderr, log); err == nil {
			t.Errorf("%q: expected error", args)
		}
	}
	if err := run([]string{"-h"}, &stderr, log); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("got %v, want flag.ErrHelp", err)
	}
}
