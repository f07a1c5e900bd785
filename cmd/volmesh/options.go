package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"github.com/soypat/volmesh/render"
	"gopkg.in/yaml.v3"
)

// options mirrors the command line flags. Config files use the same names.
type options struct {
	Dir            string     `yaml:"dir" toml:"dir"`
	Iso            float64    `yaml:"iso" toml:"iso"`
	Colours        bool       `yaml:"colours" toml:"colours"`
	Out            string     `yaml:"out" toml:"out"`
	Preview        string     `yaml:"preview" toml:"preview"`
	Downsample     int        `yaml:"downsample" toml:"downsample"`
	Workers        int        `yaml:"workers" toml:"workers"`
	FlipDepth      bool       `yaml:"flipdepth" toml:"flipdepth"`
	Reverse        bool       `yaml:"reverse" toml:"reverse"`
	WeldTol        float64    `yaml:"weldtol" toml:"weldtol"`
	Radial         bool       `yaml:"radial" toml:"radial"`
	DropDegenerate bool       `yaml:"dropdegenerate" toml:"dropdegenerate"`
	Verbose        bool       `yaml:"verbose" toml:"verbose"`
	Spacing        [3]float64 `yaml:"spacing" toml:"spacing"`
}

func defaultOptions() options {
	cfg := render.DefaultConfig(0.5)
	return options{
		Iso:        cfg.IsoLevel,
		Downsample: 1,
		Workers:    1,
		FlipDepth:  cfg.FlipDepth,
		Reverse:    cfg.ReverseWinding,
		Spacing:    [3]float64{1, 1, 1},
	}
}

// load decodes the file at path over o. The extension selects the format.
func (o *options) load(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, o)
	case ".toml":
		err = toml.Unmarshal(b, o)
	default:
		return fmt.Errorf("unknown config format %q, use .yaml or .toml", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

func (o options) validate() error {
	switch {
	case o.Dir == "":
		return errors.New("missing slice directory, set -dir")
	case o.Out == "" && o.Preview == "":
		return errors.New("nothing to write, set -out or -preview")
	case o.Downsample < 1:
		return errors.New("downsample must be at least 1")
	case o.Spacing[0] <= 0 || o.Spacing[1] <= 0 || o.Spacing[2] <= 0:
		return errors.New("spacing must be positive")
	}
	return nil
}

func (o options) renderConfig(log logrus.FieldLogger) render.Config {
	cfg := render.DefaultConfig(o.Iso)
	cfg.Colours = o.Colours
	cfg.FlipDepth = o.FlipDepth
	cfg.ReverseWinding = o.Reverse
	cfg.WeldTolerance = o.WeldTol
	cfg.DropDegenerate = o.DropDegenerate
	cfg.Workers = o.Workers
	cfg.Log = log
	if o.Radial {
		cfg.Normals = render.NormalsRadial
	}
	return cfg
}
