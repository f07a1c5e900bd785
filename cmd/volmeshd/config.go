package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

type config struct {
	Addr string `yaml:"addr"`
	// CacheTTL is how long rendered responses stay cached.
	CacheTTL time.Duration `yaml:"cache"`
	// Workers is the number of extraction workers per request.
	Workers int            `yaml:"workers"`
	Volumes []volumeConfig `yaml:"volumes"`
}

// volumeConfig describes one served volume. Exactly one of Dir and Sphere
// is set.
type volumeConfig struct {
	Name string `yaml:"name"`
	// Dir is a directory or archive of image slices.
	Dir        string     `yaml:"dir"`
	Downsample int        `yaml:"downsample"`
	Spacing    [3]float64 `yaml:"spacing"`
	// Sphere generates a synthetic n×n×n distance field instead of
	// loading slices.
	Sphere int `yaml:"sphere"`
}

func parseConfig(r io.Reader) (config, error) {
	cfg := config{
		Addr:     ":8080",
		CacheTTL: time.Hour,
		Workers:  1,
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return config{}, fmt.Errorf("decoding config: %w", err)
	}
	seen := make(map[string]bool)
	for i, v := range cfg.Volumes {
		switch {
		case v.Name == "":
			return config{}, fmt.Errorf("volume %d has no name", i)
		case seen[v.Name]:
			return config{}, fmt.Errorf("duplicate volume %q", v.Name)
		case (v.Dir == "") == (v.Sphere <= 0):
			return config{}, fmt.Errorf("volume %q must set one of dir or sphere", v.Name)
		}
		seen[v.Name] = true
	}
	if cfg.CacheTTL <= 0 {
		return config{}, errors.New("cache duration must be positive")
	}
	return cfg, nil
}
