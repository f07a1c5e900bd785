package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/cache"
	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/soypat/volmesh"
	"github.com/soypat/volmesh/helpers/imgstack"
	"github.com/soypat/volmesh/helpers/sdfvol"
	"github.com/soypat/volmesh/render"
	"gonum.org/v1/gonum/spatial/r3"
)

var errUnknownVolume = errors.New("unknown volume")

type server struct {
	log     logrus.FieldLogger
	workers int
	ttl     time.Duration
	names   []string
	volumes map[string]*volume
}

// volume is loaded on first use and read only afterwards, so concurrent
// extractions share the grid.
type volume struct {
	volumeConfig
	once     sync.Once
	grid     *volmesh.Grid
	min, max float64
	err      error
}

type volumeInfo struct {
	Name   string  `json:"name"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Depth  int     `json:"depth"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

type meshJSON struct {
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Depth    int       `json:"depth"`
	Vertices []float32 `json:"vertices"`
	Indices  []uint32  `json:"indices"`
	Normals  []float32 `json:"normals"`
	Colours  []float32 `json:"colours"`
}

func newServer(cfg config, log logrus.FieldLogger) (*server, error) {
	s := &server{
		log:     log,
		workers: cfg.Workers,
		ttl:     cfg.CacheTTL,
		volumes: make(map[string]*volume, len(cfg.Volumes)),
	}
	for _, vc := range cfg.Volumes {
		if _, ok := s.volumes[vc.Name]; ok {
			return nil, fmt.Errorf("duplicate volume %q", vc.Name)
		}
		s.volumes[vc.Name] = &volume{volumeConfig: vc}
		s.names = append(s.names, vc.Name)
	}
	return s, nil
}

// Wrap cache.CachePage and also emit client-side Cache-Control/Expires headers
func cachePageWithClientHeaders(store persistence.CacheStore, expiration time.Duration, h gin.HandlerFunc) gin.HandlerFunc {
	ch := cache.CachePage(store, expiration, h)
	return func(c *gin.Context) {
		c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", int(expiration.Seconds())))
		c.Header("Expires", time.Now().UTC().Add(expiration).Format(http.TimeFormat))
		ch(c)
	}
}

func (s *server) router(store persistence.CacheStore) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests)
	r.GET("/volumes", s.listHandler)
	r.GET("/volumes/:name", s.infoHandler)
	r.GET("/volumes/:name/isosurface/:level", cachePageWithClientHeaders(store, s.ttl, s.isosurfaceHandler))
	return r
}

func (s *server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	entry := s.log.WithFields(logrus.Fields{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"elapsed": time.Since(start),
	})
	if len(c.Errors) > 0 {
		entry.WithError(c.Errors.Last()).Warn("request failed")
		return
	}
	entry.Debug("request")
}

func (s *server) listHandler(c *gin.Context) {
	infos := make([]volumeInfo, 0, len(s.names))
	for _, name := range s.names {
		info, err := s.info(name)
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		infos = append(infos, info)
	}
	c.JSON(http.StatusOK, infos)
}

func (s *server) infoHandler(c *gin.Context) {
	info, err := s.info(c.Param("name"))
	if err != nil {
		c.AbortWithError(statusOf(err), err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *server) isosurfaceHandler(c *gin.Context) {
	level, err := strconv.ParseFloat(c.Param("level"), 64)
	if err != nil {
		c.AbortWithError(http.StatusBadRequest, errors.New("invalid iso level"))
		return
	}
	format := c.DefaultQuery("format", "glb")
	if format != "glb" && format != "stl" && format != "json" {
		c.AbortWithError(http.StatusBadRequest, fmt.Errorf("unknown format %q", format))
		return
	}
	v, err := s.volume(c.Param("name"))
	if err != nil {
		c.AbortWithError(statusOf(err), err)
		return
	}
	cfg := render.DefaultConfig(level)
	cfg.Colours = c.Query("colours") == "1"
	cfg.Workers = s.workers
	cfg.Log = s.log.WithField("volume", v.Name)
	// STL readers reject zero area facets.
	cfg.DropDegenerate = format == "stl"
	if err := cfg.Validate(); err != nil {
		c.AbortWithError(http.StatusBadRequest, err)
		return
	}
	m, err := render.ExtractContext(c.Request.Context(), v.grid, cfg)
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	if format == "json" {
		c.JSON(http.StatusOK, meshJSON{
			Width:    m.Width(),
			Height:   m.Height(),
			Depth:    m.Depth(),
			Vertices: m.Vertices,
			Indices:  m.Indices,
			Normals:  m.Normals,
			Colours:  m.Colours,
		})
		return
	}
	if m.NumTriangles() == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	var buf bytes.Buffer
	contentType := "model/gltf-binary"
	if format == "stl" {
		contentType = "model/stl"
		err = render.WriteSTL(&buf, m)
	} else {
		err = render.WriteGLB(&buf, m)
	}
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (s *server) info(name string) (volumeInfo, error) {
	v, err := s.volume(name)
	if err != nil {
		return volumeInfo{}, err
	}
	return volumeInfo{
		Name:   v.Name,
		Width:  v.grid.Width(),
		Height: v.grid.Height(),
		Depth:  v.grid.Depth(),
		Min:    v.min,
		Max:    v.max,
	}, nil
}

// volume returns the named volume, loading it on first use.
func (s *server) volume(name string) (*volume, error) {
	v, ok := s.volumes[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", errUnknownVolume, name)
	}
	v.once.Do(func() {
		start := time.Now()
		v.grid, v.err = v.load(s.log)
		if v.err != nil {
			s.log.WithError(v.err).WithField("volume", name).Error("loading volume")
			return
		}
		// Normalize before sharing, extractions then only read the grid.
		v.grid.Normalize()
		v.min, v.max = volmesh.ValueRange(v.grid)
		s.log.WithFields(logrus.Fields{
			"volume":  name,
			"dims":    v.grid.Dims(),
			"elapsed": time.Since(start),
		}).Info("loaded volume")
	})
	return v, v.err
}

func (vc volumeConfig) load(log logrus.FieldLogger) (*volmesh.Grid, error) {
	if vc.Sphere > 0 {
		return sdfvol.Sphere(vc.Sphere)
	}
	opts := imgstack.Options{
		Spacing:    r3.Vec{X: vc.Spacing[0], Y: vc.Spacing[1], Z: vc.Spacing[2]},
		Downsample: vc.Downsample,
		Log:        log,
	}
	fi, err := os.Stat(vc.Dir)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return imgstack.Load(vc.Dir, opts)
	}
	return imgstack.LoadArchive(vc.Dir, opts)
}

func statusOf(err error) int {
	if errors.Is(err, errUnknownVolume) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
