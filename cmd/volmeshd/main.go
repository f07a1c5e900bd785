// Command volmeshd serves isosurfaces of configured volumes over HTTP.
//
//	GET /volumes                                  list volumes
//	GET /volumes/:name                            extents and value range
//	GET /volumes/:name/isosurface/:level          mesh as glb, stl or json
//
// The isosurface route accepts the format (glb, stl or json) and colours
// query parameters.
package main

import (
	"flag"
	"os"

	"github.com/gin-contrib/cache/persistence"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "volmeshd.yaml", "Server configuration file.")
	verbose := flag.Bool("verbose", false, "Verbose mode")
	flag.Parse()

	log := logrus.StandardLogger()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	fp, err := os.Open(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	cfg, err := parseConfig(fp)
	fp.Close()
	if err != nil {
		log.Fatal(err)
	}
	srv, err := newServer(cfg, log)
	if err != nil {
		log.Fatal(err)
	}
	store := persistence.NewInMemoryStore(cfg.CacheTTL)
	r := srv.router(store)
	log.WithFields(logrus.Fields{"addr": cfg.Addr, "volumes": len(cfg.Volumes)}).Info("serving")
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatal(err)
	}
}
