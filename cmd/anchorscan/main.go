// anchorscan reconstructs world points from screen taps and a scan grid,
// anchors them in a bounded pool and serves a live dashboard.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-depthanchor/internal/config"
	"github.com/teslashibe/go-depthanchor/internal/log"
	"github.com/teslashibe/go-depthanchor/pkg/debug"
	"github.com/teslashibe/go-depthanchor/pkg/scanner"
)

func main() {
	cfg := parseFlags()

	app, err := scanner.New(cfg)
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	if err := app.Init(); err != nil {
		log.Error("initialization failed", "error", err)
		os.Exit(1)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		log.Error("runtime error", "error", err)
	}
}

// parseFlags loads the config file and applies command line overrides.
func parseFlags() config.Config {
	path := flag.String("config", "", "YAML config file")
	debugFlag := flag.Bool("debug", false, "Enable verbose debug logging")
	debugScan := flag.Bool("debug-scan", false, "Log every scan-grid sample")
	scan := flag.Bool("scan", false, "Start with the scan sweep enabled")
	port := flag.String("port", "", "Dashboard port (overrides DASHBOARD_PORT)")
	depth := flag.String("depth", "", "16-bit depth image to replay instead of the synthetic wall")
	flag.Parse()

	cfg, err := config.Load(*path)
	if err != nil {
		log.Init("info")
		log.Error("config", "error", err)
		os.Exit(1)
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["scan"] {
		cfg.Scan = *scan
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *depth != "" {
		cfg.DepthImage = *depth
	}

	debug.Enabled, debug.Scan = *debugFlag, *debugScan
	if debug.Enabled || debug.Scan {
		cfg.LogLevel = "debug"
	}
	log.Init(cfg.LogLevel)
	return cfg
}
