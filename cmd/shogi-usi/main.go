// Command shogi-usi is the USI protocol entry point: it loads
// engine.toml (if present), builds the search engine, auto-loads NNUE
// weights and an opening book when configured, and runs the USI command
// loop over stdin/stdout.
package main

import (
	"flag"
	"os"

	"github.com/op/go-logging"
	"github.com/pkg/profile"

	"github.com/nozomi-shogi/engine/internal/config"
	"github.com/nozomi-shogi/engine/internal/engine"
	"github.com/nozomi-shogi/engine/internal/usi"
)

var log = logging.MustGetLogger("main")

var (
	configPath = flag.String("config", "engine.toml", "path to engine configuration file")
	cpuprofile = flag.Bool("cpuprofile", false, "profile the process for its entire lifetime")
)

func main() {
	flag.Parse()
	setupLogging()

	if *cpuprofile {
		defer profile.Start(profile.CPUProfile).Stop()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load %s: %v", *configPath, err)
	}

	eng := engine.NewEngine(cfg.Hash)
	if cfg.Threads > 0 {
		eng.SetThreads(cfg.Threads)
	}

	if cfg.EvalFile != "" {
		if err := eng.LoadNNUE(cfg.EvalFile); err != nil {
			log.Warningf("NNUE not loaded from %s: %v (using classical evaluation)", cfg.EvalFile, err)
		} else {
			eng.SetUseNNUE(true)
		}
	}
	if cfg.BookFile != "" {
		if err := eng.LoadBook(cfg.BookFile); err != nil {
			log.Warningf("opening book not loaded from %s: %v", cfg.BookFile, err)
		}
	}

	usi.New(eng).Run()
}

// setupLogging routes diagnostics to stderr so stdout stays reserved for
// the USI protocol stream (spec.md §7).
func setupLogging() {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatter := logging.MustStringFormatter(`%{time:15:04:05.000} %{level:.4s} %{module}: %{message}`)
	logging.SetBackend(logging.NewBackendFormatter(backend, formatter))
	logging.SetLevel(logging.INFO, "")
}
