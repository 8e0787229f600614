// Package config loads the engine's optional engine.toml file: default
// Hash/Threads/MultiPV and NNUE weight paths that USI setoption commands
// override at runtime (SPEC_FULL §2's configuration stack).
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config is engine.toml's schema. Every field has a sensible zero-value
// default, so a missing or partial file is not an error.
type Config struct {
	Hash     int    `toml:"hash"`      // transposition table size, MB
	Threads  int    `toml:"threads"`   // LazySMP worker count (0 = GOMAXPROCS)
	MultiPV  int    `toml:"multipv"`   // parsed only: main.go does not apply it, USI starts at 1 PV
	EvalFile string `toml:"eval_file"` // NNUE weights path ("" = classical eval)
	BookFile string `toml:"book_file"` // opening book path ("" = no book)
}

// Default returns the zero-configuration defaults used when no
// engine.toml is found.
func Default() Config {
	return Config{Hash: 64, Threads: 0, MultiPV: 1}
}

// Load reads path and decodes it over Default(). A missing file is not
// an error; Load returns the defaults unchanged. A malformed file is.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
