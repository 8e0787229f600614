// Package endgame defines the interface an endgame database (mating
// pattern table, entering-kings/jishogi adjudicator, or similar) probes
// through, reduced from the teacher's Syzygy-style WDL/DTZ tablebase
// (its probe/root-move machinery is tied to a fixed small piece count
// and a 50-move-rule-aware WDL scale that Shogi's drop rule and lack of
// a fifty-move rule don't carry over -- see DESIGN.md). No concrete
// database ships with this engine; NoopProber is the default.
package endgame

import "github.com/nozomi-shogi/engine/internal/shogi"

// RootResult is the best move an endgame database suggests at the root,
// if any.
type RootResult struct {
	Found bool
	Move  shogi.Move
	Score int
}

// Prober looks up a position in an endgame database.
type Prober interface {
	// ProbeRoot returns a recommended move and score for pos, if pos is
	// within the database's coverage.
	ProbeRoot(pos *shogi.Position) RootResult

	// Available reports whether the database is loaded and usable.
	Available() bool
}

// NoopProber is a Prober that never finds anything, the default when
// no endgame database is configured.
type NoopProber struct{}

func (NoopProber) ProbeRoot(pos *shogi.Position) RootResult { return RootResult{} }
func (NoopProber) Available() bool                          { return false }
