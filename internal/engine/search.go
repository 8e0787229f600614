package engine

import "github.com/nozomi-shogi/engine/internal/shogi"

// Search-wide constants shared by every file in this package: Infinity
// bounds the α-β window, MateScore is the score assigned to an
// immediate checkmate (decremented by ply so shorter mates are
// preferred), and MaxPly bounds every per-ply array the search driver
// indexes into.
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// PVTable records the principal variation discovered at each ply,
// triangular-array style: pv.moves[ply] holds the continuation from
// that ply onward, copied up from pv.moves[ply+1] on every improving
// move, the same bookkeeping the teacher's negamax does.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]shogi.Move
}

// SharedHistory is a butterfly history table shared by every LazySMP
// worker (ordering.go's MoveOrderer.history is per-worker), letting
// helper threads' move-ordering discoveries benefit the primary thread
// immediately instead of only through the shared transposition table.
// A single mutex guards the whole table: reads/updates are cheap and
// contention is rare enough that one lock costs less than per-cell
// atomics would.
type SharedHistory struct {
	mu      chan struct{} // 1-buffered channel used as a cheap mutex
	history [81][81]int32
}

// NewSharedHistory creates an empty shared history table.
func NewSharedHistory() *SharedHistory {
	sh := &SharedHistory{mu: make(chan struct{}, 1)}
	sh.mu <- struct{}{}
	return sh
}

// Get returns the shared history score for the (from, to) pair.
func (sh *SharedHistory) Get(from, to int) int {
	<-sh.mu
	v := sh.history[from][to]
	sh.mu <- struct{}{}
	return int(v)
}

// Update applies the same gravity-style bonus ordering.go's per-worker
// history tables use.
func (sh *SharedHistory) Update(from, to, bonus int) {
	<-sh.mu
	cur := int(sh.history[from][to])
	sh.history[from][to] = int32(cur + bonus - cur*abs(bonus)/400000)
	sh.mu <- struct{}{}
}

// Clear ages every shared history entry for a new search.
func (sh *SharedHistory) Clear() {
	<-sh.mu
	for i := range sh.history {
		for j := range sh.history[i] {
			sh.history[i][j] /= 2
		}
	}
	sh.mu <- struct{}{}
}
