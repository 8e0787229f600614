// Package engine ties move ordering, the transposition table, the
// classical and NNUE evaluators, and the per-worker negamax search
// (worker.go) into the LazySMP coordinator described in this file.
package engine

import (
	"context"
	"log"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nozomi-shogi/engine/internal/book"
	"github.com/nozomi-shogi/engine/internal/endgame"
	"github.com/nozomi-shogi/engine/internal/shogi"
)

// NumWorkers is the number of parallel search workers (matches CPU cores).
var NumWorkers = runtime.GOMAXPROCS(0)

// SearchInfo reports one iteration's progress for a USI "info" line.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []shogi.Move
	HashFull int // Permille of hash table used
	MultiPV  int // 1-based PV line index (spec.md §6.1's "info multipv")
}

// SearchLimits specifies constraints on the search, used by SearchMultiPV
// and the difficulty-based Search entry point. SearchWithUSILimits uses
// USILimits (timeman.go) instead, for full USI time-control support.
type SearchLimits struct {
	Depth    int           // Maximum depth (0 = no limit)
	Nodes    uint64        // Maximum nodes (0 = no limit)
	MoveTime time.Duration // Time for this move (0 = no limit)
	Infinite bool          // Search until stopped
	MultiPV  int           // Number of principal variations to find (0 or 1 = single best move)
}

// SearchResult is one PV line of a SearchMultiPV call.
type SearchResult struct {
	Move  shogi.Move
	Score int
	PV    []shogi.Move
	Depth int
	Nodes uint64
}

// Difficulty maps a coarse strength level to SearchLimits, for UIs that
// don't expose full USI time controls.
type Difficulty int

const (
	Easy   Difficulty = iota // ~2-3 ply
	Medium                   // ~7 ply
	Hard                     // maximum strength, time-limited
)

// DifficultySettings maps difficulty to search limits.
var DifficultySettings = map[Difficulty]SearchLimits{
	Easy:   {Depth: 3, MoveTime: 500 * time.Millisecond},
	Medium: {Depth: 7, MoveTime: 1 * time.Second},
	Hard:   {Depth: 40, MoveTime: 3 * time.Second},
}

// Engine coordinates a pool of LazySMP workers (spec.md §4.H): worker 0
// is the primary thread, whose result is authoritative; helpers (worker
// 1..N-1) only ever change the answer when they complete at least as
// deep as the primary and report a better score.
type Engine struct {
	workers       []*Worker
	materialCache *MaterialCache
	tt            *TranspositionTable
	sharedHistory *SharedHistory
	stopFlag      atomic.Bool

	difficulty Difficulty
	book       book.Prober
	endgame    endgame.Prober

	rootGameHistory []uint64

	useNNUE       bool
	nnueWeightsFile string

	// activeTimeManager is the TimeManager of the search currently in
	// flight, if any, exposed so Ponderhit can reconfigure its deadlines
	// in place (spec.md §4.I): ponderhit re-Inits the same *TimeManager
	// the running search's stop checks already read from, so the new
	// deadlines take effect on its very next check.
	activeTimeManager atomic.Pointer[TimeManager]

	OnInfo func(SearchInfo)
}

// NewEngine creates a new engine with the given transposition table size in MB.
func NewEngine(ttSizeMB int) *Engine {
	tt := NewTranspositionTable(ttSizeMB)
	sharedHistory := NewSharedHistory()
	materialCache := NewMaterialCache(1)

	e := &Engine{
		tt:            tt,
		materialCache: materialCache,
		sharedHistory: sharedHistory,
		difficulty:    Medium,
		endgame:       endgame.NoopProber{},
		workers:       make([]*Worker, NumWorkers),
	}

	log.Printf("[engine] creating %d workers (GOMAXPROCS=%d)", NumWorkers, runtime.GOMAXPROCS(0))
	for i := 0; i < NumWorkers; i++ {
		e.workers[i] = NewWorker(i, tt, materialCache, sharedHistory, &e.stopFlag)
	}

	return e
}

// SetDifficulty sets the engine difficulty used by Search.
func (e *Engine) SetDifficulty(d Difficulty) { e.difficulty = d }

// LoadBook loads an opening book from filename (book.go's own binary
// record format).
func (e *Engine) LoadBook(filename string) error {
	b, err := book.Load(filename)
	if err != nil {
		return err
	}
	e.book = b
	return nil
}

// SetBook installs a caller-supplied book (or Prober).
func (e *Engine) SetBook(b book.Prober) { e.book = b }

// HasBook reports whether an opening book is installed.
func (e *Engine) HasBook() bool { return e.book != nil }

// SetEndgameDatabase installs a caller-supplied endgame Prober.
func (e *Engine) SetEndgameDatabase(p endgame.Prober) {
	if p == nil {
		p = endgame.NoopProber{}
	}
	e.endgame = p
}

// HasEndgameDatabase reports whether a usable endgame database is installed.
func (e *Engine) HasEndgameDatabase() bool {
	return e.endgame != nil && e.endgame.Available()
}

// SetPositionHistory records game-history hashes (oldest first, up to
// and including the current search root) for in-search repetition
// detection, which spec.md §4.G requires count from the start of the
// game, not just the search tree.
func (e *Engine) SetPositionHistory(hashes []uint64) {
	e.rootGameHistory = append([]uint64(nil), hashes...)
}

// Resize replaces the transposition table with one sized ttSizeMB,
// rebuilding every worker against it (transposition.go's lock-free
// cluster table has no in-place grow/shrink). Must not be called while
// a search is in flight; the USI_Hash setoption handler enforces that.
func (e *Engine) Resize(ttSizeMB int) {
	e.tt = NewTranspositionTable(ttSizeMB)
	for i, w := range e.workers {
		nw := NewWorker(w.id, e.tt, e.materialCache, e.sharedHistory, &e.stopFlag)
		if e.useNNUE && e.nnueWeightsFile != "" {
			if err := nw.InitNNUE(e.nnueWeightsFile); err == nil {
				nw.useNNUE = true
			}
		}
		e.workers[i] = nw
	}
}

// SetThreads changes the LazySMP worker pool size (spec.md §6.1's
// "Threads" option), rebuilding every worker against the current TT the
// way Resize does. Must not be called while a search is in flight; the
// USI Threads setoption handler enforces that.
func (e *Engine) SetThreads(n int) {
	if n < 1 {
		n = 1
	}
	NumWorkers = n
	e.workers = make([]*Worker, n)
	for i := 0; i < n; i++ {
		nw := NewWorker(i, e.tt, e.materialCache, e.sharedHistory, &e.stopFlag)
		if e.useNNUE && e.nnueWeightsFile != "" {
			if err := nw.InitNNUE(e.nnueWeightsFile); err == nil {
				nw.useNNUE = true
			}
		}
		e.workers[i] = nw
	}
}

// LoadNNUE loads weightsFile and enables NNUE evaluation on every worker.
func (e *Engine) LoadNNUE(weightsFile string) error {
	log.Printf("[engine] loading NNUE weights from %s", weightsFile)
	for _, w := range e.workers {
		if err := w.InitNNUE(weightsFile); err != nil {
			return err
		}
	}
	e.nnueWeightsFile = weightsFile
	e.useNNUE = true
	return nil
}

// SetUseNNUE toggles NNUE evaluation; LoadNNUE must have been called at
// least once before enabling it again after a prior disable.
func (e *Engine) SetUseNNUE(use bool) {
	e.useNNUE = use
	for _, w := range e.workers {
		w.useNNUE = use && w.nnueEval != nil
	}
}

// UseNNUE reports whether NNUE evaluation is currently enabled.
func (e *Engine) UseNNUE() bool { return e.useNNUE }

// Search finds the best move for pos using the current difficulty's limits.
func (e *Engine) Search(pos *shogi.Position) shogi.Move {
	return e.SearchWithLimits(pos, DifficultySettings[e.difficulty])
}

// SearchWithLimits searches pos to the given depth/node/time limits.
func (e *Engine) SearchWithLimits(pos *shogi.Position, limits SearchLimits) shogi.Move {
	if move, ok := e.probeBookAndEndgame(pos); ok {
		return move
	}

	e.stopFlag.Store(false)
	e.tt.NewSearch()
	for _, w := range e.workers {
		w.Reset(pos, e.rootGameHistory)
	}

	startTime := time.Now()
	maxDepth := MaxPly
	if limits.Depth > 0 {
		maxDepth = limits.Depth
	}
	var deadline time.Time
	if limits.MoveTime > 0 {
		deadline = startTime.Add(limits.MoveTime)
	}

	stopCheck := func(totalNodes uint64) bool {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return true
		}
		if limits.Nodes > 0 && totalNodes >= limits.Nodes {
			return true
		}
		return false
	}

	best := e.runCoordinated(pos, maxDepth, startTime, stopCheck)
	return best.Move
}

// SearchWithUSILimits searches pos using full USI time-control semantics
// (timeman.go), reporting progress through OnInfo the way a "go"
// command's iterative deepening loop does.
func (e *Engine) SearchWithUSILimits(pos *shogi.Position, limits USILimits, ply int) shogi.Move {
	if move, ok := e.probeBookAndEndgame(pos); ok {
		return move
	}

	tm := NewTimeManager(DefaultTimeManagerOptions())
	tm.Init(limits, pos.SideToMove(), ply)
	e.activeTimeManager.Store(tm)
	defer e.activeTimeManager.Store(nil)

	e.stopFlag.Store(false)
	e.tt.NewSearch()
	for _, w := range e.workers {
		w.Reset(pos, e.rootGameHistory)
	}

	startTime := time.Now()
	maxDepth := MaxPly
	if limits.Depth > 0 {
		maxDepth = limits.Depth
	}

	var lastBestMove shogi.Move
	stability := 0
	instability := 0

	stopCheck := func(totalNodes uint64) bool {
		if limits.Nodes > 0 && totalNodes >= limits.Nodes {
			return true
		}
		return tm.ShouldStop()
	}

	onIteration := func(r WorkerResult, bestSoFar *coordinatedResult) {
		if r.Move == lastBestMove {
			stability++
			instability = 0
		} else {
			instability++
			stability = 0
		}
		lastBestMove = r.Move
		if stability >= 2 {
			tm.AdjustForStability(stability)
		}
		if instability >= 2 {
			tm.AdjustForInstability(instability)
		}
	}

	best := e.runCoordinatedWithHook(pos, maxDepth, startTime, stopCheck, onIteration, tm)
	return best.Move
}

// Ponderhit reconfigures the in-flight ponder search's soft/hard
// deadlines as though the clock had started just now, per spec.md
// §4.I's ponder contract ("the remaining budget is computed as though
// the clock started when the user's move was received"). A no-op if no
// search is currently running.
func (e *Engine) Ponderhit(limits USILimits, us shogi.Color, ply int) {
	if tm := e.activeTimeManager.Load(); tm != nil {
		tm.Init(limits, us, ply)
	}
}

// probeBookAndEndgame returns a move without searching when the opening
// book or endgame database covers pos.
func (e *Engine) probeBookAndEndgame(pos *shogi.Position) (shogi.Move, bool) {
	if e.book != nil {
		if move, ok := e.book.Probe(pos); ok {
			return move, true
		}
	}
	if e.endgame != nil && e.endgame.Available() {
		result := e.endgame.ProbeRoot(pos)
		if result.Found && !result.Move.IsNull() {
			return result.Move, true
		}
	}
	return shogi.NullMove, false
}

// coordinatedResult is the running best answer across every worker
// report seen so far.
type coordinatedResult struct {
	Move  shogi.Move
	Score int
	PV    []shogi.Move
	Depth int
}

func (e *Engine) runCoordinated(pos *shogi.Position, maxDepth int, startTime time.Time, stop func(uint64) bool) coordinatedResult {
	return e.runCoordinatedWithHook(pos, maxDepth, startTime, stop, nil, nil)
}

// runCoordinatedWithHook runs every worker's iterative-deepening loop in
// its own goroutine and aggregates their reports per spec.md §4.H: the
// primary worker's (id 0) result for a depth is always accepted; a
// helper's result is only accepted when it completed at least as deep
// as the current answer and reports a strictly better score for that
// depth, never overriding the primary on a shallower completed depth.
func (e *Engine) runCoordinatedWithHook(
	pos *shogi.Position,
	maxDepth int,
	startTime time.Time,
	stop func(totalNodes uint64) bool,
	onIteration func(WorkerResult, *coordinatedResult),
	tm *TimeManager,
) coordinatedResult {
	resultCh := make(chan WorkerResult, NumWorkers*maxDepth)

	g, _ := errgroup.WithContext(context.Background())
	for i := 0; i < NumWorkers; i++ {
		workerID := i
		g.Go(func() error {
			e.workerSearch(workerID, pos, maxDepth, resultCh)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		g.Wait()
		close(resultCh)
		close(done)
	}()

	var best coordinatedResult
	var primaryDepth int

resultLoop:
	for {
		select {
		case r, ok := <-resultCh:
			if !ok {
				break resultLoop
			}

			accept := false
			if r.WorkerID == 0 {
				accept = true
				primaryDepth = r.Depth
			} else if r.Depth >= primaryDepth && r.Depth >= best.Depth && r.Score > best.Score {
				accept = true
			}

			if accept && !r.Move.IsNull() {
				if onIteration != nil {
					old := best
					onIteration(r, &old)
				}
				best = coordinatedResult{Move: r.Move, Score: r.Score, PV: r.PV, Depth: r.Depth}

				if e.OnInfo != nil {
					e.OnInfo(SearchInfo{
						Depth:    best.Depth,
						Score:    best.Score,
						Nodes:    e.totalNodes(),
						Time:     time.Since(startTime),
						PV:       best.PV,
						HashFull: e.tt.HashFull(),
						MultiPV:  1,
					})
				}

				if best.Score > MateScore-MaxPly || best.Score < -MateScore+MaxPly {
					e.stopFlag.Store(true)
					break resultLoop
				}
				if tm != nil && tm.PastOptimum() {
					e.stopFlag.Store(true)
					break resultLoop
				}
			}

			if stop(e.totalNodes()) {
				e.stopFlag.Store(true)
				break resultLoop
			}

		case <-done:
			break resultLoop
		}
	}

	e.stopFlag.Store(true)
	<-done
	return best
}

// workerSearch runs worker workerID's iterative-deepening loop with an
// aspiration window at root (spec.md §4.G): ±aspirationDelta around the
// previous iteration's score, doubling on a fail and falling back to a
// full window once doubling can't make progress.
func (e *Engine) workerSearch(workerID int, pos *shogi.Position, maxDepth int, resultCh chan<- WorkerResult) {
	worker := e.workers[workerID]

	const aspirationDelta = 30
	var prevScore int

	for depth := 1; depth <= maxDepth; depth++ {
		if e.stopFlag.Load() {
			return
		}

		var move shogi.Move
		var score int

		if depth >= 4 {
			delta := aspirationDelta
			alpha := prevScore - delta
			beta := prevScore + delta
			for {
				move, score = worker.SearchDepth(depth, alpha, beta)
				if e.stopFlag.Load() {
					return
				}
				worker.UpdateOptimism(score)
				if score <= alpha {
					alpha -= delta
					delta *= 2
				} else if score >= beta {
					beta += delta
					delta *= 2
				} else {
					break
				}
				if alpha <= -Infinity && beta >= Infinity {
					break
				}
			}
		} else {
			move, score = worker.SearchDepth(depth, -Infinity, Infinity)
			worker.UpdateOptimism(score)
		}

		if e.stopFlag.Load() {
			return
		}
		prevScore = score

		resultCh <- WorkerResult{
			WorkerID: workerID,
			Depth:    depth,
			Score:    score,
			Move:     move,
			PV:       worker.GetPV(),
			Nodes:    worker.Nodes(),
		}
	}
}

// totalNodes sums nodes searched by every worker since the last Reset.
func (e *Engine) totalNodes() uint64 {
	var total uint64
	for _, w := range e.workers {
		total += w.Nodes()
	}
	return total
}

// SearchMultiPV finds multiple principal variations by repeatedly
// excluding previously found root moves, spec.md §4.G's MultiPV support.
func (e *Engine) SearchMultiPV(pos *shogi.Position, limits SearchLimits) []SearchResult {
	numPV := limits.MultiPV
	if numPV <= 0 {
		numPV = 1
	}

	results := make([]SearchResult, 0, numPV)
	var excluded []shogi.Move

	for i := 0; i < numPV; i++ {
		move, score, pv, depth, nodes := e.searchWithExclusions(pos, limits, excluded)
		if move.IsNull() {
			break
		}
		results = append(results, SearchResult{Move: move, Score: score, PV: pv, Depth: depth, Nodes: nodes})
		excluded = append(excluded, move)
	}

	for i := 0; i < len(results)-1; i++ {
		maxIdx := i
		for j := i + 1; j < len(results); j++ {
			if results[j].Score > results[maxIdx].Score {
				maxIdx = j
			}
		}
		if maxIdx != i {
			results[i], results[maxIdx] = results[maxIdx], results[i]
		}
	}
	return results
}

// searchWithExclusions runs the primary worker alone (MultiPV analysis
// doesn't need the full LazySMP pool) excluding already-found root moves.
func (e *Engine) searchWithExclusions(pos *shogi.Position, limits SearchLimits, excluded []shogi.Move) (move shogi.Move, score int, pv []shogi.Move, depth int, nodes uint64) {
	e.stopFlag.Store(false)
	e.tt.NewSearch()
	w := e.workers[0]
	w.Reset(pos, e.rootGameHistory)
	w.SetExcludedMoves(excluded)

	startTime := time.Now()
	maxDepth := MaxPly
	if limits.Depth > 0 {
		maxDepth = limits.Depth
	}
	var deadline time.Time
	if limits.MoveTime > 0 {
		deadline = startTime.Add(limits.MoveTime)
	}

	for iterDepth := 1; iterDepth <= maxDepth; iterDepth++ {
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}
		iterMove, iterScore := w.SearchDepth(iterDepth, -Infinity, Infinity)
		if !iterMove.IsNull() {
			move, score, depth = iterMove, iterScore, iterDepth
		}
		if iterScore > MateScore-MaxPly || iterScore < -MateScore+MaxPly {
			break
		}
	}

	pv = w.GetPV()
	nodes = w.Nodes()
	w.SetExcludedMoves(nil)
	return move, score, pv, depth, nodes
}

// Stop aborts the current search at the next safe checkpoint.
func (e *Engine) Stop() { e.stopFlag.Store(true) }

// Clear resets the transposition table, material cache and every
// worker's move-ordering tables.
func (e *Engine) Clear() {
	e.tt.Clear()
	e.materialCache.Clear()
	e.sharedHistory.Clear()
	for _, w := range e.workers {
		w.orderer.Clear()
	}
}

// Perft counts leaf nodes at depth, for move-generator regression tests.
func (e *Engine) Perft(pos *shogi.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := pos.LegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}
	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		pos.DoMove(m)
		nodes += e.Perft(pos, depth-1)
		pos.UndoMove(m)
	}
	return nodes
}

// Evaluate returns the static evaluation of pos.
func (e *Engine) Evaluate(pos *shogi.Position) int {
	return EvaluateWithCache(pos, e.materialCache)
}

// ScoreToString renders score as a human-readable mate-in-N or
// pawns-with-decimal string, for log/debug output (USI's "info score"
// formatting lives in the usi package, which works in centipawns/mate
// plies directly rather than through this helper).
func ScoreToString(score int) string {
	if score > MateScore-MaxPly {
		mateIn := (MateScore - score + 1) / 2
		return "mate in " + itoa(mateIn)
	}
	if score < -MateScore+MaxPly {
		mateIn := (MateScore + score + 1) / 2
		return "mated in " + itoa(mateIn)
	}
	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	frac := itoa(score % 100)
	if score%100 > 0 && score%100 < 10 {
		frac = "0" + frac
	}
	return sign + itoa(score/100) + "." + frac
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	if n < 0 {
		return "-" + itoa(-n)
	}
	s := ""
	for n > 0 {
		s = string('0'+byte(n%10)) + s
		n /= 10
	}
	return s
}
