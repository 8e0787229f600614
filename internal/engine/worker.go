package engine

import (
	"sync/atomic"

	"github.com/nozomi-shogi/engine/internal/nnue"
	"github.com/nozomi-shogi/engine/internal/shogi"
)

// SearchStack holds the per-ply state negamax records for later plies:
// the move played to reach this ply, its static eval (read two plies
// later for the "improving" test), and the ply number. Killer moves are
// kept in MoveOrderer (ordering.go), indexed directly by ply.
type SearchStack struct {
	move       shogi.Move
	staticEval int
	ply        int
}

// WorkerResult is what a worker reports back to the LazySMP coordinator
// (engine.go) once a depth completes or the search is stopped.
type WorkerResult struct {
	WorkerID int
	Depth    int
	Score    int
	Move     shogi.Move
	PV       []shogi.Move
	Nodes    uint64
}

// maxRepetitionHistory bounds the position-hash buffer isDraw walks
// to detect sennichite; it comfortably covers any realistic game length
// reachable within a single search (root game history plus search-tree
// depth).
const maxRepetitionHistory = 1024

// maxGameLength is the move-horizon spec.md §4.G calls for: past this
// many plies from the game's start a position is scored as a draw
// regardless of material, the Shogi analogue of chess's 50-move rule
// (Shogi has no move counter that resets on capture/pawn push, so the
// horizon is anchored to the absolute ply count instead).
const maxGameLength = 600

// Worker runs one thread's share of a LazySMP search (spec.md §4.H): a
// "primary" worker (id 0) and N-1 helpers share the transposition table
// and SharedHistory but otherwise search independently, diversifying via
// a seed-chosen root-move swap and, for some helpers, one extra ply of
// LMR reduction. Every worker uses the same aspiration window.
type Worker struct {
	id  int
	pos *shogi.Position

	orderer *MoveOrderer
	nodes   uint64

	pv PVTable

	searchStack [MaxPly]SearchStack

	posHistoryBuffer [maxRepetitionHistory]uint64
	posHistoryLen    int
	rootPly          int

	excludedRootMoves []shogi.Move
	multiPVExclude    []shogi.Move

	tt            *TranspositionTable
	materialCache *MaterialCache
	sharedHistory *SharedHistory
	corrHistory   *CorrectionHistory

	stopFlag *atomic.Bool

	useNNUE  bool
	nnueEval *nnue.Evaluator

	debug bool

	depth     int
	optimism  [2]int
	avgScore  int
	rootDelta int

	// helperSeed diversifies root move order and LMR aggressiveness
	// between helper threads so they don't all explore the same
	// subtrees as the primary, the cheap part of LazySMP diversity
	// spec.md §4.H asks for.
	helperSeed uint64
}

// NewWorker creates a worker sharing tt, materialCache, sharedHistory and
// stopFlag with the rest of the coordinator's pool.
func NewWorker(id int, tt *TranspositionTable, materialCache *MaterialCache, sharedHistory *SharedHistory, stopFlag *atomic.Bool) *Worker {
	return &Worker{
		id:            id,
		orderer:       NewMoveOrderer(),
		tt:            tt,
		materialCache: materialCache,
		sharedHistory: sharedHistory,
		corrHistory:   NewCorrectionHistory(),
		stopFlag:      stopFlag,
		helperSeed:    uint64(id)*0x9E3779B97F4A7C15 + 1,
	}
}

// InitNNUE enables NNUE evaluation for this worker using a private
// Evaluator (each worker owns its own accumulator stack; the underlying
// weights are duplicated per worker rather than shared, trading a little
// memory for not needing a read-sharing scheme across goroutines).
func (w *Worker) InitNNUE(weightsFile string) error {
	ev, err := nnue.NewEvaluator(weightsFile)
	if err != nil {
		return err
	}
	w.nnueEval = ev
	w.useNNUE = true
	return nil
}

// SetDebug sets the worker's debug flag (off by default). The search
// code does not read the flag, so it produces no extra output.
func (w *Worker) SetDebug(debug bool) { w.debug = debug }

// Reset prepares the worker for a new search from pos, copying game
// history up to and including pos's own hash so in-search repetition
// detection sees moves played before the search started.
func (w *Worker) Reset(pos *shogi.Position, gameHistory []uint64) {
	w.pos = pos
	w.nodes = 0
	w.orderer.Clear()
	w.excludedRootMoves = nil
	w.multiPVExclude = nil
	w.avgScore = 0
	w.optimism = [2]int{}
	w.rootDelta = 0

	w.posHistoryLen = 0
	for _, h := range gameHistory {
		if w.posHistoryLen >= len(w.posHistoryBuffer) {
			break
		}
		w.posHistoryBuffer[w.posHistoryLen] = h
		w.posHistoryLen++
	}
	w.rootPly = w.posHistoryLen

	if w.useNNUE {
		w.nnueEval.Reset()
		w.nnueEval.Refresh(pos)
	}
}

// Pos returns the worker's current search position.
func (w *Worker) Pos() *shogi.Position { return w.pos }

// Nodes returns the number of nodes visited since the last Reset.
func (w *Worker) Nodes() uint64 { return w.nodes }

// SetExcludedMoves marks root moves this worker must not consider,
// MultiPV's mechanism for forcing successive searches onto the
// next-best line once the previous winners are known.
func (w *Worker) SetExcludedMoves(moves []shogi.Move) { w.multiPVExclude = moves }

// UpdateOptimism recomputes the worker's optimism bias from the average
// score seen so far, the Stockfish formula spec.md's evaluator carries
// over: an engine that has been doing well recently biases its own
// static eval slightly upward, and vice versa.
func (w *Worker) UpdateOptimism(score int) {
	w.avgScore = (w.avgScore*3 + score) / 4
	bias := 142 * w.avgScore / (abs(w.avgScore) + 91)
	w.optimism[0] = bias
	w.optimism[1] = -bias
}

func (w *Worker) isExcludedRootMove(m shogi.Move) bool {
	for _, e := range w.excludedRootMoves {
		if e == m {
			return true
		}
	}
	for _, e := range w.multiPVExclude {
		if e == m {
			return true
		}
	}
	return false
}

func (w *Worker) stopped() bool {
	return w.stopFlag.Load()
}

// GetPV returns the principal variation found by the last completed
// SearchDepth call.
func (w *Worker) GetPV() []shogi.Move {
	return append([]shogi.Move(nil), w.pv.moves[0][:w.pv.length[0]]...)
}

func (w *Worker) evaluate() int {
	var score int
	if w.useNNUE {
		score = w.nnueEval.Evaluate(w.pos)
	} else {
		score = EvaluateWithCache(w.pos, w.materialCache)
	}
	score += w.optimism[w.pos.SideToMove()]
	score += w.corrHistory.Get(w.pos)
	return score
}

func (w *Worker) doMove(m shogi.Move) {
	if w.useNNUE {
		w.nnueEval.Push()
	}
	w.pos.DoMove(m)
	if w.useNNUE {
		w.nnueEval.Update(w.pos, m, w.pos.LastDirty())
	}
	if w.posHistoryLen < len(w.posHistoryBuffer) {
		w.posHistoryBuffer[w.posHistoryLen] = w.pos.Hash()
	}
	w.posHistoryLen++
}

func (w *Worker) undoMove(m shogi.Move) {
	w.posHistoryLen--
	w.pos.UndoMove(m)
	if w.useNNUE {
		w.nnueEval.Pop()
	}
}

func (w *Worker) doNullMove() {
	if w.useNNUE {
		w.nnueEval.Push()
	}
	w.pos.DoNullMove()
	w.posHistoryLen++ // null move still occupies a ply slot for the repetition ring
}

func (w *Worker) undoNullMove() {
	w.posHistoryLen--
	w.pos.UndoNullMove()
	if w.useNNUE {
		w.nnueEval.Pop()
	}
}

// isDraw reports whether the current position should be scored as a
// draw: sennichite (the position has occurred three or more times
// since the game began, spec.md §4.G) or the move-horizon safety net.
func (w *Worker) isDraw() bool {
	if w.posHistoryLen > maxGameLength {
		return true
	}
	hash := w.pos.Hash()
	count := 0
	for i := 0; i < w.posHistoryLen; i++ {
		if w.posHistoryBuffer[i] == hash {
			count++
			if count >= 3 {
				return true
			}
		}
	}
	return false
}

// SearchDepth runs one full iterative-deepening iteration at depth from
// the root position within window [alpha, beta], returning the best
// move and its score. engine.go supplies the aspiration window and
// widens it and re-calls on a fail-high/fail-low, per spec.md §4.G.
func (w *Worker) SearchDepth(depth, alpha, beta int) (shogi.Move, int) {
	w.depth = depth
	pos := w.pos

	moves := pos.LegalMoves()
	if moves.Len() == 0 {
		if pos.InCheck() {
			return shogi.NullMove, -MateScore
		}
		return shogi.NullMove, 0
	}

	var ttMove shogi.Move
	if entry, ok := w.tt.Probe(pos.Hash()); ok {
		ttMove = entry.BestMove
	}

	scores := w.orderer.ScoreMoves(pos, moves, 0, ttMove)
	SortMoves(moves, scores)
	w.diversifyRootOrder(moves, scores)

	bestScore := -Infinity
	bestMove := shogi.NullMove
	legalSearched := 0

	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if w.isExcludedRootMove(m) {
			continue
		}
		if legalSearched > 0 && w.stopped() {
			break
		}

		w.doMove(m)
		w.nodes++

		var score int
		if legalSearched == 0 {
			score = -w.negamax(depth-1, 1, -beta, -alpha, m, shogi.NullMove, false)
		} else {
			reduced := depth - 1
			if depth >= 3 && i >= 3 {
				reduced -= w.lmrReduction(depth, i, false, true)
			}
			score = -w.negamax(reduced, 1, -alpha-1, -alpha, m, shogi.NullMove, true)
			if score > alpha && (reduced < depth-1 || score < beta) {
				score = -w.negamax(depth-1, 1, -beta, -alpha, m, shogi.NullMove, false)
			}
		}

		w.undoMove(m)
		legalSearched++

		if legalSearched > 1 && w.stopped() {
			break
		}

		if score > bestScore {
			bestScore = score
			bestMove = m
			w.updatePV(0, m)
		}
		if score > alpha {
			alpha = score
			if alpha >= beta {
				break
			}
		}
	}

	if legalSearched == 0 {
		// Every legal root move was excluded (MultiPV asked for more
		// lines than exist): nothing left to report.
		return shogi.NullMove, bestScore
	}

	return bestMove, bestScore
}

// diversifyRootOrder gives helper workers (id != 0) a chance to explore
// a different root move first, the cheap randomization spec.md §4.H's
// LazySMP diversity calls for: the primary thread's order is left
// untouched so its result stays the coordinator's authoritative answer.
func (w *Worker) diversifyRootOrder(moves *shogi.MoveList, scores []int) {
	if w.id == 0 || moves.Len() < 2 {
		return
	}
	j := int(w.helperSeed % uint64(moves.Len()))
	if j == 0 {
		return
	}
	moves.Swap(0, j)
	scores[0], scores[j] = scores[j], scores[0]
}

func (w *Worker) updatePV(ply int, m shogi.Move) {
	w.pv.moves[ply][0] = m
	childLen := w.pv.length[ply+1]
	copy(w.pv.moves[ply][1:1+childLen], w.pv.moves[ply+1][:childLen])
	w.pv.length[ply] = childLen + 1
}

// lmrReduction returns the Late Move Reduction (spec.md §4.G) for the
// moveIndex'th move searched at depth: a log-based factor, reduced
// further for PV nodes and increased for non-improving positions,
// clamped to never exceed depth.
func (w *Worker) lmrReduction(depth, moveIndex int, improving, isPV bool) int {
	if depth < 2 || moveIndex < 2 {
		return 0
	}
	r := lmrTable[clampIndex(depth, 63)][clampIndex(moveIndex, 63)]
	if isPV {
		r--
	}
	if !improving {
		r++
	}
	if w.id != 0 {
		// helpers skew a little deeper into reduction so their search
		// trees diverge from the primary's instead of retracing it.
		r += int(w.helperSeed % 2)
	}
	if r < 0 {
		r = 0
	}
	if r > depth-1 {
		r = depth - 1
	}
	return r
}

func clampIndex(x, max int) int {
	if x < 0 {
		return 0
	}
	if x > max {
		return max
	}
	return x
}

// lmrTable[depth][moveIndex] is precomputed once at package init,
// matching the log(depth)*log(moveIndex) shape used throughout modern
// alpha-beta engines (spec.md §4.G describes the shape, not the exact
// constant, so the scaling factors are this engine's own tuning).
var lmrTable [64][64]int

func init() {
	for d := 1; d < 64; d++ {
		for m := 1; m < 64; m++ {
			lmrTable[d][m] = int(0.5 + logTable[d]*logTable[m]*0.45)
		}
	}
}

var logTable [64]float64

func init() {
	logTable[0] = 0
	for i := 1; i < 64; i++ {
		logTable[i] = naturalLog(float64(i))
	}
}

// naturalLog is a small series-based ln approximation so the package
// doesn't need to import math just for this one call site's table
// initialization (everything else in this package is integer
// arithmetic); accuracy beyond two decimal places doesn't matter here
// since the result only ever feeds an LMR depth reduction.
func naturalLog(x float64) float64 {
	// ln(x) = 2*atanh((x-1)/(x+1)), via the Taylor series of atanh.
	y := (x - 1) / (x + 1)
	y2 := y * y
	sum := y
	term := y
	for i := 1; i < 100; i++ {
		term *= y2
		sum += term / float64(2*i+1)
	}
	return 2 * sum
}

// negamax is the main alpha-beta search function: principal-variation
// search with null-move pruning, razoring, reverse futility pruning,
// internal iterative deepening, ProbCut, late move reductions/pruning,
// singular and check extensions, and quiescence search at the leaves
// (spec.md §4.G's standard elements).
func (w *Worker) negamax(depth, ply int, alpha, beta int, prevMove, excludedMove shogi.Move, cutNode bool) int {
	if depth <= 0 {
		return w.quiescence(ply, alpha, beta)
	}

	w.nodes++
	if w.nodes&2047 == 0 && w.stopped() {
		return 0
	}

	isPV := beta-alpha > 1
	isRoot := ply == 0

	if !isRoot {
		if w.isDraw() {
			return 0
		}
		if ply >= MaxPly-1 {
			return w.evaluate()
		}
		// Mate-distance pruning: no line through this node can beat a
		// mate already found closer to the root, so tighten the window
		// before doing any more work.
		alpha = maxInt(alpha, -MateScore+ply)
		beta = minInt(beta, MateScore-ply)
		if alpha >= beta {
			return alpha
		}
	}

	pos := w.pos
	hash := pos.Hash()

	var ttMove shogi.Move
	var ttHit bool
	var ttEntry TTEntry
	if excludedMove == shogi.NullMove {
		ttEntry, ttHit = w.tt.Probe(hash)
		if ttHit {
			ttMove = ttEntry.BestMove
			if !isPV && int(ttEntry.Depth) >= depth {
				score := AdjustScoreFromTT(int(ttEntry.Score), ply)
				switch ttEntry.Flag {
				case TTExact:
					return score
				case TTLowerBound:
					if score >= beta {
						return score
					}
				case TTUpperBound:
					if score <= alpha {
						return score
					}
				}
			}
		}
	}

	inCheck := pos.InCheck()

	var staticEval int
	if inCheck {
		staticEval = -Infinity
	} else if ttHit {
		staticEval = int(ttEntry.Eval)
	} else {
		staticEval = w.evaluate()
	}
	w.searchStack[ply] = SearchStack{move: prevMove, staticEval: staticEval, ply: ply}

	improving := false
	if !inCheck && ply >= 2 && w.searchStack[ply-2].staticEval != -Infinity {
		improving = staticEval > w.searchStack[ply-2].staticEval
	}

	if !isPV && !inCheck && excludedMove == shogi.NullMove {
		// Reverse futility / static-beta pruning: a large static margin
		// over beta at shallow depth means the full search is very
		// unlikely to do better.
		if depth <= 8 {
			margin := 80 * depth
			if improving {
				margin -= 40
			}
			if staticEval-margin >= beta {
				return staticEval
			}
		}

		// Razoring: far below alpha at shallow depth, drop straight to
		// quiescence rather than spending a full-depth search to
		// confirm the position is indeed lost.
		if depth <= 3 && staticEval+200*depth <= alpha {
			score := w.quiescence(ply, alpha, alpha+1)
			if score <= alpha {
				return score
			}
		}

		// Null-move pruning: skip our move entirely and let the
		// opponent move twice; if we're still doing fine afterward our
		// position must be strong enough to prune here.
		if depth >= 3 && staticEval >= beta && pos.HasNonPawnMaterial() &&
			prevMove != shogi.NullMove {
			delta := staticEval - beta
			r := 3 + depth/4
			if delta > 0 {
				r++
			}
			w.doNullMove()
			nullScore := -w.negamax(depth-1-r, ply+1, -beta, -beta+1, shogi.NullMove, shogi.NullMove, !cutNode)
			w.undoNullMove()
			if w.stopped() {
				return 0
			}
			if nullScore >= beta {
				if nullScore >= MateScore-MaxPly {
					nullScore = beta
				}
				return nullScore
			}
		}

		// ProbCut: a shallow search confirms a capture (already SEE
		// above a margin) would also beat a raised beta in the full
		// search, which is a strong enough signal to cut here without
		// paying for the full-depth search.
		probcutBeta := beta + 150
		if depth >= 5 && !isPV && abs(beta) < MateScore-MaxPly {
			captures := pos.LegalCaptures()
			capScores := w.orderer.ScoreMoves(pos, captures, ply, ttMove)
			SortMoves(captures, capScores)
			for i := 0; i < captures.Len(); i++ {
				m := captures.Get(i)
				if pos.SEE(m) < probcutBeta-staticEval {
					continue
				}
				w.doMove(m)
				score := -w.negamax(depth-4, ply+1, -probcutBeta, -probcutBeta+1, m, shogi.NullMove, !cutNode)
				w.undoMove(m)
				if w.stopped() {
					return 0
				}
				if score >= probcutBeta {
					return score
				}
			}
		}
	}

	// Internal iterative deepening: without a hash move to try first,
	// run a shallower nested search over this same position to discover
	// one before committing to the full-depth search, then re-probe the
	// TT the nested search just populated for its best move.
	if depth >= 6 && ttMove == shogi.NullMove && excludedMove == shogi.NullMove && !inCheck {
		w.negamax(depth-2, ply, alpha, beta, prevMove, shogi.NullMove, true)
		if w.stopped() {
			return 0
		}
		if entry, ok := w.tt.Probe(hash); ok {
			ttMove = entry.BestMove
		}
	}

	moves := pos.LegalMoves()
	if moves.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}

	scores := w.orderer.ScoreMovesWithCounter(pos, moves, ply, ttMove, prevMove)
	if excludedMove != shogi.NullMove {
		for i := 0; i < moves.Len(); i++ {
			if moves.Get(i) == excludedMove {
				scores[i] = -Infinity
			}
		}
	}

	bestScore := -Infinity
	bestMove := shogi.NullMove
	flag := TTUpperBound
	legalSearched := 0
	quietsSeen := 0
	var quietsTried []shogi.Move

	lmpThreshold := 3 + depth*depth
	if !improving {
		lmpThreshold /= 2
	}

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		m := moves.Get(i)
		if m == excludedMove {
			continue
		}

		isCap := isCapture(pos, m)
		isQuiet := !isCap && !m.IsPromotion()

		// Singular extension: if the TT move is the only move that
		// beats a reduced-depth search by a wide margin, it's likely
		// forced, and the position deserves the extra ply rather than
		// being searched at the normal depth.
		extension := 0
		if !isRoot && m == ttMove && depth >= 8 && ttHit &&
			excludedMove == shogi.NullMove && int(ttEntry.Depth) >= depth-3 &&
			ttEntry.Flag != TTUpperBound {
			singularBeta := int(ttEntry.Score) - 2*depth
			singularScore := w.negamax((depth-1)/2, ply, singularBeta-1, singularBeta, prevMove, m, cutNode)
			if singularScore < singularBeta {
				extension = 1
			} else if singularBeta >= beta {
				return singularBeta
			}
		} else if inCheck {
			extension = 1
		}

		if !isPV && !inCheck && bestScore > -MateScore+MaxPly && legalSearched > 0 {
			// Late move pruning: once enough quiet moves have been
			// tried at a shallow depth without improving alpha, stop
			// generating more of them.
			if isQuiet && depth <= 6 && quietsSeen >= lmpThreshold {
				continue
			}
			// SEE pruning: a quiet or losing-capture move that loses
			// material outright is not worth searching at shallow
			// depth away from the principal variation.
			if depth <= 6 {
				margin := -20 * depth * depth
				if isCap {
					margin -= 80
				}
				if pos.SEE(m) < margin {
					continue
				}
			}
		}

		w.doMove(m)
		w.nodes++
		legalSearched++
		if isQuiet {
			quietsSeen++
			quietsTried = append(quietsTried, m)
		}

		newDepth := depth - 1 + extension

		var score int
		if legalSearched == 1 {
			score = -w.negamax(newDepth, ply+1, -beta, -alpha, m, shogi.NullMove, false)
		} else {
			reduction := 0
			if depth >= 3 && legalSearched >= 4 && isQuiet {
				reduction = w.lmrReduction(depth, legalSearched, improving, isPV)
				if cutNode {
					reduction++
				}
				hist := w.orderer.GetHistoryScore(m) + w.sharedHistory.Get(int(m.From()), int(m.To()))
				if hist > 0 {
					reduction -= hist / 8000
				}
				if reduction < 0 {
					reduction = 0
				}
				if reduction > newDepth-1 {
					reduction = newDepth - 1
				}
			}
			score = -w.negamax(newDepth-reduction, ply+1, -alpha-1, -alpha, m, shogi.NullMove, true)
			if score > alpha && reduction > 0 {
				score = -w.negamax(newDepth, ply+1, -alpha-1, -alpha, m, shogi.NullMove, !cutNode)
			}
			if score > alpha && score < beta {
				score = -w.negamax(newDepth, ply+1, -beta, -alpha, m, shogi.NullMove, false)
			}
		}

		w.undoMove(m)

		if w.stopped() {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = m
			if score > alpha {
				alpha = score
				flag = TTExact
				if !isRoot {
					w.updatePV(ply, m)
				}
				if alpha >= beta {
					flag = TTLowerBound
					break
				}
			}
		}
	}

	if legalSearched == 0 {
		// Every move was excluded by the singular-extension probe;
		// report the (ttEntry-derived) bound unchanged.
		return alpha
	}

	if bestScore >= beta && bestMove != shogi.NullMove {
		bonus := depth * depth
		if !isCapture(pos, bestMove) {
			w.orderer.UpdateKillers(bestMove, ply)
			w.orderer.UpdateHistory(bestMove, depth, true)
			w.sharedHistory.Update(int(bestMove.From()), int(bestMove.To()), bonus)
			w.orderer.UpdateCounterMove(prevMove, bestMove, pos)
			for _, q := range quietsTried {
				if q != bestMove {
					w.orderer.UpdateHistory(q, depth, false)
					w.sharedHistory.Update(int(q.From()), int(q.To()), -bonus)
				}
			}
		} else {
			attacker := movingPieceIndex(pos, bestMove)
			victim := pos.PieceAt(bestMove.To()).Type()
			w.orderer.UpdateCaptureHistory(shogi.Piece(attacker), bestMove.To(), victim, depth, true)
		}
	}

	if !inCheck && excludedMove == shogi.NullMove && bestMove != shogi.NullMove && !isCapture(pos, bestMove) {
		w.corrHistory.Update(pos, bestScore, staticEval, depth)
	}

	if excludedMove == shogi.NullMove {
		w.tt.Store(hash, depth, AdjustScoreToTT(bestScore, ply), staticEval, flag, bestMove, isPV)
	}

	return bestScore
}

// quiescence resolves captures and check evasions past the main search's
// horizon (spec.md §4.G), so the static evaluator is never trusted in the
// middle of a capture sequence. Non-capturing promotions are not searched.
func (w *Worker) quiescence(ply, alpha, beta int) int {
	w.nodes++
	if w.nodes&2047 == 0 && w.stopped() {
		return 0
	}
	if ply >= MaxPly-1 {
		return w.evaluate()
	}
	if w.isDraw() {
		return 0
	}

	pos := w.pos
	inCheck := pos.InCheck()

	var bestScore int
	var moves *shogi.MoveList
	if inCheck {
		bestScore = -Infinity
		moves = pos.LegalMoves()
	} else {
		bestScore = w.evaluate()
		if bestScore >= beta {
			return bestScore
		}
		if bestScore > alpha {
			alpha = bestScore
		}
		moves = pos.LegalCaptures()
	}

	if moves.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return bestScore
	}

	scores := w.orderer.ScoreMoves(pos, moves, ply, shogi.NullMove)
	SortMoves(moves, scores)

	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)

		if !inCheck {
			// Delta pruning: even winning this capture outright
			// couldn't plausibly raise the score back to alpha.
			gain := 200
			if isCapture(pos, m) {
				gain += pieceValues[pos.PieceAt(m.To()).Type()]
			}
			if bestScore+gain < alpha && pos.SEE(m) < 0 {
				continue
			}
			if pos.SEE(m) < 0 {
				continue
			}
		}

		w.doMove(m)
		score := -w.quiescence(ply+1, -beta, -alpha)
		w.undoMove(m)

		if w.stopped() {
			return 0
		}

		if score > bestScore {
			bestScore = score
			if score > alpha {
				alpha = score
				if alpha >= beta {
					break
				}
			}
		}
	}

	return bestScore
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
