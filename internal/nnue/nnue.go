// Package nnue implements the Shogi-specific half of NNUE (Efficiently
// Updatable Neural Network) evaluation: HalfKP feature indexing and the
// accumulator/network bridging into search, plus the weight-file layout
// and the scalar layer arithmetic (there are no SIMD kernels). The LEB128
// codec and little-endian I/O helpers the weight loader uses live in the
// separate nnueformat module (SPEC_FULL.md §3), the way the teacher keeps its sfnnue module
// independent of its board/search code.
package nnue

import "github.com/nozomi-shogi/engine/internal/shogi"

// HalfKP feature-space dimensions (spec.md §3.4 / SPEC_FULL.md §3):
// a feature activates for (own king square, piece type, piece square)
// for every non-king piece on the board, and for (own king square,
// piece-in-hand type, count) for every piece held in hand.
const (
	NumKingSquares = 81

	// 13 non-king piece types (7 base + 6 promoted), doubled for
	// own/enemy perspective.
	NumBoardPieceTypes = 26
	NumSquares         = 81
	boardFeatureSpace  = NumBoardPieceTypes * NumSquares

	// 7 droppable piece types, doubled for own/enemy, with counts
	// 0..18 (the maximum number of pawns a side could theoretically
	// hold).
	NumHandPieceTypes = 14
	MaxHandCount      = 19
	handFeatureSpace  = NumHandPieceTypes * MaxHandCount

	// HalfKPSize is the total per-perspective feature count.
	HalfKPSize = NumKingSquares * (boardFeatureSpace + handFeatureSpace)

	// Network dimensions, generalizing the teacher's single HalfKP net
	// (not its dual big/small HalfKAv2_hm architecture -- see DESIGN.md).
	L1Size = 256
	L2Size = 32

	InputQuantShift = 6
	L1QuantShift    = 6
	L2QuantShift    = 6
	OutputScale     = 600
)

// ClampedReLU clamps a saturating accumulator value to [0, 127] for
// quantized inference.
func ClampedReLU(x int16) int8 {
	if x < 0 {
		return 0
	}
	if x > 127 {
		return 127
	}
	return int8(x)
}

// Evaluator bridges a Network and its AccumulatorStack into the search
// driver's do/undo move cycle.
type Evaluator struct {
	net   *Network
	stack *AccumulatorStack
}

// NewEvaluator loads weights from weightsFile, or falls back to small
// deterministic random weights (for tests and for an engine running
// without EvalFile set) if weightsFile is empty.
func NewEvaluator(weightsFile string) (*Evaluator, error) {
	net := NewNetwork()
	if weightsFile != "" {
		if err := net.LoadWeights(weightsFile); err != nil {
			return nil, err
		}
	} else {
		net.InitRandom(12345)
	}
	return &Evaluator{net: net, stack: NewAccumulatorStack()}, nil
}

// Evaluate returns the position's evaluation in centipawns from the side
// to move's perspective.
func (e *Evaluator) Evaluate(pos *shogi.Position) int {
	acc := e.stack.Current()
	if !acc.Computed {
		acc.ComputeFull(pos, e.net)
	}
	return e.net.Forward(acc, pos.SideToMove())
}

// Push saves accumulator state; call before Position.DoMove.
func (e *Evaluator) Push() { e.stack.Push() }

// Pop restores accumulator state; call after Position.UndoMove.
func (e *Evaluator) Pop() { e.stack.Pop() }

// Refresh forces a full recomputation of the current accumulator from
// pos; the search calls it at the root. King moves do not go through
// Refresh: UpdateIncremental (accumulator.go) recomputes for them itself.
func (e *Evaluator) Refresh(pos *shogi.Position) {
	e.stack.Current().ComputeFull(pos, e.net)
}

// Update incrementally updates the accumulator for a move just made by
// Position.DoMove.
func (e *Evaluator) Update(pos *shogi.Position, m shogi.Move, dirty []shogi.DirtyPiece) {
	e.stack.Current().UpdateIncremental(pos, m, dirty, e.net)
}

// Reset clears the accumulator stack for a new game.
func (e *Evaluator) Reset() { e.stack.Reset() }
