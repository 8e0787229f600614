package engine

import "github.com/nozomi-shogi/engine/internal/shogi"

// Move ordering priorities, generalized from the teacher's MoveOrderer.
const (
	TTMoveScore     = 10000000 // TT move gets highest priority
	GoodCaptureBase = 1000000  // Base score for SEE-good captures
	KillerScore1    = 900000   // First killer move
	KillerScore2    = 800000   // Second killer move
	BadCaptureBase  = -100000  // SEE-losing captures
)

// numPieces bounds the Piece-indexed arrays below: a Piece is
// color*15+type, so two colors times the 15 PieceType slots (NoPieceType
// included) cover every value shogi.NewPiece can produce (0..29).
const numPieces = 30

// MoveOrderer holds per-search move-ordering heuristics: killers,
// butterfly history, counter-move, capture history, and countermove
// history, the same stages the teacher's MoveOrderer carries, reindexed
// for Shogi's 81 squares and 14 piece types and driven by SEE instead of
// the teacher's MVV/LVA table for capture ordering.
type MoveOrderer struct {
	killers [MaxPly][2]shogi.Move

	history [81][81]int

	counterMoves [numPieces][81]shogi.Move

	captureHistory [numPieces][81][15]int

	countermoveHistory [numPieces][81][numPieces][81]int
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets the move orderer for a new search, aging (rather than
// zeroing) the history tables so information from the previous search
// decays instead of vanishing.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i][0] = shogi.NullMove
		mo.killers[i][1] = shogi.NullMove
	}

	for i := range mo.history {
		for j := range mo.history[i] {
			mo.history[i][j] /= 2
		}
	}

	for i := range mo.counterMoves {
		for j := range mo.counterMoves[i] {
			mo.counterMoves[i][j] = shogi.NullMove
		}
	}

	for i := range mo.captureHistory {
		for j := range mo.captureHistory[i] {
			for k := range mo.captureHistory[i][j] {
				mo.captureHistory[i][j][k] /= 2
			}
		}
	}

	for i := range mo.countermoveHistory {
		for j := range mo.countermoveHistory[i] {
			for k := range mo.countermoveHistory[i][j] {
				for l := range mo.countermoveHistory[i][j][k] {
					mo.countermoveHistory[i][j][k][l] /= 2
				}
			}
		}
	}
}

// isCapture reports whether m captures a piece on pos (a drop never
// captures).
func isCapture(pos *shogi.Position, m shogi.Move) bool {
	return !m.IsDrop() && pos.PieceAt(m.To()) != shogi.NoPiece
}

// movingPieceIndex returns the piece-table index for the piece that
// would occupy m.From() (or the dropped type) before m is played.
func movingPieceIndex(pos *shogi.Position, m shogi.Move) int {
	if m.IsDrop() {
		return int(shogi.NewPiece(pos.SideToMove(), m.DroppedPiece()))
	}
	return int(pos.PieceAt(m.From()))
}

// ScoreMoves assigns ordering scores to moves, using SEE to split
// captures into good and bad the way spec's move-ordering stage
// requires (the teacher instead ranked every capture above every quiet
// move via a static MVV/LVA table).
func (mo *MoveOrderer) ScoreMoves(pos *shogi.Position, moves *shogi.MoveList, ply int, ttMove shogi.Move) []int {
	scores := make([]int, moves.Len())
	for i := 0; i < moves.Len(); i++ {
		scores[i] = mo.scoreMove(pos, moves.Get(i), ply, ttMove)
	}
	return scores
}

// ScoreMovesWithCounter assigns scores including counter-move and
// countermove-history bonuses for quiet moves.
func (mo *MoveOrderer) ScoreMovesWithCounter(pos *shogi.Position, moves *shogi.MoveList, ply int, ttMove, prevMove shogi.Move) []int {
	scores := make([]int, moves.Len())
	counterMove := mo.GetCounterMove(prevMove, pos)

	prevPieceIdx := -1
	if prevMove != shogi.NullMove {
		prevPieceIdx = int(pos.PieceAt(prevMove.To()))
	}

	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		scores[i] = mo.scoreMove(pos, m, ply, ttMove)

		if m == counterMove && scores[i] < KillerScore2 {
			scores[i] = KillerScore2 - 10000
		}

		if !isCapture(pos, m) && !m.IsPromotion() && m != ttMove && prevPieceIdx >= 0 {
			movePieceIdx := movingPieceIndex(pos, m)
			cmh := mo.countermoveHistory[prevPieceIdx][prevMove.To()][movePieceIdx][m.To()]
			scores[i] += cmh / 2
		}
	}

	return scores
}

// scoreMove returns the ordering score for a single move.
func (mo *MoveOrderer) scoreMove(pos *shogi.Position, m shogi.Move, ply int, ttMove shogi.Move) int {
	if m == ttMove {
		return TTMoveScore
	}

	if isCapture(pos, m) {
		see := pos.SEE(m)
		attackerIdx := movingPieceIndex(pos, m)
		victimType := pos.PieceAt(m.To()).Type()

		var score int
		if see >= 0 {
			score = GoodCaptureBase + see*10
		} else {
			score = BadCaptureBase + see*10
		}
		score += mo.captureHistory[attackerIdx][m.To()][victimType] / 4
		return score
	}

	if m.IsPromotion() {
		return GoodCaptureBase - 1000
	}

	if m == mo.killers[ply][0] {
		return KillerScore1
	}
	if m == mo.killers[ply][1] {
		return KillerScore2
	}

	return mo.history[m.From()][m.To()]
}

// SortMoves sorts moves by their scores (descending). A simple selection
// sort is sufficient: Shogi positions rarely exceed a few dozen legal
// moves.
func SortMoves(moves *shogi.MoveList, scores []int) {
	n := moves.Len()
	for i := 0; i < n-1; i++ {
		best := i
		for j := i + 1; j < n; j++ {
			if scores[j] > scores[best] {
				best = j
			}
		}
		if best != i {
			moves.Swap(i, best)
			scores[i], scores[best] = scores[best], scores[i]
		}
	}
}

// PickMove selects the best remaining move and moves it to position
// index, enabling lazy move sorting.
func PickMove(moves *shogi.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < moves.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// UpdateKillers adds a killer move at the given ply.
func (mo *MoveOrderer) UpdateKillers(m shogi.Move, ply int) {
	if ply >= MaxPly {
		return
	}
	if mo.killers[ply][0] == m {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// UpdateHistory updates the "gravity" history score for a quiet move:
// the bonus/malus shrinks as the score approaches its cap (400000),
// which keeps the table self-limiting without a separate decay pass.
func (mo *MoveOrderer) UpdateHistory(m shogi.Move, depth int, isGood bool) {
	from, to := m.From(), m.To()
	bonus := depth * depth
	if !isGood {
		bonus = -bonus
	}
	cur := mo.history[from][to]
	mo.history[from][to] = cur + bonus - cur*abs(bonus)/400000
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// UpdateCounterMove records counterMove as the reply to prevMove.
func (mo *MoveOrderer) UpdateCounterMove(prevMove, counterMove shogi.Move, pos *shogi.Position) {
	if prevMove == shogi.NullMove {
		return
	}
	piece := pos.PieceAt(prevMove.To())
	if piece == shogi.NoPiece {
		return
	}
	mo.counterMoves[piece][prevMove.To()] = counterMove
}

// GetCounterMove returns the counter move for a previous move.
func (mo *MoveOrderer) GetCounterMove(prevMove shogi.Move, pos *shogi.Position) shogi.Move {
	if prevMove == shogi.NullMove {
		return shogi.NullMove
	}
	piece := pos.PieceAt(prevMove.To())
	if piece == shogi.NoPiece {
		return shogi.NullMove
	}
	return mo.counterMoves[piece][prevMove.To()]
}

// GetHistoryScore returns the history score for a move.
func (mo *MoveOrderer) GetHistoryScore(m shogi.Move) int {
	return mo.history[m.From()][m.To()]
}

// UpdateCaptureHistory updates the capture history for a move.
func (mo *MoveOrderer) UpdateCaptureHistory(attackerPiece shogi.Piece, toSq shogi.Square, capturedType shogi.PieceType, depth int, isGood bool) {
	bonus := depth * depth
	if !isGood {
		bonus = -bonus
	}
	cur := mo.captureHistory[attackerPiece][toSq][capturedType]
	mo.captureHistory[attackerPiece][toSq][capturedType] = cur + bonus - cur*abs(bonus)/400000
}

// GetCaptureHistoryScore returns the capture history score for a capture move.
func (mo *MoveOrderer) GetCaptureHistoryScore(attackerPiece shogi.Piece, toSq shogi.Square, capturedType shogi.PieceType) int {
	return mo.captureHistory[attackerPiece][toSq][capturedType]
}

// UpdateCountermoveHistory updates the countermove history for a quiet move.
func (mo *MoveOrderer) UpdateCountermoveHistory(prevMove, goodMove shogi.Move, prevPiece, movePiece shogi.Piece, depth int, isGood bool) {
	if prevMove == shogi.NullMove {
		return
	}
	prevTo, moveTo := prevMove.To(), goodMove.To()
	bonus := depth * depth
	if !isGood {
		bonus = -bonus
	}
	cur := mo.countermoveHistory[prevPiece][prevTo][movePiece][moveTo]
	mo.countermoveHistory[prevPiece][prevTo][movePiece][moveTo] = cur + bonus - cur*abs(bonus)/400000
}

// GetCountermoveHistoryScore returns the CMH score for a move given the previous move.
func (mo *MoveOrderer) GetCountermoveHistoryScore(prevMove shogi.Move, prevPiece, movePiece shogi.Piece, moveTo shogi.Square) int {
	if prevMove == shogi.NullMove {
		return 0
	}
	return mo.countermoveHistory[prevPiece][prevMove.To()][movePiece][moveTo]
}
