package shogi

import "fmt"

// Move packs a normal board move, a drop, or the null move into 16 bits
// (spec.md §3.1 / SPEC_FULL §5):
//
//	drop:   bit15=1, bits8-10 = dropped PieceType, bits0-6 = to Square
//	normal: bit15=0, bit14 = promote flag, bits7-13 = from Square,
//	        bits0-6 = to Square
//	null:   the all-zero value (from==to==0 is not a legal normal move,
//	        since a piece may not move to its own square)
type Move uint16

// NullMove is the distinguished all-zero value used for the search
// driver's null-move pruning (spec.md §4.G).
const NullMove Move = 0

const (
	dropFlagBit    = 1 << 15
	promoteFlagBit = 1 << 14
	toMask         = 0x7F
	fromShift      = 7
	dropPieceShift = 8
	dropPieceMask  = 0x7
)

// NewMove builds a normal board move.
func NewMove(from, to Square, promote bool) Move {
	m := Move(uint16(from)<<fromShift | uint16(to)&toMask)
	if promote {
		m |= promoteFlagBit
	}
	return m
}

// NewDrop builds a drop move of pt onto to.
func NewDrop(pt PieceType, to Square) Move {
	return Move(dropFlagBit | uint16(pt)<<dropPieceShift | uint16(to)&toMask)
}

// IsDrop reports whether m is a drop move. NullMove is not a drop.
func (m Move) IsDrop() bool { return m != NullMove && m&dropFlagBit != 0 }

// IsNull reports whether m is the null move.
func (m Move) IsNull() bool { return m == NullMove }

// From returns the origin square of a normal move. Calling it on a drop
// or the null move is a programming error; callers must check IsDrop
// first.
func (m Move) From() Square {
	return Square((m >> fromShift) & toMask)
}

// To returns the destination square of any non-null move.
func (m Move) To() Square {
	return Square(m & toMask)
}

// DroppedPiece returns the piece type dropped by a drop move.
func (m Move) DroppedPiece() PieceType {
	return PieceType((m >> dropPieceShift) & dropPieceMask)
}

// IsPromotion reports whether a normal move promotes the moved piece.
func (m Move) IsPromotion() bool { return !m.IsDrop() && m&promoteFlagBit != 0 }

// String renders m in USI move notation (notation.go carries the full
// parser; this is the minimal square-only form used by String()/Stringer
// callers that don't have board context, e.g. log lines).
func (m Move) String() string {
	if m.IsNull() {
		return "0000"
	}
	if m.IsDrop() {
		return fmt.Sprintf("%c*%s", m.DroppedPiece().Letter(), m.To())
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += "+"
	}
	return s
}

// MaxMoves bounds the legal moves from any single Shogi position; it is
// comfortably above the largest known legal move count and is used to
// size MoveList's backing array without allocation.
const MaxMoves = 600

// MoveList is a fixed-capacity, allocation-free list of moves used by
// the move generator and search driver.
type MoveList struct {
	moves [MaxMoves]Move
	n     int
}

// Add appends m.
func (l *MoveList) Add(m Move) {
	if l.n < MaxMoves {
		l.moves[l.n] = m
		l.n++
	}
}

// Len returns the number of moves in the list.
func (l *MoveList) Len() int { return l.n }

// Get returns the i'th move.
func (l *MoveList) Get(i int) Move { return l.moves[i] }

// Set overwrites the i'th move.
func (l *MoveList) Set(i int, m Move) { l.moves[i] = m }

// Swap exchanges the i'th and j'th moves.
func (l *MoveList) Swap(i, j int) { l.moves[i], l.moves[j] = l.moves[j], l.moves[i] }

// Clear empties the list without releasing its backing array.
func (l *MoveList) Clear() { l.n = 0 }

// Contains reports whether m is present in the list.
func (l *MoveList) Contains(m Move) bool {
	for i := 0; i < l.n; i++ {
		if l.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the populated prefix of the list as a slice, sharing the
// list's backing array.
func (l *MoveList) Slice() []Move { return l.moves[:l.n] }
