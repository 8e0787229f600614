// Package shogi implements the board, move, and position primitives of a
// 9x9 Shogi game: bitboards, attack generation, move generation, SFEN and
// USI move notation, and the incremental position state used by search.
package shogi

import "math/bits"

// Bitboard represents a set of the 81 squares of a Shogi board as two
// 64-bit words. Lo holds squares on files 0..4 (45 bits used), Hi holds
// squares on files 5..8 (36 bits used, stored as if the global bit index
// continued past 64). This split matches the reference implementation
// this engine descends from and makes the carry-propagation slider
// algorithm in slides.go a plain two-word integer operation.
type Bitboard struct {
	Lo uint64
	Hi uint64
}

// EmptyBB is the zero value; it is also the zero Bitboard.
var EmptyBB = Bitboard{}

// SquareBB returns the single-bit Bitboard for sq.
func SquareBB(sq Square) Bitboard {
	idx := squareBitIndex(sq)
	if idx < 64 {
		return Bitboard{Lo: 1 << idx}
	}
	return Bitboard{Hi: 1 << (idx - 64)}
}

func squareBitIndex(sq Square) uint {
	f := sq.File()
	if f < 5 {
		return uint(f)*9 + uint(sq.Rank())
	}
	return 64 + uint(f-5)*9 + uint(sq.Rank())
}

// Set returns bb with sq added.
func (bb Bitboard) Set(sq Square) Bitboard {
	return bb.Or(SquareBB(sq))
}

// Clear returns bb with sq removed.
func (bb Bitboard) Clear(sq Square) Bitboard {
	s := SquareBB(sq)
	return Bitboard{Lo: bb.Lo &^ s.Lo, Hi: bb.Hi &^ s.Hi}
}

// IsSet reports whether sq is a member of bb.
func (bb Bitboard) IsSet(sq Square) bool {
	s := SquareBB(sq)
	return bb.Lo&s.Lo != 0 || bb.Hi&s.Hi != 0
}

// Toggle flips membership of sq in bb.
func (bb Bitboard) Toggle(sq Square) Bitboard {
	s := SquareBB(sq)
	return Bitboard{Lo: bb.Lo ^ s.Lo, Hi: bb.Hi ^ s.Hi}
}

// Or returns the union of bb and other.
func (bb Bitboard) Or(other Bitboard) Bitboard {
	return Bitboard{Lo: bb.Lo | other.Lo, Hi: bb.Hi | other.Hi}
}

// And returns the intersection of bb and other.
func (bb Bitboard) And(other Bitboard) Bitboard {
	return Bitboard{Lo: bb.Lo & other.Lo, Hi: bb.Hi & other.Hi}
}

// AndNot returns bb with every bit of other removed.
func (bb Bitboard) AndNot(other Bitboard) Bitboard {
	return Bitboard{Lo: bb.Lo &^ other.Lo, Hi: bb.Hi &^ other.Hi}
}

// Xor returns the symmetric difference of bb and other.
func (bb Bitboard) Xor(other Bitboard) Bitboard {
	return Bitboard{Lo: bb.Lo ^ other.Lo, Hi: bb.Hi ^ other.Hi}
}

// Not returns the complement of bb restricted to the 81 on-board squares.
func (bb Bitboard) Not() Bitboard {
	return Bitboard{Lo: ^bb.Lo & loMask, Hi: ^bb.Hi & hiMask}
}

// Empty reports whether bb has no members.
func (bb Bitboard) Empty() bool {
	return bb.Lo == 0 && bb.Hi == 0
}

// More reports whether bb has more than one member.
func (bb Bitboard) More() bool {
	return !bb.AndNot(bb.isolateLSB()).Empty()
}

// PopCount returns the number of members of bb.
func (bb Bitboard) PopCount() int {
	return bits.OnesCount64(bb.Lo) + bits.OnesCount64(bb.Hi)
}

func (bb Bitboard) isolateLSB() Bitboard {
	if bb.Lo != 0 {
		return Bitboard{Lo: bb.Lo & -bb.Lo}
	}
	return Bitboard{Hi: bb.Hi & -bb.Hi}
}

// LSB returns the lowest-indexed member square of bb. Callers must check
// Empty() first; LSB of an empty board returns NoSquare.
func (bb Bitboard) LSB() Square {
	if bb.Lo != 0 {
		return squareFromBitIndex(uint(bits.TrailingZeros64(bb.Lo)))
	}
	if bb.Hi != 0 {
		return squareFromBitIndex(64 + uint(bits.TrailingZeros64(bb.Hi)))
	}
	return NoSquare
}

// PopLSB returns the lowest-indexed member square of bb and bb with that
// square removed.
func (bb Bitboard) PopLSB() (Square, Bitboard) {
	sq := bb.LSB()
	if sq == NoSquare {
		return NoSquare, bb
	}
	return sq, bb.Clear(sq)
}

// ForEach calls f once for every member square of bb, in increasing
// bit-index order.
func (bb Bitboard) ForEach(f func(Square)) {
	for !bb.Empty() {
		var sq Square
		sq, bb = bb.PopLSB()
		f(sq)
	}
}

// Squares returns the member squares of bb as a slice.
func (bb Bitboard) Squares() []Square {
	out := make([]Square, 0, bb.PopCount())
	bb.ForEach(func(sq Square) { out = append(out, sq) })
	return out
}

const (
	loMask uint64 = (1 << 45) - 1
	hiMask uint64 = (1 << 36) - 1
)

// shiftLeft1 shifts the two-word integer (Hi:Lo) left by one bit,
// propagating carry from Lo into Hi.
func shiftLeft1(bb Bitboard) Bitboard {
	return Bitboard{
		Lo: bb.Lo << 1,
		Hi: (bb.Hi << 1) | (bb.Lo >> 63),
	}
}

// sub128 computes the two-word integer subtraction a-b with borrow
// propagation between words, treating (Hi:Lo) as one little-endian
// 128-bit unsigned integer.
func sub128(a, b Bitboard) Bitboard {
	lo := a.Lo - b.Lo
	var borrow uint64
	if a.Lo < b.Lo {
		borrow = 1
	}
	hi := a.Hi - b.Hi - borrow
	return Bitboard{Lo: lo, Hi: hi}
}

// reverse128 reverses the bit order of the two-word integer (Hi:Lo),
// treating it as one 128-bit value: bit i of the input becomes bit
// 127-i of the output. This is the bit-reverse primitive the carry
// propagation slider algorithm in slides.go uses.
func reverse128(bb Bitboard) Bitboard {
	return Bitboard{
		Lo: bits.Reverse64(bb.Hi),
		Hi: bits.Reverse64(bb.Lo),
	}
}

func squareFromBitIndex(idx uint) Square {
	if idx < 64 {
		file := File(idx / 9)
		rank := Rank(idx % 9)
		return NewSquare(file, rank)
	}
	idx -= 64
	file := File(5 + idx/9)
	rank := Rank(idx % 9)
	return NewSquare(file, rank)
}

func (bb Bitboard) String() string {
	s := ""
	for r := Rank(0); r < 9; r++ {
		for f := File(0); f < 9; f++ {
			if bb.IsSet(NewSquare(f, r)) {
				s += "1"
			} else {
				s += "."
			}
		}
		s += "\n"
	}
	return s
}
