package shogi

// Sliding-piece (Lance, Bishop, Rook, and their promoted forms Horse and
// Dragon) attack generation, computed at search time via carry
// propagation rather than a magic-bitboard lookup table (spec.md §3.2
// requires this for the 81-bit geometry; see SPEC_FULL.md §9 for why the
// teacher's magic-multiplier technique, internal/board/magic.go, does
// not generalize cleanly to 81 squares and is not used here).
//
// The core primitive is the textbook "Hyperbola Quintessence" trick,
// generalized from one 64-bit word to the two-word Bitboard:
//
//	attacks = ((o - 2s) ^ reverse(reverse(o) - 2*reverse(s))) & lineMask
//
// where o is the occupancy restricted to the line through the slider's
// square, s is the slider's own single-bit board, and reverse treats
// (Hi,Lo) as one 128-bit integer. and AND'ing the final result with
// lineMask discards anything the subtraction dragged in from outside
// the line (spec.md §8's naive-ray-walk equivalence property).

var (
	fileMaskTb     [81]Bitboard
	rankMaskTb     [81]Bitboard
	diagMaskTb     [81]Bitboard // "/" direction (file increases, rank decreases)
	antiDiagMaskTb [81]Bitboard // "\" direction (file increases, rank increases)

	// forwardFileTb[c][sq] is the half of sq's file ray in c's forward
	// direction, used to restrict a Lance's bidirectional file-line
	// result down to its single legal direction of travel.
	forwardFileTb [2][81]Bitboard
)

func init() {
	for sq := Square(0); sq < 81; sq++ {
		f, r := sq.File(), sq.Rank()
		var file, rank, diag, anti Bitboard
		for s := Square(0); s < 81; s++ {
			if s == sq {
				continue
			}
			if s.File() == f {
				file = file.Set(s)
			}
			if s.Rank() == r {
				rank = rank.Set(s)
			}
			df := int(s.File()) - int(f)
			dr := int(s.Rank()) - int(r)
			if df != 0 && df == -dr {
				diag = diag.Set(s)
			}
			if df != 0 && df == dr {
				anti = anti.Set(s)
			}
		}
		fileMaskTb[sq] = file
		rankMaskTb[sq] = rank
		diagMaskTb[sq] = diag
		antiDiagMaskTb[sq] = anti

		var fwdBlack, fwdWhite Bitboard
		for rr := int(r) - 1; rr >= 0; rr-- {
			fwdBlack = fwdBlack.Set(NewSquare(f, Rank(rr)))
		}
		for rr := int(r) + 1; rr <= 8; rr++ {
			fwdWhite = fwdWhite.Set(NewSquare(f, Rank(rr)))
		}
		forwardFileTb[Black][sq] = fwdBlack
		forwardFileTb[White][sq] = fwdWhite
	}
}

// lineAttacks computes the slide attack of a piece on sq along the given
// lineMask (a rank, file, or one diagonal direction through sq), given
// board occupancy occ, via carry-propagation/Hyperbola Quintessence.
func lineAttacks(sq Square, occ Bitboard, lineMask Bitboard) Bitboard {
	o := occ.And(lineMask)
	s := SquareBB(sq)

	forward := sub128(o, shiftLeft1(s)).Xor(o)

	ro := reverse128(o)
	rs := reverse128(s)
	backward := reverse128(sub128(ro, shiftLeft1(rs)).Xor(ro))

	return forward.Xor(backward).And(lineMask)
}

// RookAttacks returns the squares a rook (or Dragon, which adds the king
// step to this) on sq attacks given occupancy occ.
func RookAttacks(sq Square, occ Bitboard) Bitboard {
	return lineAttacks(sq, occ, fileMaskTb[sq]).Or(lineAttacks(sq, occ, rankMaskTb[sq]))
}

// BishopAttacks returns the squares a bishop (or Horse, which adds the
// king step to this) on sq attacks given occupancy occ.
func BishopAttacks(sq Square, occ Bitboard) Bitboard {
	return lineAttacks(sq, occ, diagMaskTb[sq]).Or(lineAttacks(sq, occ, antiDiagMaskTb[sq]))
}

// LanceAttacks returns the squares a Color-owned lance on sq attacks
// given occupancy occ: the file ray in that color's single forward
// direction.
func LanceAttacks(c Color, sq Square, occ Bitboard) Bitboard {
	return lineAttacks(sq, occ, fileMaskTb[sq]).And(forwardFileTb[c][sq])
}

// HorseAttacks returns the attack set of a promoted Bishop: bishop
// slides plus the orthogonal king step.
func HorseAttacks(sq Square, occ Bitboard) Bitboard {
	return BishopAttacks(sq, occ).Or(orthogonalKingStep(sq))
}

// DragonAttacks returns the attack set of a promoted Rook: rook slides
// plus the diagonal king step.
func DragonAttacks(sq Square, occ Bitboard) Bitboard {
	return RookAttacks(sq, occ).Or(diagonalKingStep(sq))
}

func orthogonalKingStep(sq Square) Bitboard {
	return KingAttacks(sq).AndNot(BishopAttacks(sq, EmptyBB))
}

func diagonalKingStep(sq Square) Bitboard {
	return KingAttacks(sq).AndNot(RookAttacks(sq, EmptyBB))
}

// SlidingAttacks returns the attack set of any sliding piece type
// (Lance, Bishop, Rook, Horse, Dragon) owned by color c on sq given
// occupancy occ. It is a programming error to call it with a
// non-sliding piece type.
func SlidingAttacks(c Color, pt PieceType, sq Square, occ Bitboard) Bitboard {
	switch pt {
	case Lance:
		return LanceAttacks(c, sq, occ)
	case Bishop:
		return BishopAttacks(sq, occ)
	case Rook:
		return RookAttacks(sq, occ)
	case Horse:
		return HorseAttacks(sq, occ)
	case Dragon:
		return DragonAttacks(sq, occ)
	default:
		return EmptyBB
	}
}

// naiveRayAttacks walks a ray one square at a time, stopping at the
// first occupied square (inclusive). It exists purely as the reference
// implementation spec.md §8's equivalence property is checked against in
// tests; production code always uses the carry-propagation functions
// above.
func naiveRayAttacks(sq Square, occ Bitboard, df, dr int) Bitboard {
	var bb Bitboard
	f, r := int(sq.File())+df, int(sq.Rank())+dr
	for f >= 0 && f <= 8 && r >= 0 && r <= 8 {
		s := NewSquare(File(f), Rank(r))
		bb = bb.Set(s)
		if occ.IsSet(s) {
			break
		}
		f += df
		r += dr
	}
	return bb
}

func naiveRookAttacks(sq Square, occ Bitboard) Bitboard {
	var bb Bitboard
	for _, d := range [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		bb = bb.Or(naiveRayAttacks(sq, occ, d[0], d[1]))
	}
	return bb
}

func naiveBishopAttacks(sq Square, occ Bitboard) Bitboard {
	var bb Bitboard
	for _, d := range [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}} {
		bb = bb.Or(naiveRayAttacks(sq, occ, d[0], d[1]))
	}
	return bb
}

func naiveLanceAttacks(c Color, sq Square, occ Bitboard) Bitboard {
	dr := -1
	if c == White {
		dr = 1
	}
	return naiveRayAttacks(sq, occ, 0, dr)
}
