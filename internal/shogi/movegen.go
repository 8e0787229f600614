package shogi

// Move generation: pseudo-legal board moves and drops, a legality
// filter, and the three independently-testable drop-illegality
// predicates original_source/engine-core/src/shogi/position/validation.rs
// keeps apart (nifu, no-legal-destination, uchifuzume) rather than one
// monolithic "can this be dropped" check (see DESIGN.md).

// promotionZoneRank is the relative rank (Square.RelativeRank) at and
// above which a piece may promote: the last three ranks of the board.
const promotionZoneRank = 2

func inPromotionZone(sq Square, c Color) bool {
	return sq.RelativeRank(c) <= promotionZoneRank
}

// mustPromote reports whether a piece of type pt moving to "to" has no
// legal non-promoting move left (Pawn/Lance on the last rank, Knight on
// the last two ranks) and therefore must promote.
func mustPromote(pt PieceType, to Square, c Color) bool {
	rr := to.RelativeRank(c)
	switch pt {
	case Pawn, Lance:
		return rr == 0
	case Knight:
		return rr <= 1
	default:
		return false
	}
}

// GeneratePseudoLegal appends every pseudo-legal board move and drop for
// the side to move to list: legality (does it leave the mover's own
// king in check) is not checked here, matching
// internal/board/movegen.go's staged pseudo-legal-then-filter structure.
func (p *Position) GeneratePseudoLegal(list *MoveList) {
	p.generateBoardMoves(list)
	p.generateDrops(list)
}

func (p *Position) generateBoardMoves(list *MoveList) {
	us := p.sideToMove
	own := p.colorBB[us]
	for sq := Square(0); sq < 81; sq++ {
		if !own.IsSet(sq) {
			continue
		}
		pc := p.board[sq]
		pt := pc.Type()
		var targets Bitboard
		switch pt {
		case Lance, Bishop, Rook, Horse, Dragon:
			targets = SlidingAttacks(us, pt, sq, p.occupied)
		default:
			targets = StepAttacks(us, pt, sq)
		}
		targets = targets.AndNot(own)

		targets.ForEach(func(to Square) {
			canPromote := !pt.IsPromoted() && pt != Gold && pt != King &&
				(inPromotionZone(sq, us) || inPromotionZone(to, us))
			if canPromote && mustPromote(pt, to, us) {
				list.Add(NewMove(sq, to, true))
				return
			}
			list.Add(NewMove(sq, to, false))
			if canPromote {
				list.Add(NewMove(sq, to, true))
			}
		})
	}
}

func (p *Position) generateDrops(list *MoveList) {
	us := p.sideToMove
	hand := p.hands[us]
	empty := p.occupied.Not()
	for _, pt := range handOrder {
		if hand[pt] == 0 {
			continue
		}
		targets := empty
		targets.ForEach(func(to Square) {
			if mustPromote(pt, to, us) {
				return // would have no legal move; illegal destination
			}
			if pt == Pawn {
				if dropIsNifu(p, us, to) {
					return
				}
				if dropIsUchifuzume(p, us, to) {
					return
				}
			}
			list.Add(NewDrop(pt, to))
		})
	}
}

// dropIsNifu reports whether dropping a pawn of color us onto the file
// of "to" is illegal because an unpromoted pawn of color us already
// stands on that file ("two pawns", spec.md drop-illegality rules).
func dropIsNifu(p *Position, us Color, to Square) bool {
	file := to.File()
	ownPawns := p.PiecesOf(us, Pawn)
	var fileMask Bitboard
	for r := Rank(0); r < 9; r++ {
		fileMask = fileMask.Set(NewSquare(file, r))
	}
	return !ownPawns.And(fileMask).Empty()
}

// dropIsUchifuzume reports whether dropping a pawn at "to" delivers
// checkmate, which is illegal in Shogi (uchifuzume) even though
// delivering checkmate by any other means is legal.
func dropIsUchifuzume(p *Position, us Color, to Square) bool {
	them := us.Opponent()
	if !StepAttacks(us, Pawn, to).IsSet(p.kingSquare[them]) {
		return false // not even a checking drop
	}
	m := NewDrop(Pawn, to)
	p.DoMove(m)
	mate := p.InCheck() && len(p.LegalMoves().Slice()) == 0
	p.UndoMove(m)
	return mate
}

// IsLegal reports whether pseudo-legal move m leaves the mover's own
// king safe. It makes and unmakes the move on p, so it must not be
// called concurrently with other mutators of p.
func (p *Position) IsLegal(m Move) bool {
	us := p.sideToMove
	p.DoMove(m)
	illegal := p.IsSquareAttacked(p.kingSquare[us], p.sideToMove)
	p.UndoMove(m)
	return !illegal
}

// LegalMoves returns every fully legal move (board move or drop) for the
// side to move.
func (p *Position) LegalMoves() *MoveList {
	var pseudo MoveList
	p.GeneratePseudoLegal(&pseudo)
	var legal MoveList
	for i := 0; i < pseudo.Len(); i++ {
		m := pseudo.Get(i)
		if p.IsLegal(m) {
			legal.Add(m)
		}
	}
	return &legal
}

// GameOver reports whether the side to move has no legal moves
// (checkmate if InCheck, stalemate otherwise -- though Shogi treats both
// as a loss for the side with no moves, unlike chess's stalemate draw).
func (p *Position) GameOver() bool {
	return len(p.LegalMoves().Slice()) == 0
}

// LegalCaptures returns every legal move that captures an enemy piece,
// the move subset quiescence search (internal/engine/worker.go) needs
// once the main search has bottomed out at depth 0.
func (p *Position) LegalCaptures() *MoveList {
	var captures MoveList
	for _, m := range p.LegalMoves().Slice() {
		if !m.IsDrop() && p.board[m.To()] != NoPiece {
			captures.Add(m)
		}
	}
	return &captures
}

// HasNonPawnMaterial reports whether the side to move holds any piece
// besides pawns and its king, on the board or in hand. Null-move
// pruning (internal/engine/worker.go) is unsound in pawn/king-only
// endings (zugzwang is common there), the same guard the teacher
// applies before trying a null move.
func (p *Position) HasNonPawnMaterial() bool {
	us := p.sideToMove
	nonPawn := p.colorBB[us].AndNot(p.typeBB[Pawn]).AndNot(p.typeBB[King])
	if !nonPawn.Empty() {
		return true
	}
	hand := p.hands[us]
	for _, pt := range handOrder {
		if pt != Pawn && hand[pt] != 0 {
			return true
		}
	}
	return false
}
