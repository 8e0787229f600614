package shogi

// DirtyPiece records one square's piece-identity change across a single
// do-move step, letting the NNUE accumulator (internal/nnue) apply an
// incremental update instead of recomputing from scratch. Before/After
// of NoPiece mean "nothing here before"/"nothing here after" — i.e. an
// add or a removal rather than a replace.
type DirtyPiece struct {
	Square Square
	Before Piece
	After  Piece
}

// StateInfo is one ply's irreversible position state, chained to the
// previous ply via Previous so UndoMove can restore it in O(1) without
// replaying the whole game (spec.md §3.3's do/undo contract).
type StateInfo struct {
	Move       Move
	Captured   PieceType // NoPieceType if the move was not a capture
	Checkers   Bitboard
	Hash       uint64
	Dirty      [2]DirtyPiece
	DirtyCount int
	Previous   *StateInfo
}

// Position is the full board + hands + side-to-move + history state for
// one game, mirroring internal/board/position.go's role but generalized
// to Shogi's 81 squares, piece-in-hand pools, and drop moves.
type Position struct {
	board      [81]Piece
	colorBB    [2]Bitboard
	typeBB     [numPieceTypes]Bitboard
	occupied   Bitboard
	hands      [2]Hand
	sideToMove Color
	kingSquare [2]Square
	ply        int
	moveNumber int
	st         *StateInfo
}

// NewPosition returns a Position set to the standard Shogi starting
// array (hirate).
func NewPosition() *Position {
	p := &Position{}
	if err := p.SetSFEN(StartSFEN); err != nil {
		panic("shogi: invalid built-in start SFEN: " + err.Error())
	}
	return p
}

// Reset clears the board to empty with no pieces in hand, ready for
// SetSFEN to populate it.
func (p *Position) Reset() {
	p.board = [81]Piece{}
	for i := range p.board {
		p.board[i] = NoPiece
	}
	p.colorBB = [2]Bitboard{}
	p.typeBB = [numPieceTypes]Bitboard{}
	p.occupied = EmptyBB
	p.hands = [2]Hand{}
	p.sideToMove = Black
	p.kingSquare = [2]Square{NoSquare, NoSquare}
	p.ply = 0
	p.moveNumber = 1
	p.st = &StateInfo{}
}

// PieceAt returns the piece on sq, or NoPiece if it is empty.
func (p *Position) PieceAt(sq Square) Piece { return p.board[sq] }

// SideToMove returns whose turn it is.
func (p *Position) SideToMove() Color { return p.sideToMove }

// MoveNumber returns the 1-based full-move counter (SFEN field 4).
func (p *Position) MoveNumber() int { return p.moveNumber }

// Hash returns the current Zobrist hash.
func (p *Position) Hash() uint64 { return p.st.Hash }

// Hand returns color c's piece-in-hand counts.
func (p *Position) Hand(c Color) Hand { return p.hands[c] }

// Occupied returns the bitboard of all occupied squares.
func (p *Position) Occupied() Bitboard { return p.occupied }

// ColorBB returns the bitboard of every square occupied by color c.
func (p *Position) ColorBB(c Color) Bitboard { return p.colorBB[c] }

// TypeBB returns the bitboard of every square occupied by piece type pt,
// of either color.
func (p *Position) TypeBB(pt PieceType) Bitboard { return p.typeBB[pt] }

// PiecesOf returns the bitboard of color c's pieces of type pt.
func (p *Position) PiecesOf(c Color, pt PieceType) Bitboard {
	return p.colorBB[c].And(p.typeBB[pt])
}

// KingSquare returns the square of color c's king.
func (p *Position) KingSquare(c Color) Square { return p.kingSquare[c] }

// Checkers returns the bitboard of enemy pieces currently giving check
// to the side to move.
func (p *Position) Checkers() Bitboard { return p.st.Checkers }

// LastCaptured returns the piece type captured by the most recent
// DoMove, or NoPieceType if it was not a capture. Used by the NNUE
// feature bridge (internal/nnue) to decide whether a hand-count feature
// needs updating alongside the board features.
func (p *Position) LastCaptured() PieceType { return p.st.Captured }

// LastDirty returns the dirty-piece log produced by the most recent
// DoMove, for the NNUE accumulator's incremental update path.
func (p *Position) LastDirty() []DirtyPiece { return p.st.Dirty[:p.st.DirtyCount] }

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool { return !p.st.Checkers.Empty() }

// Ply returns the number of half-moves played since the root position
// DoMove was first called on (not the SFEN move-number field).
func (p *Position) Ply() int { return p.ply }

func (p *Position) putPiece(pc Piece, sq Square) {
	p.board[sq] = pc
	p.colorBB[pc.Color()] = p.colorBB[pc.Color()].Set(sq)
	p.typeBB[pc.Type()] = p.typeBB[pc.Type()].Set(sq)
	p.occupied = p.occupied.Set(sq)
	if pc.Type() == King {
		p.kingSquare[pc.Color()] = sq
	}
}

func (p *Position) removePiece(sq Square) Piece {
	pc := p.board[sq]
	p.board[sq] = NoPiece
	p.colorBB[pc.Color()] = p.colorBB[pc.Color()].Clear(sq)
	p.typeBB[pc.Type()] = p.typeBB[pc.Type()].Clear(sq)
	p.occupied = p.occupied.Clear(sq)
	return pc
}

// AttackersTo returns every piece (of either color) attacking sq given
// occupancy occ, generalizing internal/board/attacks.go's AttackersTo to
// Shogi's piece set.
func (p *Position) AttackersTo(sq Square, occ Bitboard) Bitboard {
	var attackers Bitboard
	attackers = attackers.Or(StepAttacks(White, Pawn, sq).And(p.PiecesOf(Black, Pawn)))
	attackers = attackers.Or(StepAttacks(Black, Pawn, sq).And(p.PiecesOf(White, Pawn)))
	attackers = attackers.Or(StepAttacks(White, Knight, sq).And(p.PiecesOf(Black, Knight)))
	attackers = attackers.Or(StepAttacks(Black, Knight, sq).And(p.PiecesOf(White, Knight)))
	for _, c := range [2]Color{Black, White} {
		attackers = attackers.Or(StepAttacks(c, Silver, sq).And(p.PiecesOf(c.Opponent(), Silver)))
		goldLike := []PieceType{Gold, ProPawn, ProLance, ProKnight, ProSilver}
		for _, pt := range goldLike {
			attackers = attackers.Or(StepAttacks(c, pt, sq).And(p.PiecesOf(c.Opponent(), pt)))
		}
	}
	attackers = attackers.Or(KingAttacks(sq).And(p.typeBB[King]))
	attackers = attackers.Or(LanceAttacks(White, sq, occ).And(p.PiecesOf(Black, Lance)))
	attackers = attackers.Or(LanceAttacks(Black, sq, occ).And(p.PiecesOf(White, Lance)))
	attackers = attackers.Or(BishopAttacks(sq, occ).And(p.typeBB[Bishop].Or(p.typeBB[Horse])))
	attackers = attackers.Or(RookAttacks(sq, occ).And(p.typeBB[Rook].Or(p.typeBB[Dragon])))
	return attackers
}

// IsSquareAttacked reports whether any piece of color c attacks sq.
func (p *Position) IsSquareAttacked(sq Square, c Color) bool {
	return !p.AttackersTo(sq, p.occupied).And(p.colorBB[c]).Empty()
}

func (p *Position) computeCheckers() Bitboard {
	us := p.sideToMove
	them := us.Opponent()
	ksq := p.kingSquare[us]
	if ksq == NoSquare {
		return EmptyBB
	}
	return p.AttackersTo(ksq, p.occupied).And(p.colorBB[them])
}

// DoMove applies m (a normal board move or a drop) to the position,
// pushing a new StateInfo onto the do/undo chain. It assumes m is at
// least pseudo-legal; legality (does it leave the mover's own king in
// check) must be checked by the caller (movegen.go's filter) before
// calling DoMove in search contexts that require only legal moves, or
// checked and rejected by UndoMove-ing again in the legality-test helper
// movegen.go provides.
func (p *Position) DoMove(m Move) {
	us := p.sideToMove
	them := us.Opponent()
	next := &StateInfo{Move: m, Captured: NoPieceType, Previous: p.st, Hash: p.st.Hash}
	next.Hash ^= zobristSide

	if m.IsDrop() {
		pt := m.DroppedPiece()
		to := m.To()
		pc := NewPiece(us, pt)
		p.putPiece(pc, to)
		next.Hash ^= pieceKey(us, pt, to)

		oldCount := p.hands[us][pt]
		next.Hash ^= handKey(us, pt, oldCount)
		p.hands[us].Remove(pt)
		next.Hash ^= handKey(us, pt, oldCount-1)

		next.Dirty[0] = DirtyPiece{Square: to, Before: NoPiece, After: pc}
		next.DirtyCount = 1
	} else {
		from, to := m.From(), m.To()
		moving := p.removePiece(from)
		next.Hash ^= pieceKey(us, moving.Type(), from)

		if captured := p.board[to]; captured != NoPiece {
			capType := captured.Type()
			p.removePiece(to)
			next.Hash ^= pieceKey(them, capType, to)
			next.Captured = capType

			handType := capType.Demote()
			oldCount := p.hands[us][handType]
			next.Hash ^= handKey(us, handType, oldCount)
			p.hands[us].Add(capType)
			next.Hash ^= handKey(us, handType, oldCount+1)

			next.Dirty[1] = DirtyPiece{Square: to, Before: captured, After: NoPiece}
		} else {
			next.Dirty[1] = DirtyPiece{Square: to, Before: NoPiece}
		}

		finalType := moving.Type()
		if m.IsPromotion() {
			finalType = finalType.Promote()
		}
		finalPiece := NewPiece(us, finalType)
		p.putPiece(finalPiece, to)
		next.Hash ^= pieceKey(us, finalType, to)

		next.Dirty[0] = DirtyPiece{Square: from, Before: moving, After: NoPiece}
		next.Dirty[1].After = finalPiece
		next.DirtyCount = 2
	}

	p.sideToMove = them
	p.ply++
	if us == White {
		p.moveNumber++
	}
	next.Checkers = p.computeCheckers()
	p.st = next
}

// UndoMove reverts the most recent DoMove. The caller must pass the same
// move that was just made.
func (p *Position) UndoMove(m Move) {
	them := p.sideToMove
	us := them.Opponent()
	prev := p.st.Previous

	if m.IsDrop() {
		pt := m.DroppedPiece()
		to := m.To()
		p.removePiece(to)
		p.hands[us].Add(pt)
	} else {
		from, to := m.From(), m.To()
		moved := p.removePiece(to)
		origType := moved.Type()
		if m.IsPromotion() {
			origType = origType.Demote()
		}
		p.putPiece(NewPiece(us, origType), from)

		if p.st.Captured != NoPieceType {
			capType := p.st.Captured
			p.putPiece(NewPiece(them, capType), to)
			p.hands[us].Remove(capType.Demote())
		}
	}

	p.sideToMove = us
	p.ply--
	if us == White {
		p.moveNumber--
	}
	p.st = prev
}

// DoNullMove passes the turn without moving a piece, used by the search
// driver's null-move pruning (spec.md §4.G). It is illegal to call while
// in check.
func (p *Position) DoNullMove() {
	next := &StateInfo{Move: NullMove, Captured: NoPieceType, Previous: p.st, Hash: p.st.Hash ^ zobristSide}
	p.sideToMove = p.sideToMove.Opponent()
	p.ply++
	next.Checkers = p.computeCheckers()
	p.st = next
}

// UndoNullMove reverts DoNullMove.
func (p *Position) UndoNullMove() {
	p.sideToMove = p.sideToMove.Opponent()
	p.ply--
	p.st = p.st.Previous
}

// Clone returns a deep, independent copy of p, used by perft/search
// helpers that need a scratch position without disturbing the original
// do/undo chain.
func (p *Position) Clone() *Position {
	cp := *p
	stCopy := *p.st
	stCopy.Previous = p.st.Previous
	cp.st = &stCopy
	return &cp
}

func (p *Position) String() string {
	s := "  9  8  7  6  5  4  3  2  1\n"
	for r := Rank(0); r < 9; r++ {
		for f := File(8); f >= 0; f-- {
			pc := p.board[NewSquare(f, r)]
			if pc == NoPiece {
				s += " . "
			} else {
				mark := " "
				if pc.Color() == White {
					mark = "v"
				}
				s += mark + pc.Type().String()
			}
		}
		s += "\n"
	}
	return s
}
