package shogi

// Static exchange evaluation: estimates the net material result of a
// capture sequence on one square without playing it out move by move,
// used by move ordering (internal/engine/ordering.go) to split captures
// into "good" (SEE >= 0) and "bad" per spec.md §4.F. Generalizes
// internal/board/attacks.go's AttackersTo into the standard swap-off
// loop; the teacher has no SEE of its own (it orders captures by
// MVV/LVA only).

// SEEValue is the relative piece value table used only for SEE/move
// ordering, distinct from the NNUE evaluator's output (SPEC_FULL.md §5).
var SEEValue = map[PieceType]int{
	Pawn: 90, Lance: 315, Knight: 405, Silver: 495, Gold: 540,
	Bishop: 855, Rook: 990,
	ProPawn: 540, ProLance: 540, ProKnight: 540, ProSilver: 540,
	Horse: 945, Dragon: 1395,
	King: 15000,
}

// SEE returns the static exchange evaluation of the capture (or quiet
// move treated as a hypothetical capture) m, from the mover's point of
// view: positive means the exchange sequence nets material.
func (p *Position) SEE(m Move) int {
	to := m.To()
	us := p.sideToMove
	them := us.Opponent()

	var gain [32]int
	depth := 0

	var nextValue int
	if m.IsDrop() {
		nextValue = SEEValue[m.DroppedPiece()]
	} else {
		moving := p.board[m.From()]
		nextValue = SEEValue[moving.Type()]
	}

	target := p.board[to]
	if target != NoPiece {
		gain[depth] = SEEValue[target.Type()]
	} else {
		gain[depth] = 0
	}

	occ := p.occupied
	if !m.IsDrop() {
		occ = occ.Clear(m.From())
	}
	occ = occ.Set(to)

	attackerValue := nextValue
	side := them

	attackers := func(c Color) (Square, PieceType, bool) {
		attk := p.AttackersTo(to, occ).And(p.colorBB[c]).And(occ)
		if attk.Empty() {
			return NoSquare, NoPieceType, false
		}
		best := NoSquare
		bestVal := 1 << 30
		attk.ForEach(func(sq Square) {
			v := SEEValue[p.board[sq].Type()]
			if v < bestVal {
				bestVal = v
				best = sq
			}
		})
		return best, p.board[best].Type(), true
	}

	for depth < len(gain)-1 {
		sq, pt, ok := attackers(side)
		if !ok {
			break
		}
		depth++
		gain[depth] = attackerValue - gain[depth-1]
		occ = occ.Clear(sq)
		attackerValue = SEEValue[pt]
		side = side.Opponent()
	}

	for depth > 0 {
		if -gain[depth] < gain[depth-1] {
			gain[depth-1] = -gain[depth]
		}
		depth--
	}
	return gain[0]
}
