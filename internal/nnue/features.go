package nnue

import "github.com/nozomi-shogi/engine/internal/shogi"

// boardPieceTypes lists every non-king piece type in a fixed order,
// used to build a dense 0..12 index for the HalfKP board feature.
var boardPieceTypes = [13]shogi.PieceType{
	shogi.Pawn, shogi.Lance, shogi.Knight, shogi.Silver, shogi.Bishop,
	shogi.Rook, shogi.Gold,
	shogi.ProPawn, shogi.ProLance, shogi.ProKnight, shogi.ProSilver,
	shogi.Horse, shogi.Dragon,
}

var handPieceTypes = [7]shogi.PieceType{
	shogi.Pawn, shogi.Lance, shogi.Knight, shogi.Silver,
	shogi.Gold, shogi.Bishop, shogi.Rook,
}

func boardPieceTypeIndex(pt shogi.PieceType) int {
	for i, t := range boardPieceTypes {
		if t == pt {
			return i
		}
	}
	return -1
}

func handPieceTypeIndex(pt shogi.PieceType) int {
	for i, t := range handPieceTypes {
		if t == pt {
			return i
		}
	}
	return -1
}

// halfKPBoardIndex computes the feature index for a non-king piece from
// a perspective. own reports whether pieceColor is the perspective's own
// side (as opposed to the opponent's).
func halfKPBoardIndex(kingSq shogi.Square, pt shogi.PieceType, own bool, pieceSq shogi.Square) int {
	pi := boardPieceTypeIndex(pt)
	if pi < 0 {
		return -1
	}
	if !own {
		pi += len(boardPieceTypes)
	}
	return int(kingSq)*(boardFeatureSpace+handFeatureSpace) + pi*NumSquares + int(pieceSq)
}

// halfKPHandIndex computes the feature index for a piece-in-hand count
// from a perspective.
func halfKPHandIndex(kingSq shogi.Square, pt shogi.PieceType, own bool, count int) int {
	hi := handPieceTypeIndex(pt)
	if hi < 0 || count <= 0 {
		return -1
	}
	if count >= MaxHandCount {
		count = MaxHandCount - 1
	}
	if !own {
		hi += len(handPieceTypes)
	}
	return int(kingSq)*(boardFeatureSpace+handFeatureSpace) + boardFeatureSpace + hi*MaxHandCount + count
}

// perspectiveView returns the king square and piece square as seen from
// perspective's point of view: Black sees the board directly, White sees
// it mirrored 180 degrees so both perspectives share one feature table.
func perspectiveView(perspective shogi.Color, sq shogi.Square) shogi.Square {
	if perspective == shogi.Black {
		return sq
	}
	return sq.Mirror()
}

// GetActiveFeatures returns every active feature index for pos, from
// both Black's and White's perspective.
func GetActiveFeatures(pos *shogi.Position) (black, white []int) {
	black = make([]int, 0, 40)
	white = make([]int, 0, 40)

	blackKing := perspectiveView(shogi.Black, pos.KingSquare(shogi.Black))
	whiteKing := perspectiveView(shogi.White, pos.KingSquare(shogi.White))

	for _, c := range [2]shogi.Color{shogi.Black, shogi.White} {
		for _, pt := range boardPieceTypes {
			pos.PiecesOf(c, pt).ForEach(func(sq shogi.Square) {
				if idx := halfKPBoardIndex(blackKing, pt, c == shogi.Black, perspectiveView(shogi.Black, sq)); idx >= 0 {
					black = append(black, idx)
				}
				if idx := halfKPBoardIndex(whiteKing, pt, c == shogi.White, perspectiveView(shogi.White, sq)); idx >= 0 {
					white = append(white, idx)
				}
			})
		}
	}

	for _, c := range [2]shogi.Color{shogi.Black, shogi.White} {
		hand := pos.Hand(c)
		for _, pt := range handPieceTypes {
			n := int(hand.Count(pt))
			if n == 0 {
				continue
			}
			if idx := halfKPHandIndex(blackKing, pt, c == shogi.Black, n); idx >= 0 {
				black = append(black, idx)
			}
			if idx := halfKPHandIndex(whiteKing, pt, c == shogi.White, n); idx >= 0 {
				white = append(white, idx)
			}
		}
	}

	return black, white
}

// GetChangedFeatures returns the feature indices to remove and add for
// both perspectives as a result of the DirtyPiece log produced by a
// single Position.DoMove call (position.go), for the accumulator's
// incremental update path. It assumes neither side's king moved (the
// caller must fall back to GetActiveFeatures + a full recompute
// otherwise).
func GetChangedFeatures(pos *shogi.Position, m shogi.Move, dirty []shogi.DirtyPiece) (blackAdd, blackRem, whiteAdd, whiteRem []int) {
	blackKing := perspectiveView(shogi.Black, pos.KingSquare(shogi.Black))
	whiteKing := perspectiveView(shogi.White, pos.KingSquare(shogi.White))

	addHand := func(c shogi.Color, pt shogi.PieceType, oldCount, newCount int) {
		if bIdx := halfKPHandIndex(blackKing, pt, c == shogi.Black, oldCount); bIdx >= 0 {
			blackRem = append(blackRem, bIdx)
		}
		if bIdx := halfKPHandIndex(blackKing, pt, c == shogi.Black, newCount); bIdx >= 0 {
			blackAdd = append(blackAdd, bIdx)
		}
		if wIdx := halfKPHandIndex(whiteKing, pt, c == shogi.White, oldCount); wIdx >= 0 {
			whiteRem = append(whiteRem, wIdx)
		}
		if wIdx := halfKPHandIndex(whiteKing, pt, c == shogi.White, newCount); wIdx >= 0 {
			whiteAdd = append(whiteAdd, wIdx)
		}
	}

	mover := pos.SideToMove().Opponent() // DoMove already flipped side to move
	if m.IsDrop() {
		pt := m.DroppedPiece()
		newCount := int(pos.Hand(mover).Count(pt))
		addHand(mover, pt, newCount+1, newCount)
	} else if captured := pos.LastCaptured(); captured != shogi.NoPieceType {
		handType := captured.Demote()
		newCount := int(pos.Hand(mover).Count(handType))
		addHand(mover, handType, newCount-1, newCount)
	}

	addRemove := func(pc shogi.Piece, sq shogi.Square, add bool) {
		if pc == shogi.NoPiece || pc.Type() == shogi.King {
			return
		}
		c := pc.Color()
		bIdx := halfKPBoardIndex(blackKing, pc.Type(), c == shogi.Black, perspectiveView(shogi.Black, sq))
		wIdx := halfKPBoardIndex(whiteKing, pc.Type(), c == shogi.White, perspectiveView(shogi.White, sq))
		if add {
			if bIdx >= 0 {
				blackAdd = append(blackAdd, bIdx)
			}
			if wIdx >= 0 {
				whiteAdd = append(whiteAdd, wIdx)
			}
		} else {
			if bIdx >= 0 {
				blackRem = append(blackRem, bIdx)
			}
			if wIdx >= 0 {
				whiteRem = append(whiteRem, wIdx)
			}
		}
	}

	for _, d := range dirty {
		if d.Before != shogi.NoPiece {
			addRemove(d.Before, d.Square, false)
		}
		if d.After != shogi.NoPiece {
			addRemove(d.After, d.Square, true)
		}
	}

	return
}
