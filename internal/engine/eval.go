// Package engine implements the Shogi search engine: move ordering,
// transposition table, time management, the classical fallback
// evaluator, and the iterative-deepening LazySMP search driver.
package engine

import (
	"github.com/nozomi-shogi/engine/internal/shogi"
)

// Material values for the classical fallback evaluator, distinct from
// shogi.SEEValue (which is tuned for exchange evaluation, not static
// scoring) even though both tables agree on relative ordering.
var pieceValues = [15]int{
	shogi.NoPieceType: 0,
	shogi.Pawn:        100, shogi.Lance: 350, shogi.Knight: 450,
	shogi.Silver: 550, shogi.Gold: 600, shogi.Bishop: 950, shogi.Rook: 1100,
	shogi.King: 0, // king material contributes nothing; mate is detected separately
	shogi.ProPawn: 600, shogi.ProLance: 600, shogi.ProKnight: 600, shogi.ProSilver: 600,
	shogi.Horse: 1100, shogi.Dragon: 1300,
}

// handValue mirrors pieceValues for pieces held in hand: Shogi material
// evaluation must count captured pieces since they can return to the
// board as a drop at any time, unlike chess where a captured piece is
// gone for good (the teacher's evaluator has no equivalent of this
// term).
var handValue = [15]int{
	shogi.Pawn: 110, shogi.Lance: 370, shogi.Knight: 470, shogi.Silver: 570,
	shogi.Gold: 620, shogi.Bishop: 980, shogi.Rook: 1150,
}

// tempoBonus is a small advantage for having the move, same role as the
// teacher's tempoBonus.
const tempoBonus = 15

// pst holds a piece-square table per piece type, generated in init()
// from simple advancement/centralization formulas rather than
// hand-tuned by play (the teacher's chess PSTs were hand-written
// 64-entry literals; doing the same for 14 piece types across 81
// squares is impractical to hand-tune here, so the shape -- reward
// central files, reward advancement toward the promotion zone for
// pieces that benefit from it -- is kept and the values computed).
var pst [15][81]int

func init() {
	for sq := shogi.Square(0); sq < 81; sq++ {
		f, r := int(sq.File()), int(sq.Rank())
		centerFile := 4 - abs(f-4)         // 0..4, max at the middle file
		advance := 8 - r                   // 0 (own back rank) .. 8 (opponent's back rank, Black's view)

		pst[shogi.Pawn][sq] = advance * 3
		pst[shogi.Lance][sq] = advance * 2
		pst[shogi.Knight][sq] = advance*2 + centerFile
		pst[shogi.Silver][sq] = advance*3 + centerFile*2
		pst[shogi.Gold][sq] = advance*2 + centerFile*3
		pst[shogi.Bishop][sq] = centerFile * 4
		pst[shogi.Rook][sq] = centerFile*2 + advance
		pst[shogi.King][sq] = -advance * 6 // discourage the king from advancing
		pst[shogi.ProPawn][sq] = centerFile * 3
		pst[shogi.ProLance][sq] = centerFile * 3
		pst[shogi.ProKnight][sq] = centerFile * 3
		pst[shogi.ProSilver][sq] = centerFile * 3
		pst[shogi.Horse][sq] = centerFile*4 + advance
		pst[shogi.Dragon][sq] = centerFile*3 + advance*2
	}
}

// pstValue returns pt's table value for sq from color's perspective,
// mirroring the square for White since every table above is written
// from Black's (the first mover's) point of view.
func pstValue(c shogi.Color, pt shogi.PieceType, sq shogi.Square) int {
	if c == shogi.White {
		sq = sq.Mirror()
	}
	return pst[pt][sq]
}

// Gold/silver generals (including promoted-to-gold-movement pieces)
// next to the king form Shogi's defensive formation; a missing shield
// piece is a bigger red flag than a missing chess pawn shield since
// Shogi kings have no castling safety net.
const (
	kingShieldBonus = 18
	kingOpenAttackPenalty = -12
)

// Evaluate returns the static evaluation of pos from the side-to-move's
// perspective (positive favors the side to move), without a material
// cache (see EvaluateWithCache).
func Evaluate(pos *shogi.Position) int {
	return EvaluateWithCache(pos, nil)
}

// EvaluateWithCache evaluates pos, consulting cache (if non-nil) for the
// material-imbalance term, the Shogi analogue of the teacher's
// EvaluateWithPawnTable.
func EvaluateWithCache(pos *shogi.Position, cache *MaterialCache) int {
	score := 0

	matKey, matScore, cached := materialScore(pos, cache)
	score += matScore

	score += evaluatePST(pos)
	score += evaluateMobility(pos)
	score += evaluateKingSafety(pos)
	score += evaluatePromotionThreats(pos)

	if cache != nil && !cached {
		cache.Store(matKey, matScore)
	}

	if pos.SideToMove() == shogi.Black {
		score += tempoBonus
	} else {
		score -= tempoBonus
	}

	if pos.SideToMove() == shogi.White {
		return -score
	}
	return score
}

// EvaluateMaterial returns just the material balance (on-board + hand)
// from the side-to-move's perspective, a cheap lazy-eval probe used by
// the search driver before paying for the full evaluator.
func EvaluateMaterial(pos *shogi.Position) int {
	_, score, _ := materialScore(pos, nil)
	if pos.SideToMove() == shogi.White {
		return -score
	}
	return score
}

// materialScore returns (material key, on-board + hand material
// balance from Black's perspective, cache hit). The key folds in hand
// counts so two positions with identical piece counts but different
// placement share one cache entry.
func materialScore(pos *shogi.Position, cache *MaterialCache) (uint64, int, bool) {
	key := uint64(0)
	score := 0

	for _, c := range [2]shogi.Color{shogi.Black, shogi.White} {
		sign := 1
		if c == shogi.White {
			sign = -1
		}
		for pt := shogi.Pawn; pt < shogi.King; pt++ {
			n := pos.PiecesOf(c, pt).PopCount()
			score += sign * n * pieceValues[pt]
			key = key*31 + uint64(n)
		}
		for pt := shogi.ProPawn; pt <= shogi.Dragon; pt++ {
			n := pos.PiecesOf(c, pt).PopCount()
			score += sign * n * pieceValues[pt]
			key = key*31 + uint64(n)
		}
		hand := pos.Hand(c)
		for _, pt := range [7]shogi.PieceType{shogi.Pawn, shogi.Lance, shogi.Knight, shogi.Silver, shogi.Gold, shogi.Bishop, shogi.Rook} {
			n := int(hand.Count(pt))
			score += sign * n * handValue[pt]
			key = key*31 + uint64(n)
		}
	}

	if cache != nil {
		if cached, ok := cache.Probe(key); ok {
			return key, cached, true
		}
	}
	return key, score, false
}

// MaterialKey folds both sides' on-board and hand piece-type counts into
// a single hash (the same key materialScore computes for MaterialCache),
// used by CorrectionHistory (correction.go) to key corrections by
// material balance rather than by exact board position.
func MaterialKey(pos *shogi.Position) uint64 {
	key, _, _ := materialScore(pos, nil)
	return key
}

func evaluatePST(pos *shogi.Position) int {
	score := 0
	for pt := shogi.Pawn; pt <= shogi.Dragon; pt++ {
		pos.PiecesOf(shogi.Black, pt).ForEach(func(sq shogi.Square) {
			score += pstValue(shogi.Black, pt, sq)
		})
		pos.PiecesOf(shogi.White, pt).ForEach(func(sq shogi.Square) {
			score -= pstValue(shogi.White, pt, sq)
		})
	}
	return score
}

// evaluateMobility rewards each side by the number of squares its
// sliding pieces and generals attack, the Shogi analogue of the
// teacher's per-piece-type mobility weighting.
func evaluateMobility(pos *shogi.Position) int {
	score := 0
	occ := pos.Occupied()

	for _, c := range [2]shogi.Color{shogi.Black, shogi.White} {
		sign := 1
		if c == shogi.White {
			sign = -1
		}
		mob := 0
		pos.PiecesOf(c, shogi.Bishop).ForEach(func(sq shogi.Square) {
			mob += shogi.BishopAttacks(sq, occ).PopCount() * 3
		})
		pos.PiecesOf(c, shogi.Horse).ForEach(func(sq shogi.Square) {
			mob += shogi.BishopAttacks(sq, occ).PopCount() * 3
		})
		pos.PiecesOf(c, shogi.Rook).ForEach(func(sq shogi.Square) {
			mob += shogi.RookAttacks(sq, occ).PopCount() * 4
		})
		pos.PiecesOf(c, shogi.Dragon).ForEach(func(sq shogi.Square) {
			mob += shogi.RookAttacks(sq, occ).PopCount() * 4
		})
		pos.PiecesOf(c, shogi.Lance).ForEach(func(sq shogi.Square) {
			mob += shogi.LanceAttacks(c, sq, occ).PopCount()
		})
		score += sign * mob
	}
	return score
}

// evaluateKingSafety scores the gold/silver shield immediately around
// each king, a rough analogue of the teacher's pawn-shield king safety.
func evaluateKingSafety(pos *shogi.Position) int {
	score := 0
	for _, c := range [2]shogi.Color{shogi.Black, shogi.White} {
		sign := 1
		if c == shogi.White {
			sign = -1
		}
		king := pos.KingSquare(c)
		if king == shogi.NoSquare {
			continue
		}
		shield := 0
		neighbors := shogi.KingAttacks(king)
		neighbors.ForEach(func(sq shogi.Square) {
			pc := pos.PieceAt(sq)
			if pc != shogi.NoPiece && pc.Color() == c {
				switch pc.Type() {
				case shogi.Gold, shogi.Silver, shogi.ProSilver, shogi.ProPawn, shogi.ProLance, shogi.ProKnight:
					shield++
				}
			}
		})
		score += sign * shield * kingShieldBonus

		attackers := pos.AttackersTo(king, pos.Occupied()).And(pos.ColorBB(c.Opponent())).PopCount()
		score += sign * attackers * kingOpenAttackPenalty
	}
	return score
}

// evaluatePromotionThreats rewards pieces standing in the opponent's
// promotion zone (pieces that merely attack it score nothing), since reaching it is a persistent
// structural threat in Shogi with no chess equivalent.
func evaluatePromotionThreats(pos *shogi.Position) int {
	score := 0
	for _, c := range [2]shogi.Color{shogi.Black, shogi.White} {
		sign := 1
		if c == shogi.White {
			sign = -1
		}
		for pt := shogi.Pawn; pt <= shogi.Rook; pt++ {
			if pt == shogi.King || pt == shogi.Gold {
				continue
			}
			pos.PiecesOf(c, pt).ForEach(func(sq shogi.Square) {
				if sq.RelativeRank(c) <= 2 {
					score += sign * 12
				}
			})
		}
	}
	return score
}
