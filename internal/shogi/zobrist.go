package shogi

// Zobrist hashing, incrementally maintained by Position's do/undo move
// (position.go), generalizing internal/board/zobrist.go's piece/square
// and side-to-move keys with extra tables for hand counts, which chess
// has no analogue of.
var (
	zobristPiece [2][numPieceTypes][81]uint64
	zobristHand  [2][numPieceTypes][19]uint64 // index by count, max 18 pawns in hand
	zobristSide  uint64
)

// splitMix64 is a small, dependency-free deterministic PRNG used only to
// seed the Zobrist tables at package init; it needs no external entropy
// since the only requirement is that the keys are fixed and effectively
// collision-free across a single process's lifetime.
func splitMix64(seed *uint64) uint64 {
	*seed += 0x9E3779B97F4A7C15
	z := *seed
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func init() {
	seed := uint64(0x9B61A2E3C4D5F607)
	for c := 0; c < 2; c++ {
		for pt := 0; pt < int(numPieceTypes); pt++ {
			for sq := 0; sq < 81; sq++ {
				zobristPiece[c][pt][sq] = splitMix64(&seed)
			}
			for n := 0; n < 19; n++ {
				zobristHand[c][pt][n] = splitMix64(&seed)
			}
		}
	}
	zobristSide = splitMix64(&seed)
}

func pieceKey(c Color, pt PieceType, sq Square) uint64 {
	return zobristPiece[c][pt][sq]
}

func handKey(c Color, pt PieceType, count uint8) uint64 {
	if int(count) >= len(zobristHand[c][pt]) {
		count = uint8(len(zobristHand[c][pt]) - 1)
	}
	return zobristHand[c][pt][count]
}
