package shogi

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func randomOccupancy(r *rand.Rand) Bitboard {
	var bb Bitboard
	for sq := Square(0); sq < 81; sq++ {
		if r.Intn(3) == 0 {
			bb = bb.Set(sq)
		}
	}
	return bb
}

func TestRookAttacksMatchesNaiveRayWalk(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		sq := Square(r.Intn(81))
		occ := randomOccupancy(r).Clear(sq)
		got := RookAttacks(sq, occ)
		want := naiveRookAttacks(sq, occ)
		assert.Equal(t, want, got, "rook attacks mismatch at %s with occ\n%s", sq, occ)
	}
}

func TestBishopAttacksMatchesNaiveRayWalk(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 500; i++ {
		sq := Square(r.Intn(81))
		occ := randomOccupancy(r).Clear(sq)
		got := BishopAttacks(sq, occ)
		want := naiveBishopAttacks(sq, occ)
		assert.Equal(t, want, got, "bishop attacks mismatch at %s with occ\n%s", sq, occ)
	}
}

func TestLanceAttacksMatchesNaiveRayWalk(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		sq := Square(r.Intn(81))
		occ := randomOccupancy(r).Clear(sq)
		for _, c := range [2]Color{Black, White} {
			got := LanceAttacks(c, sq, occ)
			want := naiveLanceAttacks(c, sq, occ)
			assert.Equal(t, want, got, "lance attacks mismatch at %s color %s with occ\n%s", sq, c, occ)
		}
	}
}

func TestEmptyBoardRookAttacksFromCorner(t *testing.T) {
	sq := NewSquare(0, 0)
	got := RookAttacks(sq, EmptyBB)
	assert.Equal(t, 16, got.PopCount())
}
