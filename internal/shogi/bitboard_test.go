package shogi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSquareBBRoundTrip(t *testing.T) {
	for sq := Square(0); sq < 81; sq++ {
		bb := SquareBB(sq)
		assert.Equal(t, 1, bb.PopCount())
		assert.True(t, bb.IsSet(sq))
		assert.Equal(t, sq, bb.LSB())
	}
}

func TestSetClearToggle(t *testing.T) {
	var bb Bitboard
	bb = bb.Set(NewSquare(0, 0))
	bb = bb.Set(NewSquare(8, 8))
	assert.Equal(t, 2, bb.PopCount())
	bb = bb.Clear(NewSquare(0, 0))
	assert.Equal(t, 1, bb.PopCount())
	assert.False(t, bb.IsSet(NewSquare(0, 0)))
	bb = bb.Toggle(NewSquare(0, 0))
	assert.Equal(t, 2, bb.PopCount())
}

func TestReverse128Involution(t *testing.T) {
	bb := SquareBB(NewSquare(3, 7)).Set(NewSquare(0, 0)).Set(NewSquare(8, 8))
	assert.Equal(t, bb, reverse128(reverse128(bb)))
}

func TestSquareStringRoundTrip(t *testing.T) {
	for _, s := range []string{"1a", "9i", "5e", "7g"} {
		sq, err := ParseSquare(s)
		assert.NoError(t, err)
		assert.Equal(t, s, sq.String())
	}
}
