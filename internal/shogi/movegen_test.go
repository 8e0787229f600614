package shogi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartPositionLegalMoveCount(t *testing.T) {
	p := NewPosition()
	// The hirate (standard) starting position has exactly 30 legal
	// moves for Black, a widely cited reference value for Shogi perft.
	assert.Equal(t, 30, p.LegalMoves().Len())
}

func TestDoUndoMoveRestoresHash(t *testing.T) {
	p := NewPosition()
	before := p.Hash()
	beforeSFEN := p.SFEN()
	moves := p.LegalMoves()
	require.Greater(t, moves.Len(), 0)
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		p.DoMove(m)
		p.UndoMove(m)
		assert.Equal(t, before, p.Hash(), "hash not restored after %s", m)
		assert.Equal(t, beforeSFEN, p.SFEN(), "sfen not restored after %s", m)
	}
}

func TestDoMoveTogglesSideToMove(t *testing.T) {
	p := NewPosition()
	require.Equal(t, Black, p.SideToMove())
	m, err := ParseUSIMove("7g7f")
	require.NoError(t, err)
	require.True(t, p.LegalMoves().Contains(m))
	p.DoMove(m)
	assert.Equal(t, White, p.SideToMove())
}

func TestNifuRejectsSecondPawnOnFile(t *testing.T) {
	// Black has a pawn in hand and already a pawn on file 7; dropping
	// another pawn on the same file must not be generated.
	p := NewPosition()
	p.hands[Black][Pawn] = 1
	assert.True(t, dropIsNifu(p, Black, NewSquare(6, 4)))
}

func TestMustPromoteLastRankPawn(t *testing.T) {
	assert.True(t, mustPromote(Pawn, NewSquare(0, 0), Black))
	assert.False(t, mustPromote(Pawn, NewSquare(0, 1), Black))
	assert.True(t, mustPromote(Knight, NewSquare(0, 1), Black))
	assert.False(t, mustPromote(Knight, NewSquare(0, 2), Black))
}

func TestSFENRoundTrip(t *testing.T) {
	p := NewPosition()
	assert.Equal(t, StartSFEN, p.SFEN())

	custom := "lnsgkgsnl/1r5b1/pppppp1pp/6p2/9/2P6/PP1PPPPPP/1B5R1/LNSGKGSNL w - 2"
	require.NoError(t, p.SetSFEN(custom))
	assert.Equal(t, custom, p.SFEN())
}
