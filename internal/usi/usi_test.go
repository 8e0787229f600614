package usi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nozomi-shogi/engine/internal/engine"
	"github.com/nozomi-shogi/engine/internal/shogi"
)

func TestParseGoArgsTimeControl(t *testing.T) {
	u := New(engine.NewEngine(1))
	opts := u.parseGoArgs([]string{
		"btime", "60000", "wtime", "55000",
		"binc", "2000", "winc", "1000",
		"movestogo", "30",
	})

	assert.False(t, opts.Ponder)
	assert.Equal(t, 60*time.Second, opts.Limits.Time[shogi.Black])
	assert.Equal(t, 55*time.Second, opts.Limits.Time[shogi.White])
	assert.Equal(t, 2*time.Second, opts.Limits.Inc[shogi.Black])
	assert.Equal(t, 1*time.Second, opts.Limits.Inc[shogi.White])
	assert.Equal(t, 30, opts.Limits.MovesToGo)
}

func TestParseGoArgsDepthNodesMoveTime(t *testing.T) {
	u := New(engine.NewEngine(1))
	opts := u.parseGoArgs([]string{"depth", "12", "nodes", "100000", "movetime", "500"})

	assert.Equal(t, 12, opts.Limits.Depth)
	assert.Equal(t, uint64(100000), opts.Limits.Nodes)
	assert.Equal(t, 500*time.Millisecond, opts.Limits.MoveTime)
}

func TestParseGoArgsPonderAndByoyomi(t *testing.T) {
	u := New(engine.NewEngine(1))
	opts := u.parseGoArgs([]string{"ponder", "byoyomi", "10000"})

	assert.True(t, opts.Ponder)
	assert.Equal(t, 10*time.Second, opts.Limits.Byoyomi)
}

func TestParseGoArgsInfinite(t *testing.T) {
	u := New(engine.NewEngine(1))
	opts := u.parseGoArgs([]string{"infinite"})
	assert.True(t, opts.Limits.Infinite)
}

func TestHandlePositionStartposWithMoves(t *testing.T) {
	u := New(engine.NewEngine(1))
	u.handlePosition([]string{"startpos", "moves", "7g7f", "3c3d"})

	require.Len(t, u.positionHashes, 3)
	assert.Equal(t, shogi.Black, u.position.SideToMove())
}

func TestHandlePositionRejectsIllegalMove(t *testing.T) {
	u := New(engine.NewEngine(1))
	original := u.position

	u.handlePosition([]string{"startpos", "moves", "1a1a"})

	assert.Same(t, original, u.position, "position must be left unchanged on a parse/legality failure")
}

func TestHandlePositionSFEN(t *testing.T) {
	u := New(engine.NewEngine(1))
	u.handlePosition([]string{"sfen", "7k1/9/9/9/9/9/9/9/R8", "b", "R", "1"})

	assert.Equal(t, shogi.Black, u.position.SideToMove())
	assert.Equal(t, uint8(1), u.position.Hand(shogi.Black).Count(shogi.Rook))
}

func TestScoreToUSI(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{0, "cp 0"},
		{150, "cp 150"},
		{engine.MateScore - 3, "mate 2"},
		{-engine.MateScore + 3, "mate -2"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, scoreToUSI(c.score))
	}
}

func TestHandleSetOptionEvalFileMissingFileDoesNotPanic(t *testing.T) {
	u := New(engine.NewEngine(1))
	u.handleSetOption([]string{"name", "EvalFile", "value", "/nonexistent/weights.bin"})
	assert.False(t, u.engine.UseNNUE(), "a failed load must not enable NNUE")
}

func TestHandleGoEmitsBestmove(t *testing.T) {
	u := New(engine.NewEngine(1))
	u.handleGo([]string{"depth", "1", "movetime", "200"})
	require.NotNil(t, u.searchDone)
	<-u.searchDone
}

func TestHandleSetOptionMultiPVIsConsumedByGo(t *testing.T) {
	u := New(engine.NewEngine(1))
	u.handleSetOption([]string{"name", "MultiPV", "value", "3"})
	assert.Equal(t, 3, u.multiPV)

	u.handleGo([]string{"depth", "2"})
	require.NotNil(t, u.searchDone)
	<-u.searchDone
}

func TestHandleSetOptionThreadsResizesWorkerPool(t *testing.T) {
	original := engine.NumWorkers
	defer func() { engine.NumWorkers = original }()

	u := New(engine.NewEngine(1))
	u.handleSetOption([]string{"name", "Threads", "value", "2"})
	assert.Equal(t, 2, engine.NumWorkers)

	u.handleGo([]string{"depth", "2"})
	require.NotNil(t, u.searchDone)
	<-u.searchDone
}
