package engine

import (
	"testing"
	"time"

	"github.com/nozomi-shogi/engine/internal/shogi"
)

func TestMultiPV(t *testing.T) {
	pos := shogi.NewPosition()
	eng := NewEngine(16)

	limits := SearchLimits{
		Depth:    4,
		MoveTime: 2 * time.Second,
		MultiPV:  3,
	}

	results := eng.SearchMultiPV(pos, limits)

	if len(results) < 2 {
		t.Fatalf("expected at least 2 PVs, got %d", len(results))
	}

	if results[0].Move == results[1].Move {
		t.Errorf("first two PVs have same move: %s", results[0].Move)
	}

	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("PV %d has higher score than PV %d (%d > %d)",
				i+1, i, results[i].Score, results[i-1].Score)
		}
	}

	for i, r := range results {
		t.Logf("PV %d: %s (score: %d, depth: %d)", i+1, r.Move, r.Score, r.Depth)
	}
}

func TestSearchBasic(t *testing.T) {
	pos := shogi.NewPosition()
	eng := NewEngine(16)
	eng.SetDifficulty(Easy)

	move := eng.Search(pos)
	if move.IsNull() {
		t.Error("Search returned NullMove for the starting position")
	}
	t.Logf("best move: %s", move)
}

// TestConcurrentSearchRace stress-tests the LazySMP worker pool for data
// races. Run with: go test -race -run TestConcurrentSearchRace ./internal/engine
func TestConcurrentSearchRace(t *testing.T) {
	eng := NewEngine(16)

	iterations := 10
	if testing.Short() {
		iterations = 3
	}

	pos := shogi.NewPosition()
	for i := 0; i < iterations; i++ {
		limits := SearchLimits{Depth: 6, MoveTime: 200 * time.Millisecond}

		move := eng.SearchWithLimits(pos, limits)
		if move.IsNull() {
			t.Errorf("iteration %d: search returned NullMove", i)
		}
		if !move.IsNull() {
			pos.DoMove(move)
		}
	}
}

func TestSearchDepthOneFromStartPosition(t *testing.T) {
	// A depth-1 search from the start position must still return a move.
	pos := shogi.NewPosition()
	eng := NewEngine(16)

	limits := SearchLimits{Depth: 1, MoveTime: 500 * time.Millisecond}
	move := eng.SearchWithLimits(pos, limits)
	if move.IsNull() {
		t.Fatal("expected a move from the opening position")
	}
}

func TestEnginePerftMatchesLegalMoveCount(t *testing.T) {
	pos := shogi.NewPosition()
	eng := NewEngine(1)

	if got, want := eng.Perft(pos, 1), uint64(pos.LegalMoves().Len()); got != want {
		t.Errorf("perft(1) = %d, want %d", got, want)
	}
}

func TestMaterialCache(t *testing.T) {
	mc := NewMaterialCache(1)

	const key = uint64(0xDEADBEEF)
	if _, found := mc.Probe(key); found {
		t.Error("expected cache miss on first probe")
	}

	mc.Store(key, 123)
	score, found := mc.Probe(key)
	if !found {
		t.Error("expected cache hit after store")
	}
	if score != 123 {
		t.Errorf("got score %d, want 123", score)
	}
}

func TestEngineClearResetsTables(t *testing.T) {
	pos := shogi.NewPosition()
	eng := NewEngine(4)
	eng.SearchWithLimits(pos, SearchLimits{Depth: 4, MoveTime: 200 * time.Millisecond})

	if eng.tt.HashFull() == 0 {
		t.Skip("search completed too little work to populate the hash table")
	}
	eng.Clear()
	if full := eng.tt.HashFull(); full != 0 {
		t.Errorf("expected empty hash table after Clear, got %d permille full", full)
	}
}

func TestScoreToString(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{0, "0.0"},
		{100, "1.0"},
		{-250, "-2.50"},
		{MateScore - 3, "mate in 2"},
		{-MateScore + 3, "mated in 2"},
	}
	for _, c := range cases {
		if got := ScoreToString(c.score); got != c.want {
			t.Errorf("ScoreToString(%d) = %q, want %q", c.score, got, c.want)
		}
	}
}
