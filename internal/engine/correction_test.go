package engine

import (
	"testing"

	"github.com/nozomi-shogi/engine/internal/shogi"
)

func TestCorrectionHistoryUpdateAndGet(t *testing.T) {
	ch := NewCorrectionHistory()
	pos := shogi.NewPosition()

	if got := ch.Get(pos); got != 0 {
		t.Fatalf("fresh table: got correction %d, want 0", got)
	}

	for i := 0; i < 20; i++ {
		ch.Update(pos, 120, 0, 8)
	}

	if got := ch.Get(pos); got <= 0 {
		t.Errorf("after repeated positive updates: got correction %d, want > 0", got)
	}
}

func TestCorrectionHistoryKeyIsMaterialNotPosition(t *testing.T) {
	ch := NewCorrectionHistory()
	pos := shogi.NewPosition()

	ch.Update(pos, 200, 0, 10)
	before := ch.Get(pos)

	// 7g7f/3c3d leaves material (board + hand counts) unchanged, so a
	// material-keyed table must see the same entry; a position-hash-keyed
	// table would not.
	m1, err := shogi.ParseUSIMove("7g7f")
	if err != nil {
		t.Fatalf("parse 7g7f: %v", err)
	}
	pos.DoMove(m1)
	m2, err := shogi.ParseUSIMove("3c3d")
	if err != nil {
		t.Fatalf("parse 3c3d: %v", err)
	}
	pos.DoMove(m2)

	if got := ch.Get(pos); got != before {
		t.Errorf("material-identical position: got correction %d, want %d", got, before)
	}
}

func TestCorrectionHistoryClearAndAge(t *testing.T) {
	ch := NewCorrectionHistory()
	pos := shogi.NewPosition()

	ch.Update(pos, 300, 0, 12)
	if ch.Get(pos) == 0 {
		t.Fatal("expected a nonzero correction before Clear")
	}

	half := ch.Get(pos)
	ch.Age()
	if got := ch.Get(pos); got >= half {
		t.Errorf("Age: got %d, want strictly less than %d", got, half)
	}

	ch.Clear()
	if got := ch.Get(pos); got != 0 {
		t.Errorf("after Clear: got %d, want 0", got)
	}
}
