package book

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/nozomi-shogi/engine/internal/shogi"
)

func TestBookLoadAndProbe(t *testing.T) {
	pos := shogi.NewPosition()
	hash := pos.Hash()
	move := pos.LegalMoves().Get(0)

	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, hash)
	binary.Write(&buf, binary.BigEndian, uint16(move))
	binary.Write(&buf, binary.BigEndian, uint16(100))

	b, err := LoadReader(&buf)
	if err != nil {
		t.Fatalf("LoadReader failed: %v", err)
	}
	if b.Size() != 1 {
		t.Errorf("expected book size 1, got %d", b.Size())
	}

	got, found := b.Probe(pos)
	if !found {
		t.Fatal("expected to find move in book")
	}
	if got != move {
		t.Errorf("expected %s, got %s", move, got)
	}
}

func TestBookMiss(t *testing.T) {
	b := New()
	pos := shogi.NewPosition()

	move, found := b.Probe(pos)
	if found {
		t.Error("expected book miss on empty book")
	}
	if move != shogi.NullMove {
		t.Errorf("expected NullMove on miss, got %s", move)
	}
}

func TestBookWeightedSelection(t *testing.T) {
	pos := shogi.NewPosition()
	legal := pos.LegalMoves()
	if legal.Len() < 2 {
		t.Fatal("expected at least two legal opening moves")
	}

	b := New()
	b.Add(pos.Hash(), legal.Get(0), 1)
	b.Add(pos.Hash(), legal.Get(1), 1000)

	counts := map[shogi.Move]int{}
	for i := 0; i < 200; i++ {
		m, found := b.Probe(pos)
		if !found {
			t.Fatal("expected a book hit")
		}
		counts[m]++
	}
	if counts[legal.Get(1)] == 0 {
		t.Error("expected the heavily-weighted move to be chosen at least once")
	}
}

func TestBookIgnoresIllegalEntries(t *testing.T) {
	pos := shogi.NewPosition()
	b := New()
	// A drop of a piece never held in hand at the start position is
	// pseudo-legal to encode but never actually legal here.
	b.Add(pos.Hash(), shogi.NewDrop(shogi.Rook, shogi.Square(40)), 100)

	_, found := b.Probe(pos)
	if found {
		t.Error("expected illegal book entry to be filtered out")
	}
}
