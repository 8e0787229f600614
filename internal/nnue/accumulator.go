package nnue

import "github.com/nozomi-shogi/engine/internal/shogi"

// Accumulator stores the accumulated L1 hidden layer values for
// incremental updates, one per side's perspective. Unlike the teacher's
// plain int16 arithmetic, every add/sub here saturates (spec.md §3.4
// requires saturating 16-bit arithmetic so a long run of incremental
// updates can never silently wrap).
type Accumulator struct {
	Black [L1Size]int16
	White [L1Size]int16

	Computed bool
}

const (
	int16Max = 1<<15 - 1
	int16Min = -1 << 15
)

func satAdd16(a int16, b int32) int16 {
	r := int32(a) + b
	if r > int16Max {
		return int16Max
	}
	if r < int16Min {
		return int16Min
	}
	return int16(r)
}

// AccumulatorStack manages per-ply accumulators across search the way
// internal/nnue/accumulator.go's teacher equivalent does, pushed/popped
// in lockstep with Position.DoMove/UndoMove.
type AccumulatorStack struct {
	stack [128]Accumulator
	top   int
}

// NewAccumulatorStack returns an empty stack.
func NewAccumulatorStack() *AccumulatorStack { return &AccumulatorStack{} }

// Push duplicates the current accumulator onto a new stack slot, ready
// for in-place incremental update.
func (s *AccumulatorStack) Push() {
	if s.top < len(s.stack)-1 {
		s.stack[s.top+1] = s.stack[s.top]
		s.top++
	}
}

// Pop discards the top accumulator, restoring the previous ply's.
func (s *AccumulatorStack) Pop() {
	if s.top > 0 {
		s.top--
	}
}

// Current returns the top-of-stack accumulator.
func (s *AccumulatorStack) Current() *Accumulator { return &s.stack[s.top] }

// Reset clears the stack for a new game.
func (s *AccumulatorStack) Reset() {
	s.top = 0
	s.stack[0] = Accumulator{}
}

// ComputeFull recomputes acc from scratch for pos.
func (acc *Accumulator) ComputeFull(pos *shogi.Position, net *Network) {
	black, white := GetActiveFeatures(pos)

	copy(acc.Black[:], net.L1Bias[:])
	copy(acc.White[:], net.L1Bias[:])

	for _, idx := range black {
		if idx >= 0 && idx < HalfKPSize {
			for i := 0; i < L1Size; i++ {
				acc.Black[i] = satAdd16(acc.Black[i], int32(net.L1Weights[idx][i]))
			}
		}
	}
	for _, idx := range white {
		if idx >= 0 && idx < HalfKPSize {
			for i := 0; i < L1Size; i++ {
				acc.White[i] = satAdd16(acc.White[i], int32(net.L1Weights[idx][i]))
			}
		}
	}
	acc.Computed = true
}

// UpdateIncremental updates acc for the move just applied to pos (via
// Position.DoMove), using the dirty-piece log produced by that call. A
// king move invalidates incremental update (the king-square axis of
// every one of that side's features changes at once) and forces a full
// recompute, matching the teacher's accumulator.go.
func (acc *Accumulator) UpdateIncremental(pos *shogi.Position, m shogi.Move, dirty []shogi.DirtyPiece, net *Network) {
	if !acc.Computed {
		acc.ComputeFull(pos, net)
		return
	}

	for _, d := range dirty {
		if d.After != shogi.NoPiece && d.After.Type() == shogi.King {
			acc.ComputeFull(pos, net)
			return
		}
		if d.Before != shogi.NoPiece && d.Before.Type() == shogi.King {
			acc.ComputeFull(pos, net)
			return
		}
	}

	blackAdd, blackRem, whiteAdd, whiteRem := GetChangedFeatures(pos, m, dirty)

	for _, idx := range blackRem {
		if idx >= 0 && idx < HalfKPSize {
			for i := 0; i < L1Size; i++ {
				acc.Black[i] = satAdd16(acc.Black[i], -int32(net.L1Weights[idx][i]))
			}
		}
	}
	for _, idx := range blackAdd {
		if idx >= 0 && idx < HalfKPSize {
			for i := 0; i < L1Size; i++ {
				acc.Black[i] = satAdd16(acc.Black[i], int32(net.L1Weights[idx][i]))
			}
		}
	}
	for _, idx := range whiteRem {
		if idx >= 0 && idx < HalfKPSize {
			for i := 0; i < L1Size; i++ {
				acc.White[i] = satAdd16(acc.White[i], -int32(net.L1Weights[idx][i]))
			}
		}
	}
	for _, idx := range whiteAdd {
		if idx >= 0 && idx < HalfKPSize {
			for i := 0; i < L1Size; i++ {
				acc.White[i] = satAdd16(acc.White[i], int32(net.L1Weights[idx][i]))
			}
		}
	}
}
