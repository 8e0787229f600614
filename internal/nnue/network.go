package nnue

import "github.com/nozomi-shogi/engine/internal/shogi"

// Network holds the quantized weights of the single HalfKP network
// (spec.md §3.4): accumulator -> clippedReLU -> affine (L2) +
// clippedReLU -> affine (output) -> scalar. That is two affine layers
// after the accumulator; there is no third affine layer. Simplified from
// the teacher's dual big/small
// HalfKAv2_hm architecture (see DESIGN.md).
type Network struct {
	L1Weights [HalfKPSize][L1Size]int16
	L1Bias    [L1Size]int16

	L2Weights [L1Size * 2][L2Size]int8
	L2Bias    [L2Size]int32

	OutputWeights [L2Size]int8
	OutputBias    int32
}

// NewNetwork returns a zero-weight network; callers must either
// LoadWeights or InitRandom before evaluating.
func NewNetwork() *Network { return &Network{} }

// Forward computes the network's scalar output given an accumulator,
// from the perspective of sideToMove: side-to-move's half of the
// accumulator is fed first, matching Stockfish-NNUE convention and the
// teacher's Forward.
func (n *Network) Forward(acc *Accumulator, sideToMove shogi.Color) int {
	var stmAcc, nstmAcc *[L1Size]int16
	if sideToMove == shogi.Black {
		stmAcc, nstmAcc = &acc.Black, &acc.White
	} else {
		stmAcc, nstmAcc = &acc.White, &acc.Black
	}

	var l1Out [L1Size * 2]int8
	for i := 0; i < L1Size; i++ {
		l1Out[i] = ClampedReLU(stmAcc[i])
		l1Out[L1Size+i] = ClampedReLU(nstmAcc[i])
	}

	var l2Out [L2Size]int8
	for i := 0; i < L2Size; i++ {
		sum := n.L2Bias[i]
		for j := 0; j < L1Size*2; j++ {
			sum += int32(l1Out[j]) * int32(n.L2Weights[j][i])
		}
		scaled := int16(sum >> L1QuantShift)
		l2Out[i] = ClampedReLU(scaled)
	}

	var output int32 = n.OutputBias
	for i := 0; i < L2Size; i++ {
		output += int32(l2Out[i]) * int32(n.OutputWeights[i])
	}

	return int(output * OutputScale >> (L2QuantShift + 8))
}

// InitRandom fills the network with small deterministic pseudo-random
// weights, used only as a fallback evaluator when no weight file is
// available (spec.md §7's NNUE-load-error fallback complements this with
// the classical evaluator in internal/engine/eval.go; this path exists
// purely so an Evaluator can always be constructed, e.g. in tests).
func (n *Network) InitRandom(seed int64) {
	state := uint64(seed)
	next := func() int16 {
		state = state*6364136223846793005 + 1442695040888963407
		return int16((state>>48)&0xFF) - 128
	}

	for i := 0; i < HalfKPSize; i++ {
		for j := 0; j < L1Size; j++ {
			n.L1Weights[i][j] = next() >> 5
		}
	}
	for i := 0; i < L1Size; i++ {
		n.L1Bias[i] = next() >> 3
	}
	for i := 0; i < L1Size*2; i++ {
		for j := 0; j < L2Size; j++ {
			v := next() >> 6
			if v > 127 {
				v = 127
			} else if v < -128 {
				v = -128
			}
			n.L2Weights[i][j] = int8(v)
		}
	}
	for i := 0; i < L2Size; i++ {
		n.L2Bias[i] = int32(next())
	}
	for i := 0; i < L2Size; i++ {
		v := next() >> 6
		if v > 127 {
			v = 127
		} else if v < -128 {
			v = -128
		}
		n.OutputWeights[i] = int8(v)
	}
	n.OutputBias = int32(next()) * 100
}
