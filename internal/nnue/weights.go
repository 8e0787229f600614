package nnue

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/nozomi-shogi/engine/nnueformat"
)

// Weight file layout (spec.md §6.4): a small fixed header (magic,
// version, L1Size, L2Size) followed by the weight arrays: the L1 weights
// LEB128-compressed, every other array as plain little-endian integers,
// reusing nnueformat's little-endian/LEB128 primitives (the same ones
// the Stockfish-NNUE file format uses) instead of a bespoke codec.
const (
	MagicNumber = 0x53484F47 // "SHOG"
	FormatVersion = 1
)

// FileHeader is the fixed-size weight-file header.
type FileHeader struct {
	Magic   uint32
	Version uint32
	L1Size  uint32
	L2Size  uint32
}

// LoadWeights loads network weights from filename, applying the
// dimension-mismatch and bad-magic checks spec.md §7 calls for (the
// caller falls back to the classical evaluator on any error here).
func (n *Network) LoadWeights(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("nnue: open weights file: %w", err)
	}
	defer f.Close()
	return n.LoadWeightsFromReader(bufio.NewReader(f))
}

// LoadWeightsFromReader loads weights from an arbitrary reader, e.g. an
// embedded asset or a network stream passed in by the USI adapter.
func (n *Network) LoadWeightsFromReader(r io.Reader) error {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("nnue: read header: %w", err)
	}
	if header.Magic != MagicNumber {
		return fmt.Errorf("nnue: bad magic: want %#x, got %#x", MagicNumber, header.Magic)
	}
	if header.Version != FormatVersion {
		return fmt.Errorf("nnue: unsupported version %d", header.Version)
	}
	if header.L1Size != L1Size {
		return fmt.Errorf("nnue: L1 size mismatch: want %d, got %d", L1Size, header.L1Size)
	}
	if header.L2Size != L2Size {
		return fmt.Errorf("nnue: L2 size mismatch: want %d, got %d", L2Size, header.L2Size)
	}

	for i := 0; i < HalfKPSize; i++ {
		if err := nnueformat.ReadLEB128(r, n.L1Weights[i][:]); err != nil {
			return fmt.Errorf("nnue: read L1 weights at %d: %w", i, err)
		}
	}
	if err := nnueformat.ReadLittleEndianSlice(r, n.L1Bias[:]); err != nil {
		return fmt.Errorf("nnue: read L1 bias: %w", err)
	}
	for i := 0; i < L1Size*2; i++ {
		if err := nnueformat.ReadLittleEndianSlice(r, n.L2Weights[i][:]); err != nil {
			return fmt.Errorf("nnue: read L2 weights at %d: %w", i, err)
		}
	}
	if err := binary.Read(r, binary.LittleEndian, &n.L2Bias); err != nil {
		return fmt.Errorf("nnue: read L2 bias: %w", err)
	}
	if err := nnueformat.ReadLittleEndianSlice(r, n.OutputWeights[:]); err != nil {
		return fmt.Errorf("nnue: read output weights: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &n.OutputBias); err != nil {
		return fmt.Errorf("nnue: read output bias: %w", err)
	}
	return nil
}

// SaveWeights writes n to filename in the same format LoadWeights reads,
// used by offline training/quantization tooling outside this module's
// scope (spec.md §1 Non-goals) but kept as the dual of LoadWeights for
// round-trip testing.
func (n *Network) SaveWeights(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("nnue: create weights file: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	header := FileHeader{Magic: MagicNumber, Version: FormatVersion, L1Size: L1Size, L2Size: L2Size}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("nnue: write header: %w", err)
	}
	for i := 0; i < HalfKPSize; i++ {
		if err := nnueformat.WriteLEB128(w, n.L1Weights[i][:]); err != nil {
			return fmt.Errorf("nnue: write L1 weights at %d: %w", i, err)
		}
	}
	if err := nnueformat.WriteLittleEndianSlice(w, n.L1Bias[:]); err != nil {
		return fmt.Errorf("nnue: write L1 bias: %w", err)
	}
	for i := 0; i < L1Size*2; i++ {
		if err := nnueformat.WriteLittleEndianSlice(w, n.L2Weights[i][:]); err != nil {
			return fmt.Errorf("nnue: write L2 weights at %d: %w", i, err)
		}
	}
	if err := binary.Write(w, binary.LittleEndian, &n.L2Bias); err != nil {
		return fmt.Errorf("nnue: write L2 bias: %w", err)
	}
	if err := nnueformat.WriteLittleEndianSlice(w, n.OutputWeights[:]); err != nil {
		return fmt.Errorf("nnue: write output weights: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, &n.OutputBias); err != nil {
		return fmt.Errorf("nnue: write output bias: %w", err)
	}
	return w.Flush()
}
