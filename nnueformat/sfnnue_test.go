package nnueformat

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLittleEndianRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLittleEndian(&buf, int32(-12345)))
	got, err := ReadLittleEndian[int32](&buf)
	require.NoError(t, err)
	assert.Equal(t, int32(-12345), got)
}

func TestLittleEndianSliceRoundTrip(t *testing.T) {
	want := []int16{1, -1, 32767, -32768, 0}
	var buf bytes.Buffer
	require.NoError(t, WriteLittleEndianSlice(&buf, want))

	got := make([]int16, len(want))
	require.NoError(t, ReadLittleEndianSlice(&buf, got))
	assert.Equal(t, want, got)
}

func TestLEB128RoundTrip(t *testing.T) {
	want := []int16{0, 1, -1, 127, -128, 30000, -30000}
	var buf bytes.Buffer
	require.NoError(t, WriteLEB128(&buf, want))

	got := make([]int16, len(want))
	require.NoError(t, ReadLEB128(&buf, got))
	assert.Equal(t, want, got)
}

func TestReadLEB128RejectsBadMagic(t *testing.T) {
	buf := bytes.NewBufferString("NOT_THE_MAGIC_STRING")
	err := ReadLEB128(buf, make([]int16, 1))
	assert.Error(t, err)
}

func TestCeilToMultiple(t *testing.T) {
	assert.Equal(t, 64, CeilToMultiple(50, 32))
	assert.Equal(t, 32, CeilToMultiple(32, 32))
	assert.Equal(t, 0, CeilToMultiple(0, 32))
}
