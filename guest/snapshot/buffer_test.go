package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govmi/guest"
)

func TestBufferReadMemory(t *testing.T) {
	buf := NewBuffer(8)
	buf.Map(0x1000, []byte{1, 2, 3, 4})
	buf.Map(0x9000, []byte{9, 9})

	data, err := buf.ReadMemory(0x1001, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3}, data)

	data, err = buf.ReadMemory(0x9000, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 9}, data)
}

func TestBufferReadErrors(t *testing.T) {
	buf := NewBuffer(8)
	buf.Map(0x1000, make([]byte, 16))

	_, err := buf.ReadMemory(0, 1)
	assert.ErrorIs(t, err, guest.ErrNullAddress)

	_, err = buf.ReadMemory(0x2000, 1)
	assert.ErrorIs(t, err, guest.ErrAddressNotMapped)

	// Read starting inside the region but running past its end.
	_, err = buf.ReadMemory(0x1008, 16)
	assert.ErrorIs(t, err, guest.ErrOutOfBounds)
}

func TestBufferReadHugeSize(t *testing.T) {
	buf := NewBuffer(8)
	buf.Map(0x1000, make([]byte, 0x100))

	// A size near 2^64 must not wrap the bounds arithmetic into a panic.
	assert.NotPanics(t, func() {
		_, err := buf.ReadMemory(0x1010, ^uint64(0)-0xF)
		assert.ErrorIs(t, err, guest.ErrOutOfBounds)
	})
}

func TestBufferVirtualToPhysical(t *testing.T) {
	buf := NewBuffer(8)
	buf.SetPageOffset(0xC0000000)

	phys, err := buf.VirtualToPhysical(0xC0123000)
	require.NoError(t, err)
	assert.Equal(t, guest.Addr(0x123000), phys)

	// Below the direct mapping the translation is identity.
	phys, err = buf.VirtualToPhysical(0x400000)
	require.NoError(t, err)
	assert.Equal(t, guest.Addr(0x400000), phys)
}

func TestBufferCPUState(t *testing.T) {
	buf := NewBuffer(4)
	buf.SetStackPointer(0xC1234F80)

	sp, err := buf.StackPointer()
	require.NoError(t, err)
	assert.Equal(t, guest.Addr(0xC1234F80), sp)
	assert.Equal(t, 4, buf.WordSize())
}

func TestBufferWriteHelpers(t *testing.T) {
	buf := NewBuffer(4)
	buf.Map(0x1000, make([]byte, 32))

	buf.WritePtr(0x1000, 0xAABBCCDD)
	v, err := guest.ReadPtr(buf, 0x1000)
	require.NoError(t, err)
	assert.Equal(t, guest.Addr(0xAABBCCDD), v)

	buf.WriteString(0x1010, "init")
	s, err := guest.ReadString(buf, 0x1010, 16)
	require.NoError(t, err)
	assert.Equal(t, "init", s)

	assert.Panics(t, func() { buf.WriteBytes(0x5000, []byte{1}) })
}
