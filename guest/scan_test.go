package guest_test

import (
	"testing"

	"govmi/guest"
	"govmi/guest/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindPattern(t *testing.T) {
	buf := snapshot.NewBuffer(8)
	buf.Map(0x1000, make([]byte, 0x20000))
	buf.WriteBytes(0x1100, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	buf.WriteBytes(0x14000, []byte{0xDE, 0xAD, 0xBE, 0xEF})

	hits := guest.FindPattern(buf, 0x1000, 0x21000, []byte{0xDE, 0xAD, 0xBE, 0xEF}, nil, 0)
	assert.Equal(t, []guest.Addr{0x1100, 0x14000}, hits)

	hits = guest.FindPattern(buf, 0x1000, 0x21000, []byte{0xDE, 0xAD, 0xBE, 0xEF}, nil, 1)
	assert.Equal(t, []guest.Addr{0x1100}, hits)
}

func TestFindPatternWildcard(t *testing.T) {
	buf := snapshot.NewBuffer(8)
	buf.Map(0x1000, make([]byte, 0x1000))
	buf.WriteBytes(0x1200, []byte{0x48, 0x8B, 0x05, 0x12, 0x34})
	buf.WriteBytes(0x1300, []byte{0x48, 0x8B, 0x05, 0x99, 0x34})

	pattern := []byte{0x48, 0x8B, 0x05, 0x00, 0x34}
	mask := []byte{1, 1, 1, 0, 1}
	hits := guest.FindPattern(buf, 0x1000, 0x2000, pattern, mask, 0)
	assert.Equal(t, []guest.Addr{0x1200, 0x1300}, hits)
}

func TestFindPatternAcrossChunkBoundary(t *testing.T) {
	buf := snapshot.NewBuffer(8)
	buf.Map(0x1000, make([]byte, 0x2000))
	// Straddles the first page-sized read.
	buf.WriteBytes(0x1FFE, []byte("needle"))

	hits := guest.FindPattern(buf, 0x1000, 0x3000, []byte("needle"), nil, 0)
	assert.Equal(t, []guest.Addr{0x1FFE}, hits)
}

func TestFindPatternSkipsHoles(t *testing.T) {
	buf := snapshot.NewBuffer(8)
	buf.Map(0x1000, make([]byte, 0x1000))
	buf.Map(0x40000, make([]byte, 0x1000))
	buf.WriteBytes(0x40100, []byte("needle"))

	hits := guest.FindPattern(buf, 0x1000, 0x41000, []byte("needle"), nil, 0)
	assert.Equal(t, []guest.Addr{0x40100}, hits)
}

func TestFindLinuxBanner(t *testing.T) {
	banner := "Linux version 6.1.0-18-amd64 (gcc-12) #1 SMP PREEMPT_DYNAMIC"
	buf := snapshot.NewBuffer(8)
	buf.Map(0x1000, make([]byte, 0x4000))
	buf.WriteString(0x2040, banner)

	addr, got, ok := guest.FindLinuxBanner(buf, 0x1000, 0x5000)
	require.True(t, ok)
	assert.Equal(t, guest.Addr(0x2040), addr)
	assert.Equal(t, banner, got)
}

func TestFindLinuxBannerAbsent(t *testing.T) {
	buf := snapshot.NewBuffer(8)
	buf.Map(0x1000, make([]byte, 0x1000))

	_, _, ok := guest.FindLinuxBanner(buf, 0x1000, 0x2000)
	assert.False(t, ok)
}
