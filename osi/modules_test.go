package osi_test

import (
	"testing"

	"govmi/guest"
	"govmi/osi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModulesClassification(t *testing.T) {
	g := newGuest()
	ts := g.addTask(30, 30, "app")
	mm := g.addMM(ts, 0x80300000, 0x601000, 0x640000, 0x7ffd1000)

	text := g.addVMA(mm, 0x400000, 0x450000, g.addFile("", "/usr/bin/app", 0))
	heap := g.addVMA(mm, 0x601000, 0x650000, 0)
	anon := g.addVMA(mm, 0x7f0000000000, 0x7f0000010000, 0)
	stack := g.addVMA(mm, 0x7ffd0000, 0x7ffe0000, 0)
	g.vmaList(mm, text, heap, anon, stack)

	l := osi.New(testKI())
	mods, err := l.Modules(g.buf, osi.Handle{TaskAddr: ts})
	require.NoError(t, err)
	require.Len(t, mods, 4)

	assert.Equal(t, "/usr/bin/app", mods[0].File)
	assert.Equal(t, "app", mods[0].Name)
	assert.Equal(t, guest.Addr(0x400000), mods[0].Base)
	assert.Equal(t, uint64(0x50000), mods[0].Size)

	assert.Equal(t, osi.NameHeap, mods[1].Name)
	assert.Empty(t, mods[1].File)
	assert.Equal(t, osi.NameUnknown, mods[2].Name)
	assert.Equal(t, osi.NameStack, mods[3].Name)
}

func TestModulesMountPrefix(t *testing.T) {
	g := newGuest()
	ts := g.addTask(31, 31, "app")
	mm := g.addMM(ts, 0x80300000, 0, 0, 0)
	vma := g.addVMA(mm, 0x400000, 0x410000, g.addFile("/mnt/data", "/lib/libz.so", 0))
	g.vmaList(mm, vma)

	l := osi.New(testKI())
	mods, err := l.Modules(g.buf, osi.Handle{TaskAddr: ts})
	require.NoError(t, err)
	require.Len(t, mods, 1)
	assert.Equal(t, "/mnt/data/lib/libz.so", mods[0].File)
	assert.Equal(t, "libz.so", mods[0].Name)
}

func TestModulesNoMM(t *testing.T) {
	g := newGuest()
	ts := g.addTask(2, 2, "kthreadd")

	l := osi.New(testKI())
	mods, err := l.Modules(g.buf, osi.Handle{TaskAddr: ts})
	require.NoError(t, err)
	assert.NotNil(t, mods)
	assert.Empty(t, mods)
}

func TestModulesBrokenChain(t *testing.T) {
	g := newGuest()
	ts := g.addTask(30, 30, "app")
	mm := g.addMM(ts, 0x80300000, 0, 0, 0)
	v1 := g.addVMA(mm, 0x400000, 0x410000, 0)
	v2 := g.addVMA(mm, 0x410000, 0x420000, 0)
	g.vmaList(mm, v1, v2)
	g.buf.WritePtr(v2+offVMANext, 0)

	l := osi.New(testKI())
	mods, err := l.Modules(g.buf, osi.Handle{TaskAddr: ts})
	assert.ErrorIs(t, err, osi.ErrMemoryRead)
	assert.Nil(t, mods)
}

func TestModulesRunawayChain(t *testing.T) {
	g := newGuest()
	ts := g.addTask(30, 30, "app")
	mm := g.addMM(ts, 0x80300000, 0, 0, 0)
	v1 := g.addVMA(mm, 0x400000, 0x410000, 0)
	v2 := g.addVMA(mm, 0x410000, 0x420000, 0)
	g.vmaList(mm, v1, v2)
	// v2 loops back to itself instead of re-converging on v1.
	g.buf.WritePtr(v2+offVMANext, v2)

	l := osi.New(testKI())
	l.MaxTasks = 16
	mods, err := l.Modules(g.buf, osi.Handle{TaskAddr: ts})
	assert.ErrorIs(t, err, osi.ErrTraversalLimit)
	assert.Nil(t, mods)
}

func TestModulesAnonymousDetachedMM(t *testing.T) {
	g := newGuest()
	ts := g.addTask(30, 30, "app")
	mm := g.addMM(ts, 0x80300000, 0, 0, 0)
	vma := g.addVMA(0, 0x400000, 0x410000, 0)
	g.buf.WritePtr(mm+offMMMmap, vma)
	g.buf.WritePtr(vma+offVMANext, vma)

	l := osi.New(testKI())
	mods, err := l.Modules(g.buf, osi.Handle{TaskAddr: ts})
	require.NoError(t, err)
	require.Len(t, mods, 1)
	// With no owning mm there is nothing to classify against.
	assert.Equal(t, osi.NameUnknown, mods[0].Name)
}
