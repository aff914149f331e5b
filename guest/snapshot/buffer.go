package snapshot

import (
	"encoding/binary"
	"sort"

	"govmi/guest"
)

// Buffer is an in-memory guest.CPU backed by a set of host byte slices.
// It is used for synthetic guests in tests and for small captured blobs.
type Buffer struct {
	wordSize   int
	sp         guest.Addr
	pageOffset guest.Addr
	segments   []segment
}

type segment struct {
	base guest.Addr
	data []byte
}

var _ guest.CPU = (*Buffer)(nil)

// NewBuffer creates an empty Buffer for a guest with the given pointer width.
func NewBuffer(wordSize int) *Buffer {
	return &Buffer{wordSize: wordSize}
}

// Map adds a region of guest memory at base. Regions must not overlap.
func (b *Buffer) Map(base guest.Addr, data []byte) {
	b.segments = append(b.segments, segment{base: base, data: data})
	// ReadMemory requires the segments to be sorted by address.
	sort.Slice(b.segments, func(i, j int) bool {
		return b.segments[i].base < b.segments[j].base
	})
}

// SetStackPointer sets the value returned by StackPointer.
func (b *Buffer) SetStackPointer(sp guest.Addr) {
	b.sp = sp
}

// SetPageOffset sets the base of the kernel direct mapping used by
// VirtualToPhysical.
func (b *Buffer) SetPageOffset(off guest.Addr) {
	b.pageOffset = off
}

func (b *Buffer) segmentFor(addr guest.Addr) *segment {
	i := sort.Search(len(b.segments), func(i int) bool {
		s := &b.segments[i]
		return s.base+guest.Addr(len(s.data)) > addr
	})
	if i < len(b.segments) && b.segments[i].base <= addr {
		return &b.segments[i]
	}
	return nil
}

// ReadMemory reads size bytes of guest memory starting at addr.
func (b *Buffer) ReadMemory(addr guest.Addr, size uint64) ([]byte, error) {
	if addr.IsNull() {
		return nil, guest.ErrNullAddress
	}
	s := b.segmentFor(addr)
	if s == nil {
		return nil, guest.ErrAddressNotMapped
	}
	offset := uint64(addr - s.base)
	// offset+size could wrap for huge sizes; compare against the remaining
	// length instead.
	if size > uint64(len(s.data))-offset {
		return nil, guest.ErrOutOfBounds
	}
	return s.data[offset : offset+size], nil
}

// VirtualToPhysical translates addr using the direct-mapping rule: addresses
// at or above the page offset map linearly back to physical memory.
func (b *Buffer) VirtualToPhysical(addr guest.Addr) (guest.Addr, error) {
	if b.pageOffset != 0 && addr >= b.pageOffset {
		return addr - b.pageOffset, nil
	}
	return addr, nil
}

func (b *Buffer) StackPointer() (guest.Addr, error) {
	return b.sp, nil
}

func (b *Buffer) WordSize() int {
	return b.wordSize
}

// WriteBytes copies data into an already mapped region. It is a builder
// helper for synthetic guests, not part of the accessor contract.
func (b *Buffer) WriteBytes(addr guest.Addr, data []byte) {
	s := b.segmentFor(addr)
	if s == nil {
		panic("snapshot: write to unmapped address " + addr.String())
	}
	copy(s.data[addr-s.base:], data)
}

// WriteU32 stores a little-endian uint32 at addr.
func (b *Buffer) WriteU32(addr guest.Addr, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	b.WriteBytes(addr, buf[:])
}

// WriteU64 stores a little-endian uint64 at addr.
func (b *Buffer) WriteU64(addr guest.Addr, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	b.WriteBytes(addr, buf[:])
}

// WritePtr stores a guest-pointer-sized value at addr.
func (b *Buffer) WritePtr(addr guest.Addr, v guest.Addr) {
	if b.wordSize == 4 {
		b.WriteU32(addr, uint32(v))
		return
	}
	b.WriteU64(addr, uint64(v))
}

// WriteString stores a null-terminated string at addr.
func (b *Buffer) WriteString(addr guest.Addr, s string) {
	b.WriteBytes(addr, append([]byte(s), 0))
}
