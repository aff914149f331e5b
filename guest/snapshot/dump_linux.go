//go:build linux

package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"govmi/guest"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"golang.org/x/sys/unix"
)

// Dump is a guest.CPU backed by a saved memory dump directory. Region files
// are mapped read-only into the host, so opening a large dump is cheap.
type Dump struct {
	log      *logger.Logger
	meta     Metadata
	segments []dumpSegment
}

type dumpSegment struct {
	base guest.Addr
	data []byte
}

var _ guest.CPU = (*Dump)(nil)

// Load opens a dump directory written by a guest memory capture.
func Load(dirname string) (*Dump, error) {
	meta, regions, err := loadMetadata(dirname)
	if err != nil {
		return nil, err
	}

	d := &Dump{
		log:  logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("snapshot-%s", meta.Name))),
		meta: meta,
	}

	for _, r := range regions {
		if r.File == "" || r.Size == 0 {
			continue
		}
		data, err := mmapRegionFile(filepath.Join(dirname, r.File), r.Size)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("failed to map region at %s: %w", r.Address, err)
		}
		d.segments = append(d.segments, dumpSegment{base: r.Address, data: data})
	}
	sort.Slice(d.segments, func(i, j int) bool {
		return d.segments[i].base < d.segments[j].base
	})

	d.log.Infoln("Loaded dump with", len(d.segments), "regions")
	return d, nil
}

func mmapRegionFile(path string, size uint64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if uint64(st.Size()) < size {
		return nil, fmt.Errorf("region file %s is %d bytes, want %d", path, st.Size(), size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mmap failed: %w", err)
	}
	return data, nil
}

// Close unmaps all region files.
func (d *Dump) Close() error {
	var first error
	for _, s := range d.segments {
		if err := unix.Munmap(s.data); err != nil && first == nil {
			first = err
		}
	}
	d.segments = nil
	return first
}

func (d *Dump) segmentFor(addr guest.Addr) *dumpSegment {
	i := sort.Search(len(d.segments), func(i int) bool {
		s := &d.segments[i]
		return s.base+guest.Addr(len(s.data)) > addr
	})
	if i < len(d.segments) && d.segments[i].base <= addr {
		return &d.segments[i]
	}
	return nil
}

// ReadMemory reads size bytes of guest memory starting at addr.
func (d *Dump) ReadMemory(addr guest.Addr, size uint64) ([]byte, error) {
	if addr.IsNull() {
		return nil, guest.ErrNullAddress
	}
	s := d.segmentFor(addr)
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

// Bounds returns the lowest and one past the highest mapped guest address,
// for callers sweeping the whole dump.
func (d *Dump) Bounds() (guest.Addr, guest.Addr) {
	if len(d.segments) == 0 {
		return 0, 0
	}
	last := d.segments[len(d.segments)-1]
	return d.segments[0].base, last.base + guest.Addr(len(last.data))
}

// VirtualToPhysical translates addr using the dump's direct-mapping base.
func (d *Dump) VirtualToPhysical(addr guest.Addr) (guest.Addr, error) {
	if d.meta.PageOffset != 0 && addr >= d.meta.PageOffset {
		return addr - d.meta.PageOffset, nil
	}
	return addr, nil
}

// StackPointer returns the kernel stack pointer captured with the dump.
func (d *Dump) StackPointer() (guest.Addr, error) {
	if d.meta.StackPointer.IsNull() {
		return 0, fmt.Errorf("dump has no captured stack pointer")
	}
	return d.meta.StackPointer, nil
}

func (d *Dump) WordSize() int {
	return d.meta.WordSize
}
