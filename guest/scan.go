package guest

import (
	"bytes"
)

// scanChunk is how much guest memory a scan reads per step. One guest page:
// mappings come and go at page granularity, so a failed read only ever
// skips a page. Matches across chunk edges are found by overlapping reads
// with the pattern length.
const scanChunk = 0x1000

// FindPattern scans guest memory in [start, end) for pattern and returns
// the addresses of up to maxHits matches (all of them when maxHits is 0).
// mask, when non-nil, must have the pattern's length; a zero mask byte turns
// the corresponding pattern byte into a wildcard. Unreadable pages are
// skipped, not fatal: holes are normal when sweeping a guest's address
// space.
func FindPattern(mem Memory, start, end Addr, pattern, mask []byte, maxHits int) []Addr {
	if len(pattern) == 0 || end <= start {
		return nil
	}

	var hits []Addr
	for addr := start; addr < end; {
		size := uint64(scanChunk)
		if remaining := uint64(end - addr); remaining < size {
			size = remaining
		}
		data, err := mem.ReadMemory(addr, size)
		if err != nil {
			// Realign to the next page so a mapped region further on is
			// read from its own boundary.
			addr = (addr + scanChunk) &^ (scanChunk - 1)
			continue
		}

		for i := 0; i+len(pattern) <= len(data); i++ {
			if matchAt(data[i:], pattern, mask) {
				hits = append(hits, addr+Addr(i))
				if maxHits > 0 && len(hits) >= maxHits {
					return hits
				}
			}
		}

		// Step back so a match straddling the chunk edge is still seen.
		step := Addr(len(data))
		if step > Addr(len(pattern)-1) {
			step -= Addr(len(pattern) - 1)
		}
		addr += step
	}
	return hits
}

func matchAt(data, pattern, mask []byte) bool {
	if mask == nil {
		return bytes.HasPrefix(data, pattern)
	}
	if len(data) < len(pattern) {
		return false
	}
	for i := range pattern {
		if mask[i] != 0 && data[i] != pattern[i] {
			return false
		}
	}
	return true
}

// linuxBannerPrefix starts every kernel's version banner string.
var linuxBannerPrefix = []byte("Linux version ")

const maxBannerLen = 512

// FindLinuxBanner scans [start, end) for the kernel's version banner and
// returns its address and text. The banner is the standard way to confirm
// that an offset table was generated for the running kernel build.
func FindLinuxBanner(mem Memory, start, end Addr) (Addr, string, bool) {
	hits := FindPattern(mem, start, end, linuxBannerPrefix, nil, 1)
	if len(hits) == 0 {
		return 0, "", false
	}
	banner, err := ReadString(mem, hits[0], maxBannerLen)
	if err != nil {
		return 0, "", false
	}
	return hits[0], banner, true
}
