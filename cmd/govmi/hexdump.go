//go:build linux

package main

import (
	"fmt"
	"strings"

	"govmi/guest"
)

const bytesPerLine = 16

// hexDump prints data in the usual offset/hex/ASCII layout, addressed by
// guest virtual address.
func hexDump(base guest.Addr, data []byte) {
	for off := 0; off < len(data); off += bytesPerLine {
		end := off + bytesPerLine
		if end > len(data) {
			end = len(data)
		}
		line := data[off:end]

		var hexCol strings.Builder
		var asciiCol strings.Builder
		for i, b := range line {
			if i == bytesPerLine/2 {
				hexCol.WriteByte(' ')
			}
			fmt.Fprintf(&hexCol, "%02x ", b)
			if b >= 0x20 && b < 0x7f {
				asciiCol.WriteByte(b)
			} else {
				asciiCol.WriteByte('.')
			}
		}

		fmt.Printf("%016x  %-49s |%s|\n", uint64(base)+uint64(off), hexCol.String(), asciiCol.String())
	}
}
