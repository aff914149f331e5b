package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"govmi/guest"
)

// Metadata describes a saved guest memory dump.
type Metadata struct {
	Name         string     `json:"name"`
	WordSize     int        `json:"word_size"`
	StackPointer guest.Addr `json:"stack_pointer"`
	PageOffset   guest.Addr `json:"page_offset"`
}

// Region describes one mapped range of the dump.
type Region struct {
	Address guest.Addr `json:"address"`
	Size    uint64     `json:"size"`
	Perms   string     `json:"perms"`
	File    string     `json:"file"`
}

// IsReadable reports whether the region was readable in the guest.
func (r Region) IsReadable() bool {
	return len(r.Perms) > 0 && r.Perms[0] == 'r'
}

const (
	metadataFile  = "metadata.json"
	memoryMapFile = "memory_map.json"
)

func loadMetadata(dirname string) (Metadata, []Region, error) {
	var meta Metadata
	raw, err := os.ReadFile(filepath.Join(dirname, metadataFile))
	if err != nil {
		return meta, nil, fmt.Errorf("failed to read metadata file: %w", err)
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return meta, nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if meta.WordSize != 4 && meta.WordSize != 8 {
		return meta, nil, fmt.Errorf("unsupported word size %d in %s", meta.WordSize, metadataFile)
	}

	raw, err = os.ReadFile(filepath.Join(dirname, memoryMapFile))
	if err != nil {
		return meta, nil, fmt.Errorf("failed to read memory map file: %w", err)
	}
	var regions []Region
	if err := json.Unmarshal(raw, &regions); err != nil {
		return meta, nil, fmt.Errorf("failed to parse memory map: %w", err)
	}

	sort.Slice(regions, func(i, j int) bool {
		return regions[i].Address < regions[j].Address
	})
	return meta, regions, nil
}
