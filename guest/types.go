package guest

import (
	"fmt"
)

// Addr represents a virtual address inside the guest. It is never a host
// pointer and must only be dereferenced through a Memory accessor.
// The zero value always means "absent/null", never a valid structure address.
type Addr uint64

func (a Addr) String() string {
	return fmt.Sprintf("0x%X", uint64(a))
}

// IsNull reports whether the address is the null sentinel.
func (a Addr) IsNull() bool {
	return a == 0
}

// Memory reads from the guest's virtual address space and translates
// virtual addresses to physical ones. Implementations never write
// guest memory.
type Memory interface {
	// ReadMemory reads size bytes starting at addr.
	ReadMemory(addr Addr, size uint64) ([]byte, error)

	// VirtualToPhysical translates a guest virtual address to a physical one.
	VirtualToPhysical(addr Addr) (Addr, error)
}

// CPU is the per-vCPU view handed to introspection operations: the guest's
// memory plus the register state the kernel-profile primitives need.
type CPU interface {
	Memory

	// StackPointer returns the vCPU's current kernel stack pointer.
	StackPointer() (Addr, error)

	// WordSize returns the guest pointer width in bytes (4 or 8).
	WordSize() int
}
