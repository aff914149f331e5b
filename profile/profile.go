// Package profile abstracts the kernel-generation-specific ways of locating
// tasks and file tables in the guest. Exactly one profile is selected per
// introspection session and never changes afterwards.
package profile

import (
	"govmi/guest"
	"govmi/kernelinfo"
)

// KernelProfile exposes the four traversal primitives the engine needs.
// All ops return the null address on a failed or absent link; errors never
// travel in-band any other way.
type KernelProfile interface {
	// Name identifies the profile in logs.
	Name() string

	// CurrentTask returns the address of the task_struct running on the vCPU.
	CurrentTask(cpu guest.CPU) guest.Addr

	// NextTask returns the address of the following task_struct in the
	// all-process list.
	NextTask(cpu guest.CPU, ts guest.Addr) guest.Addr

	// GroupLeader returns the address of the task's thread-group leader.
	GroupLeader(cpu guest.CPU, ts guest.Addr) guest.Addr

	// FileFds returns the address of the flat array of file struct pointers
	// for a files_struct.
	FileFds(cpu guest.CPU, files guest.Addr) guest.Addr
}

// kernel24Boundary is the last release of the 2.4 series the legacy profile
// covers. Builds at or below it predate thread_info and the circular tasks
// list.
var kernel24Boundary = kernelinfo.VersionCode(2, 4, 254)

// Select picks the profile matching the loaded kernel version. The choice
// is made once at initialization time.
func Select(ki *kernelinfo.KernelInfo) KernelProfile {
	if ki.Version.Code() <= kernel24Boundary {
		return &Kernel24Profile{ki: ki}
	}
	return &DefaultProfile{ki: ki}
}

// threadInfoMask strips the kernel stack pointer down to the base of the
// thread_info (or task_union) it lives on. Assumes 8KiB kernel stacks.
const threadInfoMask = ^guest.Addr(8192 - 1)
