package profile

import (
	"govmi/guest"
	"govmi/kernelinfo"
)

// Kernel24Profile covers the 2.4 series. Those kernels have no thread_info
// (the task_union at the stack base is the task_struct itself), link tasks
// through a flat singly linked next_task pointer, and keep the fd array
// directly inside files_struct.
type Kernel24Profile struct {
	ki *kernelinfo.KernelInfo
}

var _ KernelProfile = (*Kernel24Profile)(nil)

func (p *Kernel24Profile) Name() string {
	return "kernel24x"
}

func (p *Kernel24Profile) CurrentTask(cpu guest.CPU) guest.Addr {
	sp, err := cpu.StackPointer()
	if err != nil || sp.IsNull() {
		return 0
	}
	return sp & threadInfoMask
}

func (p *Kernel24Profile) NextTask(cpu guest.CPU, ts guest.Addr) guest.Addr {
	return guest.ReadPtrOrZero(cpu, ts+guest.Addr(p.ki.Task.NextTaskOffset))
}

func (p *Kernel24Profile) GroupLeader(cpu guest.CPU, ts guest.Addr) guest.Addr {
	return guest.ReadPtrOrZero(cpu, ts+guest.Addr(p.ki.Task.GroupLeaderOffset))
}

func (p *Kernel24Profile) FileFds(cpu guest.CPU, files guest.Addr) guest.Addr {
	if files.IsNull() {
		return 0
	}
	return guest.ReadPtrOrZero(cpu, files+guest.Addr(p.ki.FS.FdOffset))
}
