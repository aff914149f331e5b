package profile

import (
	"govmi/guest"
	"govmi/kernelinfo"
)

// DefaultProfile handles every kernel generation after the 2.4 series:
// the current task hangs off thread_info at the base of the kernel stack,
// and tasks are linked through the circular doubly linked `tasks` field.
type DefaultProfile struct {
	ki *kernelinfo.KernelInfo
}

var _ KernelProfile = (*DefaultProfile)(nil)

func (p *DefaultProfile) Name() string {
	return "default"
}

func (p *DefaultProfile) CurrentTask(cpu guest.CPU) guest.Addr {
	sp, err := cpu.StackPointer()
	if err != nil || sp.IsNull() {
		return 0
	}
	threadInfo := sp & threadInfoMask
	return guest.ReadPtrOrZero(cpu, threadInfo+guest.Addr(p.ki.Task.TaskOffset))
}

func (p *DefaultProfile) NextTask(cpu guest.CPU, ts guest.Addr) guest.Addr {
	// The tasks field points at the next entry's tasks field, not at the
	// next task_struct itself.
	tasks := guest.ReadPtrOrZero(cpu, ts+guest.Addr(p.ki.Task.TasksOffset))
	if tasks.IsNull() {
		return 0
	}
	return tasks - guest.Addr(p.ki.Task.TasksOffset)
}

func (p *DefaultProfile) GroupLeader(cpu guest.CPU, ts guest.Addr) guest.Addr {
	return guest.ReadPtrOrZero(cpu, ts+guest.Addr(p.ki.Task.GroupLeaderOffset))
}

func (p *DefaultProfile) FileFds(cpu guest.CPU, files guest.Addr) guest.Addr {
	if files.IsNull() {
		return 0
	}
	fdt := guest.ReadPtrOrZero(cpu, files+guest.Addr(p.ki.FS.FdtOffset))
	if fdt.IsNull() {
		return 0
	}
	return guest.ReadPtrOrZero(cpu, fdt+guest.Addr(p.ki.FS.FdOffset))
}
