package osi

import (
	"govmi/guest"
)

// Offset getters over the structures the offset table describes. All of them
// return zero values on unreadable guest memory; whether that is fatal is
// the caller's call.

func (l *Linux) taskPID(cpu guest.CPU, ts guest.Addr) uint32 {
	v, err := guest.ReadU32(cpu, ts+guest.Addr(l.ki.Task.PIDOffset))
	if err != nil {
		return 0
	}
	return v
}

func (l *Linux) taskTGID(cpu guest.CPU, ts guest.Addr) uint32 {
	v, err := guest.ReadU32(cpu, ts+guest.Addr(l.ki.Task.TGIDOffset))
	if err != nil {
		return 0
	}
	return v
}

func (l *Linux) taskComm(cpu guest.CPU, ts guest.Addr) string {
	size := l.ki.Task.CommSize
	if size == 0 {
		size = 16
	}
	name, err := guest.ReadString(cpu, ts+guest.Addr(l.ki.Task.CommOffset), size)
	if err != nil {
		return ""
	}
	return name
}

// realParentPID follows the real_parent link and reads the parent's pid.
func (l *Linux) realParentPID(cpu guest.CPU, ts guest.Addr) uint32 {
	parent := guest.ReadPtrOrZero(cpu, ts+guest.Addr(l.ki.Task.RealParentOffset))
	if parent.IsNull() {
		return 0
	}
	return l.taskPID(cpu, parent)
}

func (l *Linux) taskMM(cpu guest.CPU, ts guest.Addr) guest.Addr {
	return guest.ReadPtrOrZero(cpu, ts+guest.Addr(l.ki.Task.MMOffset))
}

// taskPGD reads the virtual address of the task's page directory.
func (l *Linux) taskPGD(cpu guest.CPU, ts guest.Addr) guest.Addr {
	mm := l.taskMM(cpu, ts)
	if mm.IsNull() {
		return 0
	}
	return guest.ReadPtrOrZero(cpu, mm+guest.Addr(l.ki.MM.PGDOffset))
}

// taskASID translates the page directory to its physical address, which is
// what identifies the address space at the hardware level.
func (l *Linux) taskASID(cpu guest.CPU, ts guest.Addr) guest.Addr {
	pgd := l.taskPGD(cpu, ts)
	if pgd.IsNull() {
		return 0
	}
	asid, err := cpu.VirtualToPhysical(pgd)
	if err != nil {
		return 0
	}
	return asid
}

// threadGroupNext reads the task's thread_group list pointer.
func (l *Linux) threadGroupNext(cpu guest.CPU, ts guest.Addr) guest.Addr {
	return guest.ReadPtrOrZero(cpu, ts+guest.Addr(l.ki.Task.ThreadGroupOffset))
}

func (l *Linux) taskFiles(cpu guest.CPU, ts guest.Addr) guest.Addr {
	return guest.ReadPtrOrZero(cpu, ts+guest.Addr(l.ki.Task.FilesOffset))
}

// firstVMA returns the head of the task's memory-mapping list.
func (l *Linux) firstVMA(cpu guest.CPU, ts guest.Addr) guest.Addr {
	mm := l.taskMM(cpu, ts)
	if mm.IsNull() {
		return 0
	}
	return guest.ReadPtrOrZero(cpu, mm+guest.Addr(l.ki.MM.MmapOffset))
}

func (l *Linux) vmaNext(cpu guest.CPU, vma guest.Addr) guest.Addr {
	return guest.ReadPtrOrZero(cpu, vma+guest.Addr(l.ki.VMA.VMNextOffset))
}

func (l *Linux) vmaStart(cpu guest.CPU, vma guest.Addr) guest.Addr {
	return guest.ReadPtrOrZero(cpu, vma+guest.Addr(l.ki.VMA.VMStartOffset))
}

func (l *Linux) vmaEnd(cpu guest.CPU, vma guest.Addr) guest.Addr {
	return guest.ReadPtrOrZero(cpu, vma+guest.Addr(l.ki.VMA.VMEndOffset))
}

func (l *Linux) vmaFile(cpu guest.CPU, vma guest.Addr) guest.Addr {
	return guest.ReadPtrOrZero(cpu, vma+guest.Addr(l.ki.VMA.VMFileOffset))
}

func (l *Linux) vmaMM(cpu guest.CPU, vma guest.Addr) guest.Addr {
	return guest.ReadPtrOrZero(cpu, vma+guest.Addr(l.ki.VMA.VMMMOffset))
}

func (l *Linux) mmStartBrk(cpu guest.CPU, mm guest.Addr) guest.Addr {
	return guest.ReadPtrOrZero(cpu, mm+guest.Addr(l.ki.MM.StartBrkOffset))
}

func (l *Linux) mmBrk(cpu guest.CPU, mm guest.Addr) guest.Addr {
	return guest.ReadPtrOrZero(cpu, mm+guest.Addr(l.ki.MM.BrkOffset))
}

func (l *Linux) mmStartStack(cpu guest.CPU, mm guest.Addr) guest.Addr {
	return guest.ReadPtrOrZero(cpu, mm+guest.Addr(l.ki.MM.StartStackOffset))
}

func (l *Linux) fileDentry(cpu guest.CPU, file guest.Addr) guest.Addr {
	return guest.ReadPtrOrZero(cpu, file+guest.Addr(l.ki.FS.FDentryOffset))
}

func (l *Linux) fileMnt(cpu guest.CPU, file guest.Addr) guest.Addr {
	return guest.ReadPtrOrZero(cpu, file+guest.Addr(l.ki.FS.FMntOffset))
}

func (l *Linux) filePos(cpu guest.CPU, file guest.Addr) (uint64, error) {
	return guest.ReadU64(cpu, file+guest.Addr(l.ki.FS.FPosOffset))
}
