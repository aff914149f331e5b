package osi

import (
	"strings"

	"govmi/guest"
)

// Entity fillers. Individually unreadable sub-fields degrade to zero/empty
// values; only an unreadable task or VMA address itself is fatal, and that
// is the traversal engine's problem, not the fillers'.

func (l *Linux) fillProc(cpu guest.CPU, ts guest.Addr) Proc {
	return Proc{
		TaskAddr: ts,
		ASID:     l.taskASID(cpu, ts),
		// The process id exposed to introspection is the thread-group id,
		// matching the kernel's PID/TGID semantics.
		PID:  l.taskTGID(cpu, ts),
		PPID: l.realParentPID(cpu, ts),
		Name: l.taskComm(cpu, ts),
	}
}

func (l *Linux) fillHandle(cpu guest.CPU, ts guest.Addr) Handle {
	return Handle{
		TaskAddr: ts,
		ASID:     l.taskASID(cpu, ts),
	}
}

func (l *Linux) fillThread(cpu guest.CPU, ts guest.Addr) Thread {
	return Thread{
		TID: l.taskPID(cpu, ts),
		PID: l.taskTGID(cpu, ts),
	}
}

func (l *Linux) fillModule(cpu guest.CPU, vma guest.Addr) Module {
	start := l.vmaStart(cpu, vma)
	end := l.vmaEnd(cpu, vma)
	m := Module{
		VMAAddr: vma,
		Base:    start,
		// Inconsistent guest data can make this zero or wrap; it is
		// surfaced as-is, not corrected.
		Size: uint64(end - start),
	}

	if file := l.vmaFile(cpu, vma); !file.IsNull() {
		// Mapping is backed by a file.
		name, err := l.fileName(cpu, file)
		if err == nil {
			m.File = name
			if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
				m.Name = name[idx+1:]
			} else {
				m.Name = name
			}
		}
		return m
	}

	// Anonymous mapping: classify against the owning mm's heap and stack
	// ranges, in that priority order.
	mm := l.vmaMM(cpu, vma)
	if mm.IsNull() {
		m.Name = NameUnknown
		return m
	}
	startBrk := l.mmStartBrk(cpu, mm)
	brk := l.mmBrk(cpu, mm)
	startStack := l.mmStartStack(cpu, mm)

	switch {
	case start <= startBrk && end >= brk:
		m.Name = NameHeap
	case start <= startStack && end >= startStack:
		m.Name = NameStack
	default:
		m.Name = NameUnknown
	}
	return m
}

// Credentials reads the task's credentials through its real_cred pointer.
// Best effort: unreadable fields stay zero.
func (l *Linux) Credentials(cpu guest.CPU, ts guest.Addr) Creds {
	var c Creds
	cred := guest.ReadPtrOrZero(cpu, ts+guest.Addr(l.ki.Task.RealCredOffset))
	if cred.IsNull() {
		return c
	}
	readU32 := func(off int64) uint32 {
		v, err := guest.ReadU32(cpu, cred+guest.Addr(off))
		if err != nil {
			return 0
		}
		return v
	}
	c.UID = readU32(l.ki.Cred.UIDOffset)
	c.GID = readU32(l.ki.Cred.GIDOffset)
	c.EUID = readU32(l.ki.Cred.EUIDOffset)
	c.EGID = readU32(l.ki.Cred.EGIDOffset)
	return c
}
