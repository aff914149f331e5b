package osi

import (
	"govmi/guest"
)

// Proc describes one guest process, represented by its thread-group leader
// task. Modules is left nil by the enumerators; callers populate it lazily
// via Modules() when needed.
type Proc struct {
	TaskAddr guest.Addr // task_struct address, opaque handle
	ASID     guest.Addr // physical address of the page directory
	PID      uint32     // thread-group id
	PPID     uint32     // real parent's pid
	Name     string     // comm
	Modules  []Module
}

// Handle is a lightweight reference to a process, enough to re-identify it
// without re-walking the task list.
type Handle struct {
	TaskAddr guest.Addr
	ASID     guest.Addr
}

// Thread describes one guest thread.
type Thread struct {
	TID uint32 // raw per-task id
	PID uint32 // owning thread-group id
}

// Module describes one memory mapping of a process. File is empty for
// anonymous mappings; Name is then one of the synthesized labels.
type Module struct {
	VMAAddr guest.Addr
	Base    guest.Addr
	Size    uint64
	File    string
	Name    string
}

// Creds holds the credentials read through the task's real_cred pointer.
type Creds struct {
	UID  uint32
	GID  uint32
	EUID uint32
	EGID uint32
}

// Anonymous mapping labels, matching what the guest itself would show in
// /proc/pid/maps.
const (
	NameHeap    = "[heap]"
	NameStack   = "[stack]"
	NameUnknown = "[???]"
)
