package osi

import (
	"govmi/guest"
)

// Modules enumerates the memory mappings of a process. Every mapped area is
// returned, including anonymous ones; libraries with several mappings appear
// once per mapping.
//
// A process with no recorded mappings yields an empty list, not an error.
// The walk follows the same rules as the task list: a null link partway
// through discards the whole enumeration, and MaxTasks bounds the element
// count.
func (l *Linux) Modules(cpu guest.CPU, h Handle) ([]Module, error) {
	first := l.firstVMA(cpu, h.TaskAddr)
	if first.IsNull() {
		return []Module{}, nil
	}

	mods := make([]Module, 0, 128)
	cur := first
	for {
		if len(mods) >= l.MaxTasks {
			l.log.Warn("VMA list exceeded ", l.MaxTasks, " elements, aborting walk")
			return nil, ErrTraversalLimit
		}
		mods = append(mods, l.fillModule(cpu, cur))

		cur = l.vmaNext(cpu, cur)
		if cur.IsNull() {
			return nil, ErrMemoryRead
		}
		if cur == first {
			return mods, nil
		}
	}
}
