package osi

import (
	"govmi/guest"
)

// walkTasks enumerates the all-process task list, invoking visit once per
// task. When listThreads is set, each leader's circular thread_group sublist
// is walked as well.
//
// The walk starts just past the thread-group leader of the current task;
// starting exactly at the current task can loop forever depending on guest
// data races. It ends when it re-converges on the starting address. A null
// link partway through means a failed read and discards the whole walk, and
// MaxTasks bounds the element count so corrupted lists that never
// re-converge cannot hang the caller.
func (l *Linux) walkTasks(cpu guest.CPU, listThreads bool, visit func(ts guest.Addr)) error {
	var first guest.Addr
	if l.ListFromInit && !l.ki.Task.InitAddr.IsNull() {
		first = l.ki.Task.InitAddr
	} else {
		cur := l.prof.CurrentTask(cpu)
		if cur.IsNull() {
			return ErrNoCurrentTask
		}
		cur = l.prof.GroupLeader(cpu, cur)
		if cur.IsNull() {
			return ErrNoCurrentTask
		}
		first = l.prof.NextTask(cpu, cur)
	}
	if first.IsNull() {
		return ErrNoCurrentTask
	}

	count := 0
	appendTask := func(ts guest.Addr) error {
		count++
		if count > l.MaxTasks {
			l.log.Warn("Task list exceeded ", l.MaxTasks, " elements, aborting walk")
			return ErrTraversalLimit
		}
		visit(ts)
		return nil
	}

	tgOffset := guest.Addr(l.ki.Task.ThreadGroupOffset)
	cur := first
	for {
		if err := appendTask(cur); err != nil {
			return err
		}

		if listThreads {
			// The thread_group list is circular, not null terminated: the
			// sub-walk ends when it returns to the leader's own anchor.
			anchor := cur + tgOffset
			node := l.threadGroupNext(cpu, cur)
			for node != anchor {
				if node.IsNull() {
					return ErrMemoryRead
				}
				cur = node - tgOffset
				if err := appendTask(cur); err != nil {
					return err
				}
				node = l.threadGroupNext(cpu, cur)
			}
			cur = anchor - tgOffset
		}

		cur = l.prof.NextTask(cpu, cur)
		if cur.IsNull() {
			return ErrMemoryRead
		}
		if cur == first {
			return nil
		}
	}
}

// Processes enumerates the guest's process list. The result is either
// complete or nil; a traversal failure never surfaces a truncated list.
func (l *Linux) Processes(cpu guest.CPU) ([]Proc, error) {
	procs := make([]Proc, 0, 128)
	err := l.walkTasks(cpu, false, func(ts guest.Addr) {
		procs = append(procs, l.fillProc(cpu, ts))
	})
	if err != nil {
		return nil, err
	}
	return procs, nil
}

// ProcessHandles enumerates lightweight handles for the guest's processes.
func (l *Linux) ProcessHandles(cpu guest.CPU) ([]Handle, error) {
	handles := make([]Handle, 0, 128)
	err := l.walkTasks(cpu, false, func(ts guest.Addr) {
		handles = append(handles, l.fillHandle(cpu, ts))
	})
	if err != nil {
		return nil, err
	}
	return handles, nil
}

// Threads enumerates every task in the guest, including each process's
// thread-group siblings.
func (l *Linux) Threads(cpu guest.CPU) ([]Thread, error) {
	threads := make([]Thread, 0, 128)
	err := l.walkTasks(cpu, true, func(ts guest.Addr) {
		threads = append(threads, l.fillThread(cpu, ts))
	})
	if err != nil {
		return nil, err
	}
	return threads, nil
}

// CurrentProcess describes the process owning the task currently running on
// the vCPU.
func (l *Linux) CurrentProcess(cpu guest.CPU) (*Proc, error) {
	ts := l.prof.CurrentTask(cpu)
	if ts.IsNull() {
		return nil, ErrNoCurrentTask
	}
	p := l.fillProc(cpu, ts)
	return &p, nil
}

// ProcessByHandle re-materializes a full process record from a handle
// obtained earlier, without re-walking the task list.
func (l *Linux) ProcessByHandle(cpu guest.CPU, h Handle) (*Proc, error) {
	if h.TaskAddr.IsNull() {
		return nil, ErrNoCurrentTask
	}
	p := l.fillProc(cpu, h.TaskAddr)
	return &p, nil
}

// ProcessByName returns the first process whose name matches exactly.
func (l *Linux) ProcessByName(cpu guest.CPU, name string) (*Proc, error) {
	procs, err := l.Processes(cpu)
	if err != nil {
		return nil, err
	}
	for i := range procs {
		if procs[i].Name == name {
			return &procs[i], nil
		}
	}
	return nil, ErrProcessNotFound
}

// CurrentThread describes the task currently running on the vCPU.
func (l *Linux) CurrentThread(cpu guest.CPU) (*Thread, error) {
	ts := l.prof.CurrentTask(cpu)
	if ts.IsNull() {
		return nil, ErrNoCurrentTask
	}
	t := l.fillThread(cpu, ts)
	return &t, nil
}
