package osi

import (
	"govmi/guest"
)

// Dispatcher fans enumeration results out to subscribers, one independently
// subscribable operation per query. Subscribers only ever see complete
// results: a failed enumeration invokes nobody.
//
// Registration happens before the session starts publishing; Dispatcher
// itself takes no locks.
type Dispatcher struct {
	linux *Linux

	onProcesses      []func([]Proc)
	onProcessHandles []func([]Handle)
	onCurrentProcess []func(*Proc)
	onModules        []func(Handle, []Module)
	onCurrentThread  []func(*Thread)
}

// NewDispatcher creates a Dispatcher over an introspection session.
func NewDispatcher(l *Linux) *Dispatcher {
	return &Dispatcher{linux: l}
}

// Linux returns the underlying session, for direct queries.
func (d *Dispatcher) Linux() *Linux {
	return d.linux
}

func (d *Dispatcher) OnProcesses(fn func([]Proc)) {
	d.onProcesses = append(d.onProcesses, fn)
}

func (d *Dispatcher) OnProcessHandles(fn func([]Handle)) {
	d.onProcessHandles = append(d.onProcessHandles, fn)
}

func (d *Dispatcher) OnCurrentProcess(fn func(*Proc)) {
	d.onCurrentProcess = append(d.onCurrentProcess, fn)
}

func (d *Dispatcher) OnModules(fn func(Handle, []Module)) {
	d.onModules = append(d.onModules, fn)
}

func (d *Dispatcher) OnCurrentThread(fn func(*Thread)) {
	d.onCurrentThread = append(d.onCurrentThread, fn)
}

// PublishProcesses enumerates the process list and hands it to subscribers.
func (d *Dispatcher) PublishProcesses(cpu guest.CPU) error {
	procs, err := d.linux.Processes(cpu)
	if err != nil {
		return err
	}
	for _, fn := range d.onProcesses {
		fn(procs)
	}
	return nil
}

// PublishProcessHandles enumerates process handles and hands them to
// subscribers.
func (d *Dispatcher) PublishProcessHandles(cpu guest.CPU) error {
	handles, err := d.linux.ProcessHandles(cpu)
	if err != nil {
		return err
	}
	for _, fn := range d.onProcessHandles {
		fn(handles)
	}
	return nil
}

// PublishCurrentProcess resolves the current process and hands it to
// subscribers.
func (d *Dispatcher) PublishCurrentProcess(cpu guest.CPU) error {
	p, err := d.linux.CurrentProcess(cpu)
	if err != nil {
		return err
	}
	for _, fn := range d.onCurrentProcess {
		fn(p)
	}
	return nil
}

// PublishModules enumerates a process's modules and hands them to
// subscribers.
func (d *Dispatcher) PublishModules(cpu guest.CPU, h Handle) error {
	mods, err := d.linux.Modules(cpu, h)
	if err != nil {
		return err
	}
	for _, fn := range d.onModules {
		fn(h, mods)
	}
	return nil
}

// PublishCurrentThread resolves the current thread and hands it to
// subscribers.
func (d *Dispatcher) PublishCurrentThread(cpu guest.CPU) error {
	t, err := d.linux.CurrentThread(cpu)
	if err != nil {
		return err
	}
	for _, fn := range d.onCurrentThread {
		fn(t)
	}
	return nil
}
