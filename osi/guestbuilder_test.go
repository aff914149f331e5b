package osi_test

import (
	"govmi/guest"
	"govmi/guest/snapshot"
	"govmi/kernelinfo"
)

// Synthetic kernel layout used by all osi tests. The offsets are arbitrary
// but internally consistent, the way a real offset table for one build
// would be.
const (
	wordSize = 8

	offTasks       = 0x08
	offPID         = 0x10
	offTGID        = 0x14
	offGroupLeader = 0x18
	offThreadGroup = 0x20
	offRealParent  = 0x28
	offMM          = 0x30
	offRealCred    = 0x38
	offComm        = 0x40
	offFiles       = 0x58

	offMMMmap       = 0x00
	offMMPGD        = 0x08
	offMMStartBrk   = 0x10
	offMMBrk        = 0x18
	offMMStartStack = 0x20

	offVMAMM    = 0x00
	offVMAStart = 0x08
	offVMAEnd   = 0x10
	offVMANext  = 0x18
	offVMAFile  = 0x20

	offFDentry = 0x00
	offFMnt    = 0x08
	offFPos    = 0x10
	offFdt     = 0x18
	offFd      = 0x08

	offDName    = 0x20
	offQstrName = 0x08
	offMntRoot  = 0x10

	offCredUID  = 0x04
	offCredGID  = 0x08
	offCredEUID = 0x14
	offCredEGID = 0x1C
)

const (
	memBase    = guest.Addr(0x80000000)
	memSize    = 0x40000
	pageOffset = guest.Addr(0x40000000)
	stackSP    = memBase + 0xF00 // thread_info sits at memBase
)

func testKI() *kernelinfo.KernelInfo {
	return &kernelinfo.KernelInfo{
		Name:    "synthetic-6.1",
		Version: kernelinfo.Version{A: 6, B: 1, C: 0},
		Task: kernelinfo.TaskInfo{
			TaskOffset:        0,
			TasksOffset:       offTasks,
			NextTaskOffset:    offTasks,
			PIDOffset:         offPID,
			TGIDOffset:        offTGID,
			GroupLeaderOffset: offGroupLeader,
			ThreadGroupOffset: offThreadGroup,
			RealParentOffset:  offRealParent,
			MMOffset:          offMM,
			RealCredOffset:    offRealCred,
			CommOffset:        offComm,
			CommSize:          16,
			FilesOffset:       offFiles,
		},
		Cred: kernelinfo.CredInfo{
			UIDOffset:  offCredUID,
			GIDOffset:  offCredGID,
			EUIDOffset: offCredEUID,
			EGIDOffset: offCredEGID,
		},
		MM: kernelinfo.MMInfo{
			MmapOffset:       offMMMmap,
			PGDOffset:        offMMPGD,
			StartBrkOffset:   offMMStartBrk,
			BrkOffset:        offMMBrk,
			StartStackOffset: offMMStartStack,
		},
		VMA: kernelinfo.VMAInfo{
			VMMMOffset:    offVMAMM,
			VMStartOffset: offVMAStart,
			VMEndOffset:   offVMAEnd,
			VMNextOffset:  offVMANext,
			VMFileOffset:  offVMAFile,
		},
		FS: kernelinfo.FSInfo{
			FDentryOffset: offFDentry,
			FMntOffset:    offFMnt,
			FPosOffset:    offFPos,
			FdtOffset:     offFdt,
			FdOffset:      offFd,
		},
		Qstr: kernelinfo.QstrInfo{NameOffset: offQstrName},
		Path: kernelinfo.PathInfo{
			DNameOffset:   offDName,
			MntRootOffset: offMntRoot,
		},
	}
}

// guestBuilder assembles synthetic kernel structures inside a Buffer.
type guestBuilder struct {
	buf  *snapshot.Buffer
	next guest.Addr
}

func newGuest() *guestBuilder {
	buf := snapshot.NewBuffer(wordSize)
	buf.Map(memBase, make([]byte, memSize))
	buf.SetPageOffset(pageOffset)
	return &guestBuilder{buf: buf, next: memBase + 0x8000}
}

func (g *guestBuilder) alloc(size uint64) guest.Addr {
	a := g.next
	g.next = (g.next + guest.Addr(size) + 0xF) &^ 0xF
	return a
}

// addTask builds a task struct with self-referential leader, parent and
// thread-group links; callers rewire what the test needs.
func (g *guestBuilder) addTask(pid, tgid uint32, name string) guest.Addr {
	ts := g.alloc(0x100)
	g.buf.WriteU32(ts+offPID, pid)
	g.buf.WriteU32(ts+offTGID, tgid)
	g.buf.WriteString(ts+offComm, name)
	g.buf.WritePtr(ts+offGroupLeader, ts)
	g.buf.WritePtr(ts+offRealParent, ts)
	g.buf.WritePtr(ts+offThreadGroup, ts+offThreadGroup)
	return ts
}

// setCurrent wires the thread_info at the stack base to ts and points the
// vCPU stack pointer into that stack.
func (g *guestBuilder) setCurrent(ts guest.Addr) {
	g.buf.WritePtr(memBase, ts)
	g.buf.SetStackPointer(stackSP)
}

// ring links the given tasks into the circular all-process list, in order.
func (g *guestBuilder) ring(tasks ...guest.Addr) {
	for i, ts := range tasks {
		next := tasks[(i+1)%len(tasks)]
		g.buf.WritePtr(ts+offTasks, next+offTasks)
	}
}

// threadGroup links the leader and its siblings into one circular
// thread_group list and points each sibling's group_leader at the leader.
func (g *guestBuilder) threadGroup(leader guest.Addr, siblings ...guest.Addr) {
	nodes := append([]guest.Addr{leader}, siblings...)
	for i, ts := range nodes {
		next := nodes[(i+1)%len(nodes)]
		g.buf.WritePtr(ts+offThreadGroup, next+offThreadGroup)
	}
	for _, s := range siblings {
		g.buf.WritePtr(s+offGroupLeader, leader)
	}
}

// addMM attaches a memory descriptor to the task and returns its address.
func (g *guestBuilder) addMM(ts, pgd, startBrk, brk, startStack guest.Addr) guest.Addr {
	mm := g.alloc(0x40)
	g.buf.WritePtr(ts+offMM, mm)
	g.buf.WritePtr(mm+offMMPGD, pgd)
	g.buf.WritePtr(mm+offMMStartBrk, startBrk)
	g.buf.WritePtr(mm+offMMBrk, brk)
	g.buf.WritePtr(mm+offMMStartStack, startStack)
	return mm
}

// addVMA builds one vm_area_struct; file may be null.
func (g *guestBuilder) addVMA(mm, start, end, file guest.Addr) guest.Addr {
	vma := g.alloc(0x40)
	g.buf.WritePtr(vma+offVMAMM, mm)
	g.buf.WritePtr(vma+offVMAStart, start)
	g.buf.WritePtr(vma+offVMAEnd, end)
	g.buf.WritePtr(vma+offVMAFile, file)
	return vma
}

// vmaList links VMAs circularly and sets the mm's mmap head to the first.
func (g *guestBuilder) vmaList(mm guest.Addr, vmas ...guest.Addr) {
	for i, vma := range vmas {
		g.buf.WritePtr(vma+offVMANext, vmas[(i+1)%len(vmas)])
	}
	g.buf.WritePtr(mm+offMMMmap, vmas[0])
}

// addDentry builds a dentry whose qstr points at the given component name.
func (g *guestBuilder) addDentry(name string) guest.Addr {
	d := g.alloc(0x40)
	str := g.alloc(uint64(len(name) + 1))
	g.buf.WriteString(str, name)
	g.buf.WritePtr(d+offDName+offQstrName, str)
	return d
}

// addMount builds a vfsmount whose root dentry carries the mount fragment.
func (g *guestBuilder) addMount(fragment string) guest.Addr {
	m := g.alloc(0x20)
	g.buf.WritePtr(m+offMntRoot, g.addDentry(fragment))
	return m
}

// addFile builds a file struct resolvable to mountFragment+dentryName.
func (g *guestBuilder) addFile(mountFragment, dentryName string, pos uint64) guest.Addr {
	f := g.alloc(0x20)
	g.buf.WritePtr(f+offFDentry, g.addDentry(dentryName))
	g.buf.WritePtr(f+offFMnt, g.addMount(mountFragment))
	g.buf.WriteU64(f+offFPos, pos)
	return f
}

// addFdTable attaches a files_struct/fdtable pair to the task with the
// given fd slots populated.
func (g *guestBuilder) addFdTable(ts guest.Addr, fds map[int]guest.Addr) {
	maxFd := 0
	for fd := range fds {
		if fd > maxFd {
			maxFd = fd
		}
	}
	files := g.alloc(0x20)
	fdt := g.alloc(0x20)
	array := g.alloc(uint64((maxFd + 1) * wordSize))
	g.buf.WritePtr(ts+offFiles, files)
	g.buf.WritePtr(files+offFdt, fdt)
	g.buf.WritePtr(fdt+offFd, array)
	for fd, file := range fds {
		g.buf.WritePtr(array+guest.Addr(fd*wordSize), file)
	}
}

// addCreds attaches a cred struct to the task.
func (g *guestBuilder) addCreds(ts guest.Addr, uid, gid, euid, egid uint32) {
	cred := g.alloc(0x40)
	g.buf.WritePtr(ts+offRealCred, cred)
	g.buf.WriteU32(cred+offCredUID, uid)
	g.buf.WriteU32(cred+offCredGID, gid)
	g.buf.WriteU32(cred+offCredEUID, euid)
	g.buf.WriteU32(cred+offCredEGID, egid)
}
