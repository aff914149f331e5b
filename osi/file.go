package osi

import (
	"fmt"
	"strings"

	"govmi/guest"
)

// maxPathComponent bounds any single name read from a dentry or mount.
const maxPathComponent = 256

// maxFd bounds descriptor numbers before indexing the fd table, matching the
// kernel's default fs.nr_open ceiling. Larger values would overflow the slot
// arithmetic anyway.
const maxFd = 1 << 20

// dentryName reads a dentry's component name through its qstr.
func (l *Linux) dentryName(cpu guest.CPU, dentry guest.Addr) string {
	namePtr := guest.ReadPtrOrZero(cpu, dentry+guest.Addr(l.ki.Path.DNameOffset+l.ki.Qstr.NameOffset))
	if namePtr.IsNull() {
		return ""
	}
	name, err := guest.ReadString(cpu, namePtr, maxPathComponent)
	if err != nil {
		return ""
	}
	return name
}

// vfsmountName reads the mount's root-relative name via its root dentry.
func (l *Linux) vfsmountName(cpu guest.CPU, mnt guest.Addr) string {
	root := guest.ReadPtrOrZero(cpu, mnt+guest.Addr(l.ki.Path.MntRootOffset))
	if root.IsNull() {
		return ""
	}
	return l.dentryName(cpu, root)
}

// fileName resolves a file struct to its pathname by concatenating the
// mount fragment with the dentry's component name. The mount fragment is
// expected to already end, and the dentry fragment to already begin, with
// the right separators; this is a best-effort reconstruction aimed at
// process and module identification, not a full parent-dentry walk.
func (l *Linux) fileName(cpu guest.CPU, file guest.Addr) (string, error) {
	dentry := l.fileDentry(cpu, file)
	mnt := l.fileMnt(cpu, file)
	if dentry.IsNull() || mnt.IsNull() {
		l.log.Debugln("Failure resolving file struct", dentry.String(), mnt.String())
		return "", ErrUnresolvedFile
	}
	return l.vfsmountName(cpu, mnt) + l.dentryName(cpu, dentry), nil
}

// fdFile indexes the task's fd table. The table is a flat array of file
// struct pointers; the fd'th slot sits fd pointer-widths in.
func (l *Linux) fdFile(cpu guest.CPU, ts guest.Addr, fd int) guest.Addr {
	if fd < 0 || fd > maxFd {
		return 0
	}
	files := l.taskFiles(cpu, ts)
	if files.IsNull() {
		return 0
	}
	fds := l.prof.FileFds(cpu, files)
	if fds.IsNull() {
		return 0
	}
	slot := fds + guest.Addr(fd*cpu.WordSize())
	return guest.ReadPtrOrZero(cpu, slot)
}

// FdName resolves the pathname backing an open file descriptor of the given
// task. A closed or invalid descriptor yields ErrUnresolvedFd; a descriptor
// whose file object resolves to an empty name yields ErrEmptyPath, which
// signals a malformed file object rather than an absent descriptor.
func (l *Linux) FdName(cpu guest.CPU, ts guest.Addr, fd int) (string, error) {
	if ts.IsNull() {
		return "", fmt.Errorf("fd %d: %w", fd, ErrUnresolvedFd)
	}
	file := l.fdFile(cpu, ts, fd)
	if file.IsNull() {
		return "", fmt.Errorf("fd %d: %w", fd, ErrUnresolvedFd)
	}
	name, err := l.fileName(cpu, file)
	if err != nil {
		return "", fmt.Errorf("fd %d: %w", fd, err)
	}
	name = strings.TrimLeft(name, " \t\r\n")
	if name == "" {
		return "", fmt.Errorf("fd %d: %w", fd, ErrEmptyPath)
	}
	return name, nil
}

// FdPos returns the stored file position of an open file descriptor.
func (l *Linux) FdPos(cpu guest.CPU, ts guest.Addr, fd int) (uint64, error) {
	if ts.IsNull() {
		return 0, fmt.Errorf("fd %d: %w", fd, ErrUnresolvedFd)
	}
	file := l.fdFile(cpu, ts, fd)
	if file.IsNull() {
		return 0, fmt.Errorf("fd %d: %w", fd, ErrUnresolvedFd)
	}
	pos, err := l.filePos(cpu, file)
	if err != nil {
		return 0, fmt.Errorf("fd %d position: %w", fd, err)
	}
	return pos, nil
}
