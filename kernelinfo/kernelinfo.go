// Package kernelinfo holds the per-kernel-build offset table used to walk
// guest kernel structures. The table is loaded once from a grouped config
// file and is immutable afterwards.
package kernelinfo

import (
	"govmi/guest"
)

// Version is the guest kernel version triple.
type Version struct {
	A int
	B int
	C int
}

// Code packs the triple the way the kernel's KERNEL_VERSION macro does,
// so versions compare as plain integers.
func (v Version) Code() int {
	return VersionCode(v.A, v.B, v.C)
}

// VersionCode packs a kernel version triple into a comparable integer.
func VersionCode(a, b, c int) int {
	return (a << 16) + (b << 8) + c
}

// TaskInfo holds offsets into struct task_struct.
type TaskInfo struct {
	InitAddr guest.Addr // address of the init task, for init-rooted walks
	Size     uint64

	// TaskOffset locates the task_struct pointer inside thread_info.
	TaskOffset int64

	// TasksOffset is the circular doubly linked list field on modern
	// kernels. On the 2.4 series the same slot holds the flat next_task
	// pointer instead.
	TasksOffset    int64
	NextTaskOffset int64

	PIDOffset         int64
	TGIDOffset        int64
	GroupLeaderOffset int64
	ThreadGroupOffset int64
	RealParentOffset  int64
	ParentOffset      int64
	MMOffset          int64
	StackOffset       int64
	RealCredOffset    int64
	CredOffset        int64
	CommOffset        int64
	CommSize          uint64
	FilesOffset       int64
}

// CredInfo holds offsets into struct cred.
type CredInfo struct {
	UIDOffset  int64
	GIDOffset  int64
	EUIDOffset int64
	EGIDOffset int64
}

// MMInfo holds offsets into struct mm_struct.
type MMInfo struct {
	Size             uint64
	MmapOffset       int64
	PGDOffset        int64
	ArgStartOffset   int64
	StartBrkOffset   int64
	BrkOffset        int64
	StartStackOffset int64
}

// VMAInfo holds offsets into struct vm_area_struct.
type VMAInfo struct {
	Size          uint64
	VMMMOffset    int64
	VMStartOffset int64
	VMEndOffset   int64
	VMNextOffset  int64
	VMFileOffset  int64
	VMFlagsOffset int64
}

// FSInfo holds offsets into struct file and struct files_struct. On old
// kernels the dentry/vfsmount fields live directly in struct file; on
// modern ones they sit inside the embedded struct path. Both spellings
// land in the same slots here.
type FSInfo struct {
	FDentryOffset int64
	FMntOffset    int64
	FPosOffset    int64
	FdtOffset     int64
	FdtabOffset   int64
	FdOffset      int64
}

// QstrInfo holds layout of struct qstr.
type QstrInfo struct {
	Size       uint64
	NameOffset int64
}

// PathInfo holds offsets into struct dentry and struct vfsmount.
type PathInfo struct {
	DNameOffset         int64
	DINameOffset        int64
	DParentOffset       int64
	DOpOffset           int64
	DDnameOffset        int64
	MntRootOffset       int64
	MntParentOffset     int64
	MntMountpointOffset int64
}

// KernelInfo is the offset table for one kernel build. Zero is a legal
// offset, so presence of each field is tracked separately; use Supplied
// to tell a configured zero from an absent key.
type KernelInfo struct {
	Name    string
	Version Version
	Task    TaskInfo
	Cred    CredInfo
	MM      MMInfo
	VMA     VMAInfo
	FS      FSInfo
	Qstr    QstrInfo
	Path    PathInfo

	supplied map[string]bool
}

// Supplied reports whether the named config key was present in the source.
func (ki *KernelInfo) Supplied(key string) bool {
	return ki.supplied[key]
}
