// Package osi reconstructs a Linux guest's process, thread and module lists
// by walking the kernel's in-memory task and VMA structures from outside the
// guest. Structure layout comes from an externally loaded offset table; the
// traversal code itself is layout-agnostic.
package osi

import (
	"govmi/kernelinfo"
	"govmi/profile"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// DefaultMaxTasks bounds every list traversal. The guest can mutate (or
// corrupt) its lists mid-walk, so termination must not depend on them being
// well formed.
const DefaultMaxTasks = 4096

// Linux is an introspection session for one guest. The offset table and the
// selected kernel profile are read-only for the session's lifetime, so a
// Linux value takes no locks.
type Linux struct {
	ki   *kernelinfo.KernelInfo
	prof profile.KernelProfile
	log  *logger.Logger

	// MaxTasks caps the number of elements any single traversal may
	// append before failing with ErrTraversalLimit.
	MaxTasks int

	// ListFromInit roots process walks at the configured init task address
	// instead of the vCPU's current task.
	ListFromInit bool
}

// New creates a session for the given offset table. The kernel profile is
// selected here, once, from the table's version triple.
func New(ki *kernelinfo.KernelInfo) *Linux {
	l := &Linux{
		ki:       ki,
		prof:     profile.Select(ki),
		log:      logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "osi-linux")),
		MaxTasks: DefaultMaxTasks,
	}
	l.log.Infoln("Using kernel profile", l.prof.Name(), "for", ki.Name)
	return l
}

// Profile returns the kernel profile selected for this session.
func (l *Linux) Profile() profile.KernelProfile {
	return l.prof
}

// KernelInfo returns the session's offset table.
func (l *Linux) KernelInfo() *kernelinfo.KernelInfo {
	return l.ki
}
