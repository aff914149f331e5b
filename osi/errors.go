package osi

import "errors"

var (
	// ErrNoCurrentTask is returned when the profile cannot produce a valid
	// starting task for a traversal.
	ErrNoCurrentTask = errors.New("no current task")

	// ErrMemoryRead is returned when a link read fails partway through a
	// traversal. The whole enumeration is discarded; no partial list is
	// ever surfaced.
	ErrMemoryRead = errors.New("guest memory read failed during traversal")

	// ErrTraversalLimit is returned when a walk exceeds the safety bound
	// without re-converging on its starting address.
	ErrTraversalLimit = errors.New("traversal element limit exceeded")

	// ErrProcessNotFound is returned by name lookup when no process matches.
	ErrProcessNotFound = errors.New("no process with that name")

	// ErrUnresolvedFile is returned when a file struct has a null dentry or
	// vfsmount and its path cannot be reconstructed. Expected for files
	// caught mid-setup; callers degrade the single field.
	ErrUnresolvedFile = errors.New("file struct not resolvable")

	// ErrUnresolvedFd is returned for a closed or invalid file descriptor.
	ErrUnresolvedFd = errors.New("fd not open")

	// ErrEmptyPath is returned when an fd resolved to an empty pathname,
	// meaning a malformed file object rather than a closed descriptor.
	ErrEmptyPath = errors.New("fd resolved to empty path")
)
