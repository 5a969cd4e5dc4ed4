/*
Package fdtable defines the capability contract every kernel-visible resource
implements and the per-process table that maps descriptors to resources.

# Overview

A descriptor resolves to a tagged Entry: the Kind tells callers what sits
behind the File without inspecting its dynamic type. The table owns the
identifier space; resources own their own state and locking.

# Usage

	table := fdtable.New(1024)
	fd, err := table.Add(fdtable.KindFifo, endpoint, 0)
	f, err := table.Get(fd)   // unix.EBADF if fd is unknown
	f, err = table.Remove(fd) // caller closes f

# Errors

All errors are golang.org/x/sys/unix Errno values so they can be surfaced at
the syscall boundary unchanged.
*/
package fdtable
