package fdtable

import "io/fs"

// PollState is a snapshot of a resource's readiness.
type PollState struct {
	Readable bool
	Writable bool
	HungUp   bool
	Errored  bool
}

// File is the capability contract for descriptors.
type File interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	// Poll reports current readiness without blocking. It fails once the
	// resource no longer exists.
	Poll() (PollState, error)
	SetNonblocking(nonBlocking bool) error
	Close() error
}

// Stat describes a descriptor for introspection.
type Stat struct {
	Ino  uint64
	Mode fs.FileMode
	Size int64
}

// Statter is implemented by resources that can describe themselves.
type Statter interface {
	Stat() (Stat, error)
}

// Kind tags what kind of resource an entry holds.
type Kind int

const (
	KindFile Kind = iota
	KindFifo
	KindEpoll
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindFifo:
		return "fifo"
	case KindEpoll:
		return "epoll"
	default:
		return "unknown"
	}
}

// Flags are per-descriptor flags.
type Flags uint32

const (
	FlagCloseOnExec Flags = 1 << iota
)

// Entry is one slot of the table.
type Entry struct {
	Kind  Kind
	File  File
	Flags Flags
}
