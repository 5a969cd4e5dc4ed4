package fdtable

import (
	"sort"
	"sync"

	"golang.org/x/sys/unix"
)

// DefaultLimit is the descriptor limit used when none is configured.
const DefaultLimit = 1024

// Table maps small integer descriptors to resources.
type Table struct {
	mu      sync.RWMutex
	entries map[int]Entry
	limit   int
}

// New creates an empty table holding at most limit descriptors.
func New(limit int) *Table {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Table{
		entries: make(map[int]Entry),
		limit:   limit,
	}
}

// Add installs file at the lowest free descriptor.
func (t *Table) Add(kind Kind, file File, flags Flags) (int, error) {
	if file == nil {
		return -1, unix.EINVAL
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for fd := 0; fd < t.limit; fd++ {
		if _, used := t.entries[fd]; !used {
			t.entries[fd] = Entry{Kind: kind, File: file, Flags: flags}
			return fd, nil
		}
	}
	return -1, unix.EMFILE
}

// Entry resolves fd to its tagged entry.
func (t *Table) Entry(fd int) (Entry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.entries[fd]
	if !ok {
		return Entry{}, unix.EBADF
	}
	return e, nil
}

// Get resolves fd to its resource.
func (t *Table) Get(fd int) (File, error) {
	e, err := t.Entry(fd)
	if err != nil {
		return nil, err
	}
	return e.File, nil
}

// Contains reports whether fd is allocated.
func (t *Table) Contains(fd int) bool {
	_, err := t.Entry(fd)
	return err == nil
}

// SetFlags replaces the descriptor flags of fd.
func (t *Table) SetFlags(fd int, flags Flags) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[fd]
	if !ok {
		return unix.EBADF
	}
	e.Flags = flags
	t.entries[fd] = e
	return nil
}

// Remove releases fd and returns the resource it held. Closing the resource
// is the caller's job.
func (t *Table) Remove(fd int) (File, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[fd]
	if !ok {
		return nil, unix.EBADF
	}
	delete(t.entries, fd)
	return e.File, nil
}

// Drain releases every descriptor and returns the entries in fd order.
func (t *Table) Drain() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	fds := make([]int, 0, len(t.entries))
	for fd := range t.entries {
		fds = append(fds, fd)
	}
	sort.Ints(fds)

	out := make([]Entry, 0, len(fds))
	for _, fd := range fds {
		out = append(out, t.entries[fd])
	}
	t.entries = make(map[int]Entry)
	return out
}

// FDs returns the allocated descriptors in ascending order.
func (t *Table) FDs() []int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	fds := make([]int, 0, len(t.entries))
	for fd := range t.entries {
		fds = append(fds, fd)
	}
	sort.Ints(fds)
	return fds
}

// Len returns the number of allocated descriptors.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Limit returns the maximum number of descriptors.
func (t *Table) Limit() int {
	return t.limit
}
