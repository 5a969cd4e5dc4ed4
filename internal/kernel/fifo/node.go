package fifo

import (
	"io/fs"
	"path"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Attr mirrors the attributes a filesystem reports for a FIFO node.
type Attr struct {
	Ino  uint64      `json:"ino"`
	Mode fs.FileMode `json:"mode"`
	Size int64       `json:"size"`
}

// IsFifo reports whether the attributes describe a named pipe.
func (a Attr) IsFifo() bool {
	return a.Mode&fs.ModeNamedPipe != 0
}

// Node is a named pipe as it appears in a filesystem. Every open of the node
// shares the same Fifo.
type Node struct {
	ino  uint64
	perm fs.FileMode
	fifo *Fifo
}

// NewNode creates a FIFO node with its own pipe buffer.
func NewNode(ino uint64, perm fs.FileMode, capacity int) *Node {
	f := New(capacity)
	f.ino = ino
	return &Node{ino: ino, perm: perm.Perm(), fifo: f}
}

// Attr returns the node attributes. FIFOs always report size 0.
func (n *Node) Attr() Attr {
	return Attr{Ino: n.ino, Mode: fs.ModeNamedPipe | n.perm}
}

// Fifo returns the pipe behind the node.
func (n *Node) Fifo() *Fifo {
	return n.fifo
}

// Open opens one end of the node according to open(2) flags. O_RDWR is
// rejected: a single endpoint carries exactly one direction.
func (n *Node) Open(flags int) (*Endpoint, error) {
	nonBlocking := flags&unix.O_NONBLOCK != 0
	switch flags & unix.O_ACCMODE {
	case unix.O_RDONLY:
		return n.fifo.OpenRead(nonBlocking)
	case unix.O_WRONLY:
		return n.fifo.OpenWrite(nonBlocking)
	default:
		return nil, unix.EINVAL
	}
}

// HasReaders reports whether any reader endpoint is open.
func (n *Node) HasReaders() bool {
	return n.fifo.Readers() > 0
}

// ReadAt reads from the pipe, blocking like a reader endpoint would. The
// offset is ignored.
func (n *Node) ReadAt(p []byte, _ int64) (int, error) {
	return n.fifo.read(p, false)
}

// WriteAt writes to the pipe, blocking like a writer endpoint would. The
// offset is ignored.
func (n *Node) WriteAt(p []byte, _ int64) (int, error) {
	return n.fifo.write(p, false)
}

// Truncate is a no-op on a FIFO.
func (n *Node) Truncate(int64) error {
	return nil
}

// Namespace is a flat table of named FIFOs keyed by absolute path.
type Namespace struct {
	mu       sync.RWMutex
	nodes    map[string]*Node
	nextIno  atomic.Uint64
	capacity int
}

// NewNamespace creates an empty namespace whose FIFOs use the given buffer
// capacity.
func NewNamespace(capacity int) *Namespace {
	return &Namespace{
		nodes:    make(map[string]*Node),
		capacity: capacity,
	}
}

func cleanPath(p string) (string, error) {
	if p == "" {
		return "", unix.ENOENT
	}
	if !path.IsAbs(p) {
		return "", unix.EINVAL
	}
	return path.Clean(p), nil
}

// Mkfifo creates a named pipe at p.
func (ns *Namespace) Mkfifo(p string, perm fs.FileMode) (*Node, error) {
	p, err := cleanPath(p)
	if err != nil {
		return nil, err
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()

	if _, exists := ns.nodes[p]; exists {
		return nil, unix.EEXIST
	}
	node := NewNode(ns.nextIno.Add(1), perm, ns.capacity)
	ns.nodes[p] = node
	return node, nil
}

// Lookup resolves p to its node.
func (ns *Namespace) Lookup(p string) (*Node, error) {
	p, err := cleanPath(p)
	if err != nil {
		return nil, err
	}

	ns.mu.RLock()
	defer ns.mu.RUnlock()

	node, ok := ns.nodes[p]
	if !ok {
		return nil, unix.ENOENT
	}
	return node, nil
}

// Unlink removes the name. Endpoints already open keep working.
func (ns *Namespace) Unlink(p string) error {
	p, err := cleanPath(p)
	if err != nil {
		return err
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()

	if _, ok := ns.nodes[p]; !ok {
		return unix.ENOENT
	}
	delete(ns.nodes, p)
	return nil
}

// Paths returns every registered path in sorted order.
func (ns *Namespace) Paths() []string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	paths := make([]string, 0, len(ns.nodes))
	for p := range ns.nodes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of named FIFOs.
func (ns *Namespace) Len() int {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return len(ns.nodes)
}
