package fifo

import (
	"io/fs"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/GriffinCanCode/AgentOS/ipcd/internal/kernel/fdtable"
)

// Endpoint is one directional open handle onto a Fifo.
type Endpoint struct {
	fifo        *Fifo
	reader      bool
	nonBlocking atomic.Bool
	closed      atomic.Bool
}

var _ fdtable.File = (*Endpoint)(nil)

func newEndpoint(f *Fifo, reader, nonBlocking bool) *Endpoint {
	e := &Endpoint{fifo: f, reader: reader}
	e.nonBlocking.Store(nonBlocking)
	return e
}

// IsReader reports whether this is the read end.
func (e *Endpoint) IsReader() bool {
	return e.reader
}

// NonBlocking reports the current blocking mode.
func (e *Endpoint) NonBlocking() bool {
	return e.nonBlocking.Load()
}

// Fifo returns the shared pipe.
func (e *Endpoint) Fifo() *Fifo {
	return e.fifo
}

// Read drains buffered bytes into p.
func (e *Endpoint) Read(p []byte) (int, error) {
	if !e.reader {
		return 0, unix.EPERM
	}
	if e.closed.Load() {
		return 0, unix.EBADF
	}
	return e.fifo.read(p, e.nonBlocking.Load())
}

// TryRead is Read that never waits, whatever the endpoint's mode. An empty
// pipe with writers gives unix.EAGAIN.
func (e *Endpoint) TryRead(p []byte) (int, error) {
	if !e.reader {
		return 0, unix.EPERM
	}
	if e.closed.Load() {
		return 0, unix.EBADF
	}
	return e.fifo.read(p, true)
}

// Write appends p to the pipe.
func (e *Endpoint) Write(p []byte) (int, error) {
	if e.reader {
		return 0, unix.EPERM
	}
	if e.closed.Load() {
		return 0, unix.EBADF
	}
	return e.fifo.write(p, e.nonBlocking.Load())
}

// Poll reports readiness for this endpoint's direction.
func (e *Endpoint) Poll() (fdtable.PollState, error) {
	if e.closed.Load() {
		return fdtable.PollState{}, unix.EBADF
	}

	readable, writable := e.fifo.available()
	if e.reader {
		return fdtable.PollState{
			Readable: readable > 0,
			HungUp:   e.fifo.Writers() == 0,
		}, nil
	}
	return fdtable.PollState{
		Writable: writable > 0,
		Errored:  e.fifo.Readers() == 0,
	}, nil
}

// SetNonblocking switches between blocking and non-blocking transfers.
func (e *Endpoint) SetNonblocking(nonBlocking bool) error {
	if e.closed.Load() {
		return unix.EBADF
	}
	e.nonBlocking.Store(nonBlocking)
	return nil
}

// Stat describes the endpoint as a named pipe.
func (e *Endpoint) Stat() (fdtable.Stat, error) {
	if e.closed.Load() {
		return fdtable.Stat{}, unix.EBADF
	}
	buffered, _ := e.fifo.available()
	return fdtable.Stat{
		Ino:  e.fifo.ino,
		Mode: fs.ModeNamedPipe | 0o600,
		Size: int64(buffered),
	}, nil
}

// Close releases this endpoint's hold on the pipe. Closing twice is a no-op.
func (e *Endpoint) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.fifo.release(e.reader)
	return nil
}
