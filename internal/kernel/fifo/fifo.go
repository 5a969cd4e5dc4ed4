package fifo

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/GriffinCanCode/AgentOS/ipcd/internal/kernel/ringbuf"
	"github.com/GriffinCanCode/AgentOS/ipcd/internal/kernel/sched"
)

// Fifo is the state shared by every endpoint of one pipe.
type Fifo struct {
	mu  sync.Mutex
	buf *ringbuf.RingBuffer

	readers atomic.Int64
	writers atomic.Int64

	// Bumped on every open so a blocked opener notices a peer that came
	// and went while it was parked.
	readerGen atomic.Uint64
	writerGen atomic.Uint64

	readQueue  sched.WaitQueue
	writeQueue sched.WaitQueue

	ino uint64
}

// Stats is a point-in-time view of a Fifo.
type Stats struct {
	Capacity       int `json:"capacity"`
	Buffered       int `json:"buffered"`
	Readers        int `json:"readers"`
	Writers        int `json:"writers"`
	BlockedReaders int `json:"blocked_readers"`
	BlockedWriters int `json:"blocked_writers"`
}

// New creates a Fifo with no endpoints. A non-positive capacity selects
// ringbuf.DefaultCapacity.
func New(capacity int) *Fifo {
	return &Fifo{buf: ringbuf.New(capacity)}
}

// OpenRead opens a reader endpoint.
func (f *Fifo) OpenRead(nonBlocking bool) (*Endpoint, error) {
	return f.open(true, nonBlocking)
}

// OpenWrite opens a writer endpoint.
func (f *Fifo) OpenWrite(nonBlocking bool) (*Endpoint, error) {
	return f.open(false, nonBlocking)
}

func (f *Fifo) open(reader, nonBlocking bool) (*Endpoint, error) {
	own, peer := &f.readers, &f.writers
	ownGen, peerGen := &f.readerGen, &f.writerGen
	waitQ, peerQ := &f.readQueue, &f.writeQueue
	if !reader {
		own, peer = peer, own
		ownGen, peerGen = peerGen, ownGen
		waitQ, peerQ = peerQ, waitQ
	}

	if nonBlocking && peer.Load() == 0 {
		return nil, unix.ENXIO
	}

	// Count ourselves before waiting so two blocking openers on opposite
	// ends find each other instead of both parking forever.
	start := peerGen.Load()
	own.Add(1)
	ownGen.Add(1)
	peerQ.NotifyAll()

	for {
		t := waitQ.Prepare()
		if peer.Load() > 0 || peerGen.Load() != start {
			break
		}
		t.Wait()
	}

	return newEndpoint(f, reader, nonBlocking), nil
}

// openPair opens both ends at once, as pipe(2) does.
func (f *Fifo) openPair(nonBlocking bool) (*Endpoint, *Endpoint) {
	f.readers.Add(1)
	f.readerGen.Add(1)
	f.writers.Add(1)
	f.writerGen.Add(1)

	return newEndpoint(f, true, nonBlocking), newEndpoint(f, false, nonBlocking)
}

// read drains buffered bytes into p, waiting for data unless nonBlocking.
func (f *Fifo) read(p []byte, nonBlocking bool) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	f.mu.Lock()
	for {
		t := f.readQueue.Prepare()
		if f.buf.AvailableRead() > 0 {
			n := f.buf.Read(p)
			f.mu.Unlock()
			f.writeQueue.NotifyAll()
			return n, nil
		}
		if f.writers.Load() == 0 {
			f.mu.Unlock()
			return 0, nil
		}
		if nonBlocking {
			f.mu.Unlock()
			return 0, unix.EAGAIN
		}

		f.mu.Unlock()
		t.Wait()
		f.mu.Lock()
	}
}

// write transfers p into the buffer, waiting for space unless nonBlocking.
func (f *Fifo) write(p []byte, nonBlocking bool) (int, error) {
	written := 0

	f.mu.Lock()
	for written < len(p) {
		t := f.writeQueue.Prepare()
		if f.buf.AvailableWrite() == 0 {
			if f.readers.Load() == 0 {
				f.mu.Unlock()
				if written == 0 {
					return 0, unix.EPIPE
				}
				return written, nil
			}
			if nonBlocking {
				f.mu.Unlock()
				return written, nil
			}

			f.mu.Unlock()
			t.Wait()
			f.mu.Lock()
			continue
		}

		written += f.buf.Write(p[written:])
		f.readQueue.NotifyAll()
	}
	f.mu.Unlock()

	return written, nil
}

func (f *Fifo) release(reader bool) {
	if reader {
		if f.readers.Add(-1) == 0 {
			f.writeQueue.NotifyAll()
		}
		return
	}
	if f.writers.Add(-1) == 0 {
		f.readQueue.NotifyAll()
	}
}

func (f *Fifo) available() (readable, writable int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buf.AvailableRead(), f.buf.AvailableWrite()
}

// Readers returns the number of open reader endpoints.
func (f *Fifo) Readers() int {
	return int(f.readers.Load())
}

// Writers returns the number of open writer endpoints.
func (f *Fifo) Writers() int {
	return int(f.writers.Load())
}

// Stats returns a snapshot of the buffer and endpoint counts.
func (f *Fifo) Stats() Stats {
	buffered, _ := f.available()
	return Stats{
		Capacity:       f.buf.Cap(),
		Buffered:       buffered,
		Readers:        f.Readers(),
		Writers:        f.Writers(),
		BlockedReaders: f.readQueue.Parked(),
		BlockedWriters: f.writeQueue.Parked(),
	}
}
