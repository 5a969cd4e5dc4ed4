/*
Package fifo implements Unix pipes and named FIFOs.

# Overview

A Fifo is a bounded byte stream shared by any number of reader and writer
Endpoints. Bytes come out in the order they went in. The buffer sits behind
one mutex; the reader and writer counts are separate atomics so peer checks
never contend with data transfer. Every algorithm re-checks the counts after
re-taking the buffer lock.

# Semantics

  - Open: a non-blocking open with no peer fails with ENXIO. A blocking open
    waits until a peer has opened the other end.
  - Read: returns whatever is buffered (bounded by the caller's slice). An
    empty pipe with no writers is end-of-stream (0, nil). An empty pipe with
    writers blocks, or fails with EAGAIN when non-blocking.
  - Write: transfers as much as it can, blocking for space. With the buffer
    full and no readers it fails with EPIPE if nothing was written yet, and
    otherwise reports the partial count. Non-blocking writes report whatever
    fit, possibly 0.
  - Close: the last reader wakes blocked writers; the last writer wakes
    blocked readers.

Direction misuse fails with EPERM before the buffer is touched.

# Usage

	f := fifo.New(ringbuf.DefaultCapacity)
	r, _ := f.OpenRead(false) // blocks until a writer opens
	w, _ := f.OpenWrite(false)

	w.Write([]byte("hello"))
	buf := make([]byte, 16)
	n, _ := r.Read(buf)

	r, w = fifo.NewPipe(0, false) // anonymous pipe, both ends open
*/
package fifo
