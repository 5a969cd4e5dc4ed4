/*
Package sys is the syscall surface of the IPC core.

A Process owns a descriptor table and resolves every call through it.
Named FIFOs live in a Namespace shared between processes, so two processes
opening the same path rendezvous on one pipe.

# Overview

	pipe2        anonymous pipe pair
	mkfifo       create a named pipe
	open         open one end of a named pipe
	read, write  byte transfer with pipe semantics
	close        release a descriptor
	lseek        always ESPIPE
	fcntl        F_GETFL, F_SETFL (O_NONBLOCK), F_GETFD, F_SETFD
	epoll_*      create1, ctl, wait, pwait

Every error is a unix.Errno returned unwrapped, so callers can compare with
errors.Is or a plain switch.

Epoll instances are tracked in a per-process map keyed by descriptor. epoll_ctl
and epoll_wait check the descriptor's kind tag in the table and then consult
that map, never a type assertion on the stored file.

# Usage

	ns := fifo.NewNamespace(1024)
	p := sys.NewProcess(ns, sys.WithLogger(logger))

	r, w, _ := p.Pipe2(unix.O_NONBLOCK)
	ep, _ := p.EpollCreate1(0)
	_ = p.EpollCtl(ep, epoll.EPOLL_CTL_ADD, r, &epoll.Event{Events: epoll.EPOLLIN})

	p.Write(w, []byte("hi"))
	events := make([]epoll.Event, 8)
	n, _ := p.EpollWait(ctx, ep, events, len(events), -1)
*/
package sys
