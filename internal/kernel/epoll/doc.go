/*
Package epoll implements a level-triggered readiness multiplexer over
descriptors that satisfy fdtable.File.

# Overview

An Instance keeps an interest set mapping descriptors to the conditions the
caller wants reported and an opaque token returned with every event. Wait
repeatedly polls every registered descriptor until something is ready, the
timeout expires, or the context is cancelled, yielding the processor between
passes.

# Control

	EPOLL_CTL_ADD  fd must resolve (EBADF), must not be registered (EEXIST)
	EPOLL_CTL_MOD  fd must be registered (ENOENT)
	EPOLL_CTL_DEL  fd must be registered (ENOENT)
	anything else  EINVAL

# Stale descriptors

Closing a watched descriptor without EPOLL_CTL_DEL leaves its entry in place.
A pass that finds the number no longer resolving reports EPOLLERR for it when
the caller asked for errors; either way Wait drops the entry afterwards, and
if it had not asked for errors that call returns 0. A number reused before
then keeps the old entry and reports the new resource's readiness. A resource
that cannot be polled reads as errored.

Edge-triggered mode is not supported; EPOLLET is accepted and ignored.
*/
package epoll
