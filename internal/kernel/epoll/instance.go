package epoll

import (
	"cmp"
	"sync"
	"sync/atomic"

	omap "github.com/akalinux/orderedmap"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/GriffinCanCode/AgentOS/ipcd/internal/kernel/fdtable"
)

// Resolver turns a descriptor into the resource behind it.
type Resolver interface {
	Get(fd int) (fdtable.File, error)
}

// Option configures an Instance.
type Option func(*Instance)

// WithLogger sets the logger used for stale-descriptor reports.
func WithLogger(logger *zap.Logger) Option {
	return func(ep *Instance) {
		if logger != nil {
			ep.logger = logger
		}
	}
}

// Instance is one epoll object.
type Instance struct {
	mu       sync.Mutex
	interest *omap.SliceTree[int, Event]

	fds    Resolver
	logger *zap.Logger
	closed atomic.Bool
}

var _ fdtable.File = (*Instance)(nil)

func newInterestSet() *omap.SliceTree[int, Event] {
	return omap.NewSliceTree[int, Event](16, cmp.Compare[int])
}

// New creates an instance that resolves descriptors through fds.
func New(fds Resolver, opts ...Option) *Instance {
	ep := &Instance{
		interest: newInterestSet(),
		fds:      fds,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ep)
	}
	return ep
}

// Control adds, modifies or removes the registration for fd.
func (ep *Instance) Control(op int, fd int, ev *Event) error {
	if ep.closed.Load() {
		return unix.EBADF
	}

	switch op {
	case EPOLL_CTL_ADD:
		if ev == nil {
			return unix.EFAULT
		}
		if _, err := ep.fds.Get(fd); err != nil {
			return err
		}

		ep.mu.Lock()
		defer ep.mu.Unlock()
		if _, exists := ep.interest.Get(fd); exists {
			return unix.EEXIST
		}
		ep.interest.Put(fd, *ev)

	case EPOLL_CTL_MOD:
		if ev == nil {
			return unix.EFAULT
		}

		ep.mu.Lock()
		defer ep.mu.Unlock()
		if _, exists := ep.interest.Get(fd); !exists {
			return unix.ENOENT
		}
		ep.interest.Put(fd, *ev)

	case EPOLL_CTL_DEL:
		ep.mu.Lock()
		defer ep.mu.Unlock()
		if _, ok := ep.interest.Remove(fd); !ok {
			return unix.ENOENT
		}

	default:
		return unix.EINVAL
	}
	return nil
}

// snapshot copies the interest set so resources are queried without
// holding the instance lock.
func (ep *Instance) snapshot() []Registration {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	regs := make([]Registration, 0, ep.interest.Size())
	for fd, ev := range ep.interest.All() {
		regs = append(regs, Registration{FD: fd, Event: ev})
	}
	return regs
}

// query reports readiness for a registered descriptor. A descriptor that no
// longer resolves is stale. A resource that resolves but cannot be polled
// reads as errored.
func (ep *Instance) query(fd int) (st fdtable.PollState, stale bool) {
	f, err := ep.fds.Get(fd)
	if err != nil {
		return fdtable.PollState{}, true
	}
	if st, err = f.Poll(); err != nil {
		return fdtable.PollState{Errored: true}, false
	}
	return st, false
}

// pass is one scan of the interest set. It returns the number of events
// written, every stale descriptor it met, and whether any of those did not
// ask for EPOLLERR.
func (ep *Instance) pass(out []Event) (n int, stale []int, surfaced bool) {
	for _, reg := range ep.snapshot() {
		st, gone := ep.query(reg.FD)
		if gone {
			stale = append(stale, reg.FD)
			if reg.Event.Events&EPOLLERR == 0 {
				surfaced = true
			} else if n < len(out) {
				out[n] = Event{Events: EPOLLERR, Data: reg.Event.Data}
				n++
			}
			continue
		}

		ready := [...]bool{st.Readable, st.Writable, st.HungUp, st.Errored}
		for i, cond := range conditions {
			if n >= len(out) {
				break
			}
			if ready[i] && reg.Event.Events&cond != 0 {
				out[n] = Event{Events: cond, Data: reg.Event.Data}
				n++
			}
		}
	}
	return n, stale, surfaced
}

// PollAll runs one pass over the interest set and fills out with one event
// per ready condition that was also requested. It returns unix.EBADF
// alongside the count when it met a stale descriptor that did not ask for
// EPOLLERR. PollAll does not change the interest set.
func (ep *Instance) PollAll(out []Event) (int, error) {
	n, _, surfaced := ep.pass(out)
	if surfaced {
		return n, unix.EBADF
	}
	return n, nil
}

// forget drops the registrations for fds.
func (ep *Instance) forget(fds []int) {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	for _, fd := range fds {
		ep.interest.Remove(fd)
	}
}

// Registrations returns the interest set ordered by descriptor.
func (ep *Instance) Registrations() []Registration {
	return ep.snapshot()
}

// Len returns the number of registrations.
func (ep *Instance) Len() int {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	return ep.interest.Size()
}

// Read is not supported on an epoll descriptor.
func (ep *Instance) Read([]byte) (int, error) {
	return 0, unix.ENOSYS
}

// Write is not supported on an epoll descriptor.
func (ep *Instance) Write([]byte) (int, error) {
	return 0, unix.ENOSYS
}

// Poll is not supported on an epoll descriptor.
func (ep *Instance) Poll() (fdtable.PollState, error) {
	return fdtable.PollState{}, unix.ENOSYS
}

// SetNonblocking is accepted and has no effect.
func (ep *Instance) SetNonblocking(bool) error {
	return nil
}

// Stat describes the instance as an owner-only anonymous file.
func (ep *Instance) Stat() (fdtable.Stat, error) {
	return fdtable.Stat{Ino: 1, Mode: 0o600}, nil
}

// Close drops the interest set. Further control calls fail with EBADF.
func (ep *Instance) Close() error {
	if !ep.closed.CompareAndSwap(false, true) {
		return nil
	}

	ep.mu.Lock()
	defer ep.mu.Unlock()
	ep.interest = newInterestSet()
	return nil
}
