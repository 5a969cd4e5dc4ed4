package sys

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/GriffinCanCode/AgentOS/ipcd/internal/kernel/epoll"
	"github.com/GriffinCanCode/AgentOS/ipcd/internal/kernel/fdtable"
)

// SignalSet is the signal mask argument of epoll_pwait. It is accepted and
// ignored.
type SignalSet uint64

// EpollCreate1 creates an epoll instance and returns its descriptor.
func (p *Process) EpollCreate1(flags int) (fd int, err error) {
	done := p.begin("sys_epoll_create1", zap.Int("flags", flags))
	defer func() { done(err) }()

	if flags < 0 || flags&^epoll.EPOLL_CLOEXEC != 0 {
		return -1, unix.EINVAL
	}

	ep := epoll.New(p.fds, epoll.WithLogger(p.logger.Named("epoll")))
	fd, err = p.install(fdtable.KindEpoll, ep, cloexec(flags&epoll.EPOLL_CLOEXEC != 0))
	if err != nil {
		return -1, err
	}

	p.mu.Lock()
	p.epolls[fd] = ep
	p.mu.Unlock()
	return fd, nil
}

// instance resolves epfd through its kind tag and the process epoll map.
func (p *Process) instance(epfd int) (*epoll.Instance, error) {
	e, err := p.fds.Entry(epfd)
	if err != nil {
		return nil, err
	}
	if e.Kind != fdtable.KindEpoll {
		return nil, unix.EINVAL
	}

	p.mu.Lock()
	ep, ok := p.epolls[epfd]
	p.mu.Unlock()
	if !ok {
		return nil, unix.EBADF
	}
	return ep, nil
}

// EpollCtl adds, modifies or removes fd in the interest set of epfd.
func (p *Process) EpollCtl(epfd, op, fd int, ev *epoll.Event) (err error) {
	fields := []zap.Field{
		zap.Int("epfd", epfd),
		zap.String("op", epoll.OpName(op)),
		zap.Int("fd", fd),
	}
	if ev != nil {
		fields = append(fields, zap.Uint32("events", ev.Events), zap.Uint64("data", ev.Data))
	}
	done := p.begin("sys_epoll_ctl", fields...)
	defer func() { done(err) }()

	ep, err := p.instance(epfd)
	if err != nil {
		return err
	}

	if op == epoll.EPOLL_CTL_ADD {
		if fd == epfd {
			return unix.EINVAL
		}
		// Epoll instances cannot be polled, so nesting is refused.
		if e, err := p.fds.Entry(fd); err == nil && e.Kind == fdtable.KindEpoll {
			return unix.EINVAL
		}
	}
	return ep.Control(op, fd, ev)
}

// EpollWait waits on epfd and fills events with at most maxevents records.
// timeout is in milliseconds: negative waits forever, zero polls once.
func (p *Process) EpollWait(ctx context.Context, epfd int, events []epoll.Event, maxevents, timeout int) (n int, err error) {
	done := p.begin("sys_epoll_wait",
		zap.Int("epfd", epfd),
		zap.Int("maxevents", maxevents),
		zap.Int("timeout", timeout),
	)
	defer func() {
		done(err)
		p.metrics.RecordEpollWait(waitOutcome(n, err))
	}()

	if maxevents <= 0 || maxevents > p.maxEvents {
		return 0, unix.EINVAL
	}
	if len(events) < maxevents {
		return 0, unix.EFAULT
	}

	ep, err := p.instance(epfd)
	if err != nil {
		return 0, err
	}
	return ep.Wait(ctx, events[:maxevents], timeout)
}

// EpollPwait is EpollWait with a signal mask, which is ignored.
func (p *Process) EpollPwait(ctx context.Context, epfd int, events []epoll.Event, maxevents, timeout int, _ *SignalSet) (int, error) {
	return p.EpollWait(ctx, epfd, events, maxevents, timeout)
}

// EpollRegistrations returns the interest set of epfd.
func (p *Process) EpollRegistrations(epfd int) ([]epoll.Registration, error) {
	ep, err := p.instance(epfd)
	if err != nil {
		return nil, err
	}
	return ep.Registrations(), nil
}

func waitOutcome(n int, err error) string {
	switch {
	case err != nil:
		return "error"
	case n > 0:
		return "ready"
	default:
		return "empty"
	}
}
