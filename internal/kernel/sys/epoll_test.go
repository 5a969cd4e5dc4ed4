package sys

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/GriffinCanCode/AgentOS/ipcd/internal/kernel/epoll"
)

func TestEpollCreate1(t *testing.T) {
	p := newProcess(t)

	tests := []struct {
		name    string
		flags   int
		wantErr error
	}{
		{name: "no flags", flags: 0},
		{name: "cloexec", flags: epoll.EPOLL_CLOEXEC},
		{name: "negative", flags: -1, wantErr: unix.EINVAL},
		{name: "unknown bit", flags: 0x1, wantErr: unix.EINVAL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fd, err := p.EpollCreate1(tt.flags)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.GreaterOrEqual(t, fd, 0)
		})
	}
	assert.Equal(t, 2, p.Stats().Epolls)
}

func TestEpollCtlResolution(t *testing.T) {
	p := newProcess(t)
	r, w, err := p.Pipe2(0)
	require.NoError(t, err)
	epfd, err := p.EpollCreate1(0)
	require.NoError(t, err)
	other, err := p.EpollCreate1(0)
	require.NoError(t, err)
	ev := &epoll.Event{Events: epoll.EPOLLIN}

	tests := []struct {
		name string
		epfd int
		op   int
		fd   int
		want error
	}{
		{name: "unknown epfd", epfd: 99, op: epoll.EPOLL_CTL_ADD, fd: r, want: unix.EBADF},
		{name: "epfd is a pipe", epfd: w, op: epoll.EPOLL_CTL_ADD, fd: r, want: unix.EINVAL},
		{name: "watch itself", epfd: epfd, op: epoll.EPOLL_CTL_ADD, fd: epfd, want: unix.EINVAL},
		{name: "watch another epoll", epfd: epfd, op: epoll.EPOLL_CTL_ADD, fd: other, want: unix.EINVAL},
		{name: "unknown target", epfd: epfd, op: epoll.EPOLL_CTL_ADD, fd: 99, want: unix.EBADF},
		{name: "bad op", epfd: epfd, op: 0, fd: r, want: unix.EINVAL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, p.EpollCtl(tt.epfd, tt.op, tt.fd, ev), tt.want)
		})
	}
}

func TestEpollCtlDuplicateAndMissing(t *testing.T) {
	p := newProcess(t)
	r, _, err := p.Pipe2(0)
	require.NoError(t, err)
	epfd, err := p.EpollCreate1(0)
	require.NoError(t, err)
	ev := &epoll.Event{Events: epoll.EPOLLIN, Data: 42}

	require.NoError(t, p.EpollCtl(epfd, epoll.EPOLL_CTL_ADD, r, ev))
	assert.ErrorIs(t, p.EpollCtl(epfd, epoll.EPOLL_CTL_ADD, r, ev), unix.EEXIST)

	require.NoError(t, p.EpollCtl(epfd, epoll.EPOLL_CTL_DEL, r, nil))
	assert.ErrorIs(t, p.EpollCtl(epfd, epoll.EPOLL_CTL_DEL, r, nil), unix.ENOENT)
	assert.ErrorIs(t, p.EpollCtl(epfd, epoll.EPOLL_CTL_MOD, r, ev), unix.ENOENT)
}

func TestEpollWaitArguments(t *testing.T) {
	p := newProcess(t, WithMaxEvents(4))
	epfd, err := p.EpollCreate1(0)
	require.NoError(t, err)
	r, _, err := p.Pipe2(0)
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		name      string
		epfd      int
		events    int
		maxevents int
		want      error
	}{
		{name: "zero maxevents", epfd: epfd, events: 4, maxevents: 0, want: unix.EINVAL},
		{name: "negative maxevents", epfd: epfd, events: 4, maxevents: -1, want: unix.EINVAL},
		{name: "above limit", epfd: epfd, events: 8, maxevents: 5, want: unix.EINVAL},
		{name: "short buffer", epfd: epfd, events: 1, maxevents: 2, want: unix.EFAULT},
		{name: "unknown epfd", epfd: 77, events: 4, maxevents: 4, want: unix.EBADF},
		{name: "not an epoll", epfd: r, events: 4, maxevents: 4, want: unix.EINVAL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.EpollWait(ctx, tt.epfd, make([]epoll.Event, tt.events), tt.maxevents, 0)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEpollWaitZeroTimeout(t *testing.T) {
	p := newProcess(t)
	r, w, err := p.Pipe2(0)
	require.NoError(t, err)
	epfd, err := p.EpollCreate1(0)
	require.NoError(t, err)
	require.NoError(t, p.EpollCtl(epfd, epoll.EPOLL_CTL_ADD, r, &epoll.Event{Events: epoll.EPOLLIN, Data: 1}))
	require.NoError(t, p.EpollCtl(epfd, epoll.EPOLL_CTL_ADD, w, &epoll.Event{Events: epoll.EPOLLOUT, Data: 2}))

	events := make([]epoll.Event, 8)
	start := time.Now()
	n, err := p.EpollWait(context.Background(), epfd, events, len(events), 0)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	require.Equal(t, 1, n)
	assert.Equal(t, epoll.Event{Events: epoll.EPOLLOUT, Data: 2}, events[0])
}

func TestEpollWaitRespectsMaxEvents(t *testing.T) {
	p := newProcess(t)
	r, w, err := p.Pipe2(0)
	require.NoError(t, err)
	epfd, err := p.EpollCreate1(0)
	require.NoError(t, err)
	require.NoError(t, p.EpollCtl(epfd, epoll.EPOLL_CTL_ADD, r, &epoll.Event{Events: epoll.EPOLLIN}))
	require.NoError(t, p.EpollCtl(epfd, epoll.EPOLL_CTL_ADD, w, &epoll.Event{Events: epoll.EPOLLOUT}))
	_, err = p.Write(w, []byte("x"))
	require.NoError(t, err)

	events := make([]epoll.Event, 8)
	n, err := p.EpollWait(context.Background(), epfd, events, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEpollWaitWakesOnWrite(t *testing.T) {
	p := newProcess(t)
	r, w, err := p.Pipe2(0)
	require.NoError(t, err)
	epfd, err := p.EpollCreate1(0)
	require.NoError(t, err)
	require.NoError(t, p.EpollCtl(epfd, epoll.EPOLL_CTL_ADD, r, &epoll.Event{Events: epoll.EPOLLIN, Data: 5}))

	go func() {
		time.Sleep(20 * time.Millisecond)
		p.Write(w, []byte("go"))
	}()

	events := make([]epoll.Event, 4)
	n, err := p.EpollWait(context.Background(), epfd, events, len(events), int(waitFor/time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, uint64(5), events[0].Data)
}

func TestEpollWaitHangUpAfterLastWriter(t *testing.T) {
	p := newProcess(t)
	r, w, err := p.Pipe2(0)
	require.NoError(t, err)
	epfd, err := p.EpollCreate1(0)
	require.NoError(t, err)
	require.NoError(t, p.EpollCtl(epfd, epoll.EPOLL_CTL_ADD, r, &epoll.Event{Events: epoll.EPOLLIN | epoll.EPOLLHUP}))
	require.NoError(t, p.Close(w))

	events := make([]epoll.Event, 4)
	n, err := p.EpollWait(context.Background(), epfd, events, len(events), 0)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, epoll.EPOLLHUP, events[0].Events)
}

func TestEpollWaitPrunesClosedDescriptor(t *testing.T) {
	p := newProcess(t)
	r, w, err := p.Pipe2(0)
	require.NoError(t, err)
	epfd, err := p.EpollCreate1(0)
	require.NoError(t, err)
	require.NoError(t, p.EpollCtl(epfd, epoll.EPOLL_CTL_ADD, r, &epoll.Event{Events: epoll.EPOLLIN}))
	require.NoError(t, p.EpollCtl(epfd, epoll.EPOLL_CTL_ADD, w, &epoll.Event{Events: epoll.EPOLLOUT}))
	require.NoError(t, p.Close(r))

	events := make([]epoll.Event, 4)
	n, err := p.EpollWait(context.Background(), epfd, events, len(events), -1)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	regs, err := p.EpollRegistrations(epfd)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, w, regs[0].FD)
}

func TestEpollWaitAfterDescriptorReuse(t *testing.T) {
	p := newProcess(t)
	r, _, err := p.Pipe2(0)
	require.NoError(t, err)
	epfd, err := p.EpollCreate1(0)
	require.NoError(t, err)
	require.NoError(t, p.EpollCtl(epfd, epoll.EPOLL_CTL_ADD, r, &epoll.Event{Events: epoll.EPOLLIN}))
	require.NoError(t, p.Close(r))

	reused, err := p.EpollCreate1(0)
	require.NoError(t, err)
	require.Equal(t, r, reused)

	start := time.Now()
	n, err := p.EpollWait(context.Background(), epfd, make([]epoll.Event, 4), 4, 40)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)

	regs, err := p.EpollRegistrations(epfd)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, r, regs[0].FD)
}

func TestEpollWaitTimesOut(t *testing.T) {
	p := newProcess(t)
	r, _, err := p.Pipe2(0)
	require.NoError(t, err)
	epfd, err := p.EpollCreate1(0)
	require.NoError(t, err)
	require.NoError(t, p.EpollCtl(epfd, epoll.EPOLL_CTL_ADD, r, &epoll.Event{Events: epoll.EPOLLIN}))

	start := time.Now()
	n, err := p.EpollWait(context.Background(), epfd, make([]epoll.Event, 1), 1, 25)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
}

func TestClosingEpollDescriptor(t *testing.T) {
	p := newProcess(t)
	epfd, err := p.EpollCreate1(0)
	require.NoError(t, err)
	require.NoError(t, p.Close(epfd))

	assert.Equal(t, 0, p.Stats().Epolls)
	_, err = p.EpollWait(context.Background(), epfd, make([]epoll.Event, 1), 1, 0)
	assert.ErrorIs(t, err, unix.EBADF)

	_, err = p.EpollRegistrations(epfd)
	assert.ErrorIs(t, err, unix.EBADF)
}
