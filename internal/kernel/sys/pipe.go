package sys

import (
	"io/fs"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/GriffinCanCode/AgentOS/ipcd/internal/kernel/fdtable"
	"github.com/GriffinCanCode/AgentOS/ipcd/internal/kernel/fifo"
)

const pipe2Flags = unix.O_NONBLOCK | unix.O_CLOEXEC

// Pipe2 creates an anonymous pipe and returns its read and write descriptors.
func (p *Process) Pipe2(flags int) (r, w int, err error) {
	done := p.begin("sys_pipe2", zap.Int("flags", flags))
	defer func() { done(err) }()

	if flags&^pipe2Flags != 0 {
		return -1, -1, unix.EINVAL
	}

	re, we := fifo.NewPipe(p.pipeCapacity, flags&unix.O_NONBLOCK != 0)
	fdFlags := cloexec(flags&unix.O_CLOEXEC != 0)

	r, err = p.install(fdtable.KindFifo, re, fdFlags)
	if err != nil {
		re.Close()
		we.Close()
		return -1, -1, err
	}
	w, err = p.install(fdtable.KindFifo, we, fdFlags)
	if err != nil {
		p.release(r)
		re.Close()
		we.Close()
		return -1, -1, err
	}
	return r, w, nil
}

// Mkfifo creates a named pipe. Only the permission bits of mode are kept.
func (p *Process) Mkfifo(path string, mode uint32) (err error) {
	done := p.begin("sys_mkfifo", zap.String("path", path), zap.Uint32("mode", mode))
	defer func() { done(err) }()

	_, err = p.ns.Mkfifo(path, fs.FileMode(mode).Perm())
	return err
}

// Unlink removes a named pipe. Open descriptors keep working.
func (p *Process) Unlink(path string) (err error) {
	done := p.begin("sys_unlink", zap.String("path", path))
	defer func() { done(err) }()

	return p.ns.Unlink(path)
}

// Open opens one end of the named pipe at path. Without O_NONBLOCK it waits
// for the other end to be opened.
func (p *Process) Open(path string, flags int) (fd int, err error) {
	done := p.begin("sys_open", zap.String("path", path), zap.Int("flags", flags))
	defer func() { done(err) }()

	node, err := p.ns.Lookup(path)
	if err != nil {
		return -1, err
	}
	if p.fds.Len() >= p.fds.Limit() {
		return -1, unix.EMFILE
	}

	ep, err := node.Open(flags)
	if err != nil {
		return -1, err
	}
	fd, err = p.install(fdtable.KindFifo, ep, cloexec(flags&unix.O_CLOEXEC != 0))
	if err != nil {
		ep.Close()
		return -1, err
	}
	return fd, nil
}

// Read reads from fd.
func (p *Process) Read(fd int, buf []byte) (n int, err error) {
	done := p.begin("sys_read", zap.Int("fd", fd), zap.Int("len", len(buf)))
	defer func() { done(err) }()

	f, err := p.fds.Get(fd)
	if err != nil {
		return 0, err
	}
	n, err = f.Read(buf)
	p.metrics.AddBytes("read", n)
	return n, err
}

// TryRead reads from a pipe end without waiting, even if fd is in blocking
// mode. It backs streaming bridges that poll and is not traced per call.
func (p *Process) TryRead(fd int, buf []byte) (int, error) {
	f, err := p.fds.Get(fd)
	if err != nil {
		return 0, err
	}
	end, ok := f.(*fifo.Endpoint)
	if !ok {
		return 0, unix.EINVAL
	}
	n, err := end.TryRead(buf)
	p.metrics.AddBytes("read", n)
	return n, err
}

// Write writes to fd.
func (p *Process) Write(fd int, buf []byte) (n int, err error) {
	done := p.begin("sys_write", zap.Int("fd", fd), zap.Int("len", len(buf)))
	defer func() { done(err) }()

	f, err := p.fds.Get(fd)
	if err != nil {
		return 0, err
	}
	n, err = f.Write(buf)
	p.metrics.AddBytes("write", n)
	return n, err
}

// Fcntl supports F_GETFL, F_SETFL (O_NONBLOCK only), F_GETFD and F_SETFD.
func (p *Process) Fcntl(fd, cmd, arg int) (ret int, err error) {
	done := p.begin("sys_fcntl", zap.Int("fd", fd), zap.Int("cmd", cmd), zap.Int("arg", arg))
	defer func() { done(err) }()

	e, err := p.fds.Entry(fd)
	if err != nil {
		return -1, err
	}

	switch cmd {
	case unix.F_GETFL:
		return statusFlags(e), nil

	case unix.F_SETFL:
		if err := e.File.SetNonblocking(arg&unix.O_NONBLOCK != 0); err != nil {
			return -1, err
		}
		return 0, nil

	case unix.F_GETFD:
		if e.Flags&fdtable.FlagCloseOnExec != 0 {
			return unix.FD_CLOEXEC, nil
		}
		return 0, nil

	case unix.F_SETFD:
		flags := e.Flags &^ fdtable.FlagCloseOnExec
		if arg&unix.FD_CLOEXEC != 0 {
			flags |= fdtable.FlagCloseOnExec
		}
		return 0, p.fds.SetFlags(fd, flags)

	default:
		return -1, unix.EINVAL
	}
}

func statusFlags(e fdtable.Entry) int {
	if e.Kind != fdtable.KindFifo {
		return unix.O_RDWR
	}
	ep, ok := e.File.(*fifo.Endpoint)
	if !ok {
		return unix.O_RDWR
	}

	flags := unix.O_WRONLY
	if ep.IsReader() {
		flags = unix.O_RDONLY
	}
	if ep.NonBlocking() {
		flags |= unix.O_NONBLOCK
	}
	return flags
}
