package sys

import (
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/GriffinCanCode/AgentOS/ipcd/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/ipcd/internal/kernel/epoll"
	"github.com/GriffinCanCode/AgentOS/ipcd/internal/kernel/fdtable"
	"github.com/GriffinCanCode/AgentOS/ipcd/internal/kernel/fifo"
	"github.com/GriffinCanCode/AgentOS/ipcd/internal/kernel/ringbuf"
)

// DefaultMaxEvents caps maxevents for epoll_wait.
const DefaultMaxEvents = 1024

// Process is one address space's view of the IPC core.
type Process struct {
	fds *fdtable.Table
	ns  *fifo.Namespace

	mu     sync.Mutex
	epolls map[int]*epoll.Instance

	pipeCapacity int
	maxFDs       int
	maxEvents    int

	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// Option configures a Process.
type Option func(*Process)

// WithLogger sets the syscall logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Process) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics records syscalls on m.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(p *Process) {
		p.metrics = m
	}
}

// WithPipeCapacity sets the buffer size of pipes created by pipe2.
func WithPipeCapacity(n int) Option {
	return func(p *Process) {
		if n > 0 {
			p.pipeCapacity = n
		}
	}
}

// WithMaxFDs sets the descriptor table limit.
func WithMaxFDs(n int) Option {
	return func(p *Process) {
		if n > 0 {
			p.maxFDs = n
		}
	}
}

// WithMaxEvents sets the largest maxevents epoll_wait accepts.
func WithMaxEvents(n int) Option {
	return func(p *Process) {
		if n > 0 {
			p.maxEvents = n
		}
	}
}

// NewProcess creates a process with an empty descriptor table. ns may be
// shared with other processes; a nil ns gives the process a private one.
func NewProcess(ns *fifo.Namespace, opts ...Option) *Process {
	p := &Process{
		epolls:       make(map[int]*epoll.Instance),
		pipeCapacity: ringbuf.DefaultCapacity,
		maxFDs:       fdtable.DefaultLimit,
		maxEvents:    DefaultMaxEvents,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.fds = fdtable.New(p.maxFDs)
	if ns == nil {
		ns = fifo.NewNamespace(p.pipeCapacity)
	}
	p.ns = ns
	return p
}

// Namespace returns the FIFO namespace the process opens paths in.
func (p *Process) Namespace() *fifo.Namespace {
	return p.ns
}

// begin logs the call and returns a function that records its outcome.
func (p *Process) begin(name string, fields ...zap.Field) func(error) {
	p.logger.Debug(name, fields...)
	timer := monitoring.NewTimer(p.metrics, name)
	return func(err error) {
		timer.Stop(monitoring.Errno(err))
		if err != nil {
			p.logger.Debug(name+" failed", zap.Error(err))
		}
	}
}

func (p *Process) install(kind fdtable.Kind, f fdtable.File, flags fdtable.Flags) (int, error) {
	fd, err := p.fds.Add(kind, f, flags)
	if err != nil {
		return -1, err
	}
	p.metrics.AddFDs(1)
	return fd, nil
}

func (p *Process) release(fd int) (fdtable.File, error) {
	f, err := p.fds.Remove(fd)
	if err != nil {
		return nil, err
	}
	p.metrics.AddFDs(-1)

	p.mu.Lock()
	delete(p.epolls, fd)
	p.mu.Unlock()
	return f, nil
}

func cloexec(set bool) fdtable.Flags {
	if set {
		return fdtable.FlagCloseOnExec
	}
	return 0
}

// Close releases fd and closes the resource behind it.
func (p *Process) Close(fd int) (err error) {
	done := p.begin("sys_close", zap.Int("fd", fd))
	defer func() { done(err) }()

	f, err := p.release(fd)
	if err != nil {
		return err
	}
	return f.Close()
}

// Exec closes every descriptor marked close-on-exec.
func (p *Process) Exec() int {
	closed := 0
	for _, fd := range p.fds.FDs() {
		e, err := p.fds.Entry(fd)
		if err != nil || e.Flags&fdtable.FlagCloseOnExec == 0 {
			continue
		}
		if p.Close(fd) == nil {
			closed++
		}
	}
	return closed
}

// Exit closes every descriptor. It returns how many were open.
func (p *Process) Exit() int {
	entries := p.fds.Drain()
	p.metrics.AddFDs(-len(entries))

	p.mu.Lock()
	p.epolls = make(map[int]*epoll.Instance)
	p.mu.Unlock()

	for _, e := range entries {
		if err := e.File.Close(); err != nil {
			p.logger.Warn("close on exit failed", zap.Stringer("kind", e.Kind), zap.Error(err))
		}
	}
	p.logger.Debug("sys_exit", zap.Int("closed", len(entries)))
	return len(entries)
}

// Lseek always fails: pipes and epoll instances are not seekable.
func (p *Process) Lseek(fd int, offset int64, whence int) (_ int64, err error) {
	done := p.begin("sys_lseek", zap.Int("fd", fd), zap.Int64("offset", offset), zap.Int("whence", whence))
	defer func() { done(err) }()

	if !p.fds.Contains(fd) {
		return -1, unix.EBADF
	}
	return -1, unix.ESPIPE
}

// Descriptor describes one open descriptor.
type Descriptor struct {
	FD          int    `json:"fd"`
	Kind        string `json:"kind"`
	Access      string `json:"access,omitempty"`
	NonBlocking bool   `json:"nonblock"`
	CloseOnExec bool   `json:"cloexec"`
	Ino         uint64 `json:"ino,omitempty"`
	Buffered    int64  `json:"buffered"`
}

// Descriptors lists the open descriptors in ascending order.
func (p *Process) Descriptors() []Descriptor {
	var out []Descriptor
	for _, fd := range p.fds.FDs() {
		e, err := p.fds.Entry(fd)
		if err != nil {
			continue
		}
		d := Descriptor{
			FD:          fd,
			Kind:        e.Kind.String(),
			CloseOnExec: e.Flags&fdtable.FlagCloseOnExec != 0,
		}
		if ep, ok := e.File.(*fifo.Endpoint); ok {
			d.NonBlocking = ep.NonBlocking()
			d.Access = "w"
			if ep.IsReader() {
				d.Access = "r"
			}
		}
		if st, ok := e.File.(fdtable.Statter); ok {
			if s, err := st.Stat(); err == nil {
				d.Ino = s.Ino
				d.Buffered = s.Size
			}
		}
		out = append(out, d)
	}
	return out
}

// Stats summarises the process.
type Stats struct {
	FDs    int `json:"fds"`
	Epolls int `json:"epolls"`
	MaxFDs int `json:"max_fds"`
}

// Stats returns descriptor counts.
func (p *Process) Stats() Stats {
	p.mu.Lock()
	epolls := len(p.epolls)
	p.mu.Unlock()

	return Stats{
		FDs:    p.fds.Len(),
		Epolls: epolls,
		MaxFDs: p.fds.Limit(),
	}
}
