package process

import (
	"errors"
	"io/fs"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/ipcd/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/ipcd/internal/kernel/fifo"
	"github.com/GriffinCanCode/AgentOS/ipcd/internal/kernel/sys"
	"github.com/GriffinCanCode/AgentOS/ipcd/internal/shared/id"
)

// ErrProcessNotFound is returned for an unknown process ID.
var ErrProcessNotFound = errors.New("process not found")

// Process is one live process and its syscall surface.
type Process struct {
	ID        id.ProcessID
	Name      string
	CreatedAt time.Time
	Sys       *sys.Process
}

// Info is the JSON view of a process.
type Info struct {
	ID          id.ProcessID     `json:"pid"`
	Name        string           `json:"name"`
	CreatedAt   time.Time        `json:"created_at"`
	Stats       sys.Stats        `json:"stats"`
	Descriptors []sys.Descriptor `json:"descriptors,omitempty"`
}

// Limits sizes every process the manager creates.
type Limits struct {
	PipeCapacity int
	MaxFDs       int
	MaxEvents    int
}

// Manager owns the process table and the FIFO namespace they share.
type Manager struct {
	mu        sync.RWMutex
	processes map[id.ProcessID]*Process // Protected by mu

	ns      *fifo.Namespace
	limits  Limits
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewManager creates an empty manager.
func NewManager(limits Limits, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		processes: make(map[id.ProcessID]*Process),
		ns:        fifo.NewNamespace(limits.PipeCapacity),
		limits:    limits,
		logger:    logger,
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Namespace returns the shared FIFO namespace.
func (m *Manager) Namespace() *fifo.Namespace {
	return m.ns
}

// Create starts a new process with an empty descriptor table.
func (m *Manager) Create(name string) *Process {
	pid := id.NewProcessID()
	if name == "" {
		name = pid.String()
	}

	p := &Process{
		ID:        pid,
		Name:      name,
		CreatedAt: time.Now(),
		Sys: sys.NewProcess(m.ns,
			sys.WithPipeCapacity(m.limits.PipeCapacity),
			sys.WithMaxFDs(m.limits.MaxFDs),
			sys.WithMaxEvents(m.limits.MaxEvents),
			sys.WithLogger(m.logger.With(zap.String("pid", pid.String()))),
			sys.WithMetrics(m.metrics),
		),
	}

	m.mu.Lock()
	m.processes[pid] = p
	count := len(m.processes)
	m.mu.Unlock()

	m.metrics.IncProcessesTotal()
	m.metrics.SetProcessesActive(count)
	m.logger.Info("process created", zap.String("pid", pid.String()), zap.String("name", name))
	return p
}

// Get retrieves a process by ID
func (m *Manager) Get(pid id.ProcessID) (*Process, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.processes[pid]
	if !ok {
		return nil, ErrProcessNotFound
	}
	return p, nil
}

// List returns every process ordered by creation.
func (m *Manager) List() []Info {
	m.mu.RLock()
	procs := make([]*Process, 0, len(m.processes))
	for _, p := range m.processes {
		procs = append(procs, p)
	}
	m.mu.RUnlock()

	// ULIDs sort by creation time.
	sort.Slice(procs, func(i, j int) bool { return procs[i].ID < procs[j].ID })

	out := make([]Info, 0, len(procs))
	for _, p := range procs {
		out = append(out, p.Info(false))
	}
	return out
}

// Kill closes every descriptor of the process and forgets it.
func (m *Manager) Kill(pid id.ProcessID) error {
	m.mu.Lock()
	p, ok := m.processes[pid]
	if ok {
		delete(m.processes, pid)
	}
	count := len(m.processes)
	m.mu.Unlock()

	if !ok {
		return ErrProcessNotFound
	}

	closed := p.Sys.Exit()
	m.metrics.SetProcessesActive(count)
	m.logger.Info("process killed", zap.String("pid", pid.String()), zap.Int("closed_fds", closed))
	return nil
}

// Shutdown kills every process.
func (m *Manager) Shutdown() {
	m.mu.RLock()
	pids := make([]id.ProcessID, 0, len(m.processes))
	for pid := range m.processes {
		pids = append(pids, pid)
	}
	m.mu.RUnlock()

	for _, pid := range pids {
		_ = m.Kill(pid)
	}
}

// Mkfifo creates a named pipe in the shared namespace.
func (m *Manager) Mkfifo(path string, mode uint32) error {
	if _, err := m.ns.Mkfifo(path, fs.FileMode(mode).Perm()); err != nil {
		return err
	}
	m.metrics.SetFifosNamed(m.ns.Len())
	return nil
}

// Unlink removes a named pipe from the shared namespace.
func (m *Manager) Unlink(path string) error {
	if err := m.ns.Unlink(path); err != nil {
		return err
	}
	m.metrics.SetFifosNamed(m.ns.Len())
	return nil
}

// Stats summarises the whole daemon.
type Stats struct {
	Processes int      `json:"processes"`
	FDs       int      `json:"fds"`
	Epolls    int      `json:"epolls"`
	Fifos     []string `json:"fifos"`
}

// Stats returns process, descriptor and named FIFO counts.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Stats{Processes: len(m.processes), Fifos: m.ns.Paths()}
	for _, p := range m.processes {
		ps := p.Sys.Stats()
		s.FDs += ps.FDs
		s.Epolls += ps.Epolls
	}
	return s
}

// Info returns the JSON view of p.
func (p *Process) Info(withDescriptors bool) Info {
	info := Info{
		ID:        p.ID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
		Stats:     p.Sys.Stats(),
	}
	if withDescriptors {
		info.Descriptors = p.Sys.Descriptors()
	}
	return info
}
