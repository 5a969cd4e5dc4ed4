package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/GriffinCanCode/AgentOS/ipcd/internal/domain/process"
	"github.com/GriffinCanCode/AgentOS/ipcd/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/ipcd/internal/shared/id"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	manager   *process.Manager
	metrics   *monitoring.Metrics
	logger    *zap.Logger
	maxEvents int
	started   time.Time
}

// NewHandlers creates a new handler set. maxEvents bounds the event buffer
// allocated for epoll_wait.
func NewHandlers(manager *process.Manager, metrics *monitoring.Metrics, logger *zap.Logger, maxEvents int) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		manager:   manager,
		metrics:   metrics,
		logger:    logger,
		maxEvents: maxEvents,
		started:   time.Now(),
	}
}

// Health handles liveness checks
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "ipcd",
		"version": Version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}

// Stats reports process, descriptor and FIFO counts
func (h *Handlers) Stats(c *gin.Context) {
	body := gin.H{"kernel": h.manager.Stats()}
	if h.metrics != nil {
		body["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, body)
}

// CreateProcess starts a process with an empty descriptor table
func (h *Handlers) CreateProcess(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	p := h.manager.Create(req.Name)
	c.JSON(http.StatusCreated, p.Info(false))
}

// ListProcesses lists every live process
func (h *Handlers) ListProcesses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"processes": h.manager.List()})
}

// GetProcess describes one process and its descriptors
func (h *Handlers) GetProcess(c *gin.Context) {
	p, ok := h.process(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, p.Info(true))
}

// KillProcess closes every descriptor of a process and removes it
func (h *Handlers) KillProcess(c *gin.Context) {
	pid, ok := h.pid(c)
	if !ok {
		return
	}
	if err := h.manager.Kill(pid); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "pid": pid})
}

func (h *Handlers) pid(c *gin.Context) (id.ProcessID, bool) {
	pid, err := id.ParseProcessID(c.Param("pid"))
	if err != nil {
		badRequest(c, err)
		return "", false
	}
	return pid, true
}

func (h *Handlers) process(c *gin.Context) (*process.Process, bool) {
	pid, ok := h.pid(c)
	if !ok {
		return nil, false
	}
	p, err := h.manager.Get(pid)
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return p, true
}

func fdParam(c *gin.Context, name string) (int, bool) {
	fd, err := strconv.Atoi(c.Param(name))
	if err != nil || fd < 0 {
		fail(c, unix.EBADF)
		return 0, false
	}
	return fd, true
}
