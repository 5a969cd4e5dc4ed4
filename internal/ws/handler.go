package ws

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/GriffinCanCode/AgentOS/ipcd/internal/domain/process"
	"github.com/GriffinCanCode/AgentOS/ipcd/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/ipcd/internal/kernel/sys"
	"github.com/GriffinCanCode/AgentOS/ipcd/internal/shared/id"
)

// ChunkSize is the largest read forwarded as one frame.
const ChunkSize = 4096

const (
	writeWait    = 10 * time.Second
	pollInterval = 20 * time.Millisecond
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  ChunkSize,
	WriteBufferSize: ChunkSize,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler bridges WebSocket connections to pipe descriptors.
type Handler struct {
	manager *process.Manager
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(manager *process.Manager, metrics *monitoring.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{manager: manager, metrics: metrics, logger: logger}
}

// HandleStream upgrades the request and streams a descriptor. A read end is
// pumped to the client as binary frames until end of stream; a write end
// takes every client frame and writes it to the pipe.
func (h *Handler) HandleStream(c *gin.Context) {
	pid, err := id.ParseProcessID(c.Param("pid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.manager.Get(pid)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	fd, err := strconv.Atoi(c.Param("fd"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fd"})
		return
	}
	flags, err := p.Sys.Fcntl(fd, unix.F_GETFL, 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	sid := id.NewStreamID()
	log := h.logger.With(zap.String("stream", sid.String()), zap.String("pid", pid.String()), zap.Int("fd", fd))

	switch flags & unix.O_ACCMODE {
	case unix.O_RDONLY:
		h.send(conn, gin.H{"type": "stream_start", "stream_id": sid, "fd": fd, "access": "r"})
		h.pumpOut(conn, p.Sys, fd, log)
	case unix.O_WRONLY:
		h.send(conn, gin.H{"type": "stream_start", "stream_id": sid, "fd": fd, "access": "w"})
		h.pumpIn(conn, p.Sys, fd, log)
	default:
		h.sendError(conn, unix.EINVAL)
		h.closeWith(conn, websocket.CloseUnsupportedData, "descriptor is not a pipe end")
	}
}

// pumpOut forwards reads from fd until end of stream, error or client
// disconnect. It never parks in the pipe, so an idle stream notices the
// client leaving within one poll interval.
func (h *Handler) pumpOut(conn *websocket.Conn, s *sys.Process, fd int, log *zap.Logger) {
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	buf := make([]byte, ChunkSize)
	for {
		n, err := s.TryRead(fd, buf)
		if errors.Is(err, unix.EAGAIN) {
			select {
			case <-gone:
				return
			case <-time.After(pollInterval):
			}
			continue
		}
		if err != nil {
			log.Debug("stream read failed", zap.Error(err))
			h.sendError(conn, err)
			h.closeWith(conn, websocket.CloseInternalServerErr, monitoring.Errno(err))
			return
		}
		if n == 0 {
			h.send(conn, gin.H{"type": "eof"})
			h.closeWith(conn, websocket.CloseNormalClosure, "eof")
			return
		}

		select {
		case <-gone:
			log.Debug("stream client went away")
			return
		default:
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); err != nil {
			log.Debug("stream write to client failed", zap.Error(err))
			return
		}
		h.metrics.RecordWSMessage("out", "binary")
	}
}

// pumpIn writes every client frame to fd and acknowledges the count.
func (h *Handler) pumpIn(conn *websocket.Conn, s *sys.Process, fd int, log *zap.Logger) {
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				log.Debug("stream read from client failed", zap.Error(err))
			}
			return
		}
		h.metrics.RecordWSMessage("in", messageType(kind))

		n, err := s.Write(fd, data)
		if err != nil {
			h.sendError(conn, err)
			h.closeWith(conn, websocket.CloseInternalServerErr, monitoring.Errno(err))
			return
		}
		if err := h.send(conn, gin.H{"type": "ack", "n": n}); err != nil {
			return
		}
	}
}

func messageType(kind int) string {
	if kind == websocket.TextMessage {
		return "text"
	}
	return "binary"
}

func (h *Handler) send(conn *websocket.Conn, data any) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(data)
}

func (h *Handler) sendError(conn *websocket.Conn, err error) error {
	return h.send(conn, gin.H{
		"type":      "error",
		"message":   err.Error(),
		"code":      monitoring.Errno(err),
		"timestamp": time.Now().Unix(),
	})
}

func (h *Handler) closeWith(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
