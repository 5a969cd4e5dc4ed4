package http

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sys/unix"
)

const encodingBase64 = "base64"

func flag(set bool, bit int) int {
	if set {
		return bit
	}
	return 0
}

// Pipe creates an anonymous pipe
func (h *Handlers) Pipe(c *gin.Context) {
	p, ok := h.process(c)
	if !ok {
		return
	}

	var req struct {
		NonBlock bool `json:"nonblock"`
		CloExec  bool `json:"cloexec"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	r, w, err := p.Sys.Pipe2(flag(req.NonBlock, unix.O_NONBLOCK) | flag(req.CloExec, unix.O_CLOEXEC))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"read_fd": r, "write_fd": w})
}

// Open opens one end of a named FIFO
func (h *Handlers) Open(c *gin.Context) {
	p, ok := h.process(c)
	if !ok {
		return
	}

	var req struct {
		Path     string `json:"path" binding:"required"`
		Access   string `json:"access" binding:"required,oneof=r w"`
		NonBlock bool   `json:"nonblock"`
		CloExec  bool   `json:"cloexec"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	flags := unix.O_RDONLY
	if req.Access == "w" {
		flags = unix.O_WRONLY
	}
	flags |= flag(req.NonBlock, unix.O_NONBLOCK) | flag(req.CloExec, unix.O_CLOEXEC)

	fd, err := p.Sys.Open(req.Path, flags)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"fd": fd})
}

// Read reads up to size bytes from a descriptor
func (h *Handlers) Read(c *gin.Context) {
	p, ok := h.process(c)
	if !ok {
		return
	}
	fd, ok := fdParam(c, "fd")
	if !ok {
		return
	}

	var req struct {
		Size     int    `json:"size" binding:"required,min=1,max=1048576"`
		Encoding string `json:"encoding" binding:"omitempty,oneof=base64"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	buf := make([]byte, req.Size)
	n, err := p.Sys.Read(fd, buf)
	if err != nil {
		fail(c, err)
		return
	}

	data := string(buf[:n])
	if req.Encoding == encodingBase64 {
		data = base64.StdEncoding.EncodeToString(buf[:n])
	}
	c.JSON(http.StatusOK, gin.H{"n": n, "data": data, "eof": n == 0})
}

// Write writes data to a descriptor
func (h *Handlers) Write(c *gin.Context) {
	p, ok := h.process(c)
	if !ok {
		return
	}
	fd, ok := fdParam(c, "fd")
	if !ok {
		return
	}

	var req struct {
		Data     string `json:"data"`
		Encoding string `json:"encoding" binding:"omitempty,oneof=base64"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	payload := []byte(req.Data)
	if req.Encoding == encodingBase64 {
		decoded, err := base64.StdEncoding.DecodeString(req.Data)
		if err != nil {
			badRequest(c, err)
			return
		}
		payload = decoded
	}

	n, err := p.Sys.Write(fd, payload)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"n": n, "partial": n < len(payload)})
}

// Fcntl toggles O_NONBLOCK and FD_CLOEXEC and reports the resulting flags
func (h *Handlers) Fcntl(c *gin.Context) {
	p, ok := h.process(c)
	if !ok {
		return
	}
	fd, ok := fdParam(c, "fd")
	if !ok {
		return
	}

	var req struct {
		NonBlock *bool `json:"nonblock"`
		CloExec  *bool `json:"cloexec"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if req.NonBlock != nil {
		if _, err := p.Sys.Fcntl(fd, unix.F_SETFL, flag(*req.NonBlock, unix.O_NONBLOCK)); err != nil {
			fail(c, err)
			return
		}
	}
	if req.CloExec != nil {
		if _, err := p.Sys.Fcntl(fd, unix.F_SETFD, flag(*req.CloExec, unix.FD_CLOEXEC)); err != nil {
			fail(c, err)
			return
		}
	}

	fl, err := p.Sys.Fcntl(fd, unix.F_GETFL, 0)
	if err != nil {
		fail(c, err)
		return
	}
	fdFlags, err := p.Sys.Fcntl(fd, unix.F_GETFD, 0)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"flags":    fl,
		"nonblock": fl&unix.O_NONBLOCK != 0,
		"cloexec":  fdFlags&unix.FD_CLOEXEC != 0,
	})
}

// Close releases a descriptor
func (h *Handlers) Close(c *gin.Context) {
	p, ok := h.process(c)
	if !ok {
		return
	}
	fd, ok := fdParam(c, "fd")
	if !ok {
		return
	}

	if err := p.Sys.Close(fd); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "fd": fd})
}

// Mkfifo creates a named FIFO in the shared namespace
func (h *Handlers) Mkfifo(c *gin.Context) {
	var req struct {
		Path string  `json:"path" binding:"required"`
		Mode *uint32 `json:"mode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	mode := uint32(0o644)
	if req.Mode != nil {
		mode = *req.Mode
	}
	if err := h.manager.Mkfifo(req.Path, mode); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"path": req.Path, "mode": mode})
}

// Unlink removes a named FIFO
func (h *Handlers) Unlink(c *gin.Context) {
	var req struct {
		Path string `json:"path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.manager.Unlink(req.Path); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "path": req.Path})
}

// ListFifos lists named FIFOs
func (h *Handlers) ListFifos(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"fifos": h.manager.Stats().Fifos})
}
