package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sys/unix"

	"github.com/GriffinCanCode/AgentOS/ipcd/internal/domain/process"
	"github.com/GriffinCanCode/AgentOS/ipcd/internal/infrastructure/monitoring"
)

var errnoStatus = map[unix.Errno]int{
	unix.EBADF:  http.StatusBadRequest,
	unix.EINVAL: http.StatusBadRequest,
	unix.EFAULT: http.StatusBadRequest,
	unix.ESPIPE: http.StatusBadRequest,
	unix.EPERM:  http.StatusForbidden,
	unix.ENOENT: http.StatusNotFound,
	unix.EEXIST: http.StatusConflict,
	unix.EAGAIN: http.StatusConflict,
	unix.ENXIO:  http.StatusGone,
	unix.EPIPE:  http.StatusGone,
	unix.EMFILE: http.StatusServiceUnavailable,
	unix.ENOSYS: http.StatusNotImplemented,
}

// Status maps an error from the kernel layer to an HTTP status code.
func Status(err error) int {
	var errno unix.Errno
	switch {
	case errors.As(err, &errno):
		if status, ok := errnoStatus[errno]; ok {
			return status
		}
		return http.StatusInternalServerError
	case errors.Is(err, process.ErrProcessNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}

	var errno unix.Errno
	if errors.As(err, &errno) {
		body["errno"] = int(errno)
		body["code"] = monitoring.Errno(errno)
	}
	c.AbortWithStatusJSON(Status(err), body)
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
}
