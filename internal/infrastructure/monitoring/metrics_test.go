package monitoring

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestCollectorsAreIndependent(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.IncProcessesTotal()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.ProcessesTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ProcessesTotal))
}

func TestRecordSyscall(t *testing.T) {
	m := NewMetrics()

	m.RecordSyscall("read", "", time.Millisecond)
	m.RecordSyscall("read", "EAGAIN", time.Millisecond)
	m.RecordSyscall("write", "EPIPE", time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyscallsTotal.WithLabelValues("read", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyscallErrors.WithLabelValues("read", "EAGAIN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyscallErrors.WithLabelValues("write", "EPIPE")))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalSyscalls)
	assert.Equal(t, int64(2), snap.SyscallErrors)
}

func TestAddBytes(t *testing.T) {
	m := NewMetrics()
	m.AddBytes("read", 10)
	m.AddBytes("write", 4)
	m.AddBytes("write", 0)

	snap := m.Snapshot()
	assert.Equal(t, int64(10), snap.BytesRead)
	assert.Equal(t, int64(4), snap.BytesWritten)
	assert.Equal(t, 4.0, testutil.ToFloat64(m.BytesTotal.WithLabelValues("write")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordSyscall("close", "", 0)
		m.AddBytes("read", 1)
		m.RecordEpollWait("timeout")
		m.AddFDs(1)
		m.SetProcessesActive(1)
		m.IncProcessesTotal()
		m.SetFifosNamed(1)
		NewTimer(m, "open").Stop("")
	})
}

func TestErrno(t *testing.T) {
	assert.Equal(t, "", Errno(nil))
	assert.Equal(t, "EPIPE", Errno(unix.EPIPE))
	assert.Equal(t, "EAGAIN", Errno(fmt.Errorf("wrapped: %w", unix.EAGAIN)))
	assert.Equal(t, "other", Errno(io.EOF))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/ping/:id", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping/1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/ping/:id", "200")))
	assert.Equal(t, int64(1), m.Snapshot().TotalRequests)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ipcd_http_requests_total")
	assert.Contains(t, w.Body.String(), "ipcd_uptime_seconds")
}
