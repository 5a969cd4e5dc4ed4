package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ipcd"

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Syscall metrics
	SyscallsTotal   *prometheus.CounterVec
	SyscallDuration *prometheus.HistogramVec
	SyscallErrors   *prometheus.CounterVec
	BytesTotal      *prometheus.CounterVec
	EpollWaits      *prometheus.CounterVec

	// Resource metrics
	ProcessesActive prometheus.Gauge
	ProcessesTotal  prometheus.Counter
	FDsOpen         prometheus.Gauge
	FifosNamed      prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests   int64   `json:"total_requests"`
	TotalErrors     int64   `json:"total_errors"`
	TotalSyscalls   int64   `json:"total_syscalls"`
	SyscallErrors   int64   `json:"syscall_errors"`
	BytesRead       int64   `json:"bytes_read"`
	BytesWritten    int64   `json:"bytes_written"`
	ActiveProcesses int64   `json:"active_processes"`
	TotalDuration   float64 `json:"total_duration_seconds"`
}

// NewMetrics creates a metrics collector backed by its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_size_bytes",
				Help:      "HTTP request size in bytes",
				Buckets:   []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Syscall metrics
		SyscallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "syscalls_total",
				Help:      "Total number of syscalls by name and result",
			},
			[]string{"syscall", "result"},
		),
		SyscallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "syscall_duration_seconds",
				Help:      "Syscall duration in seconds, including time spent blocked",
				Buckets:   []float64{.00001, .0001, .001, .01, .1, 1, 10},
			},
			[]string{"syscall"},
		),
		SyscallErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "syscall_errors_total",
				Help:      "Total number of failed syscalls by errno",
			},
			[]string{"syscall", "errno"},
		),
		BytesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipe_bytes_total",
				Help:      "Bytes moved through pipes",
			},
			[]string{"direction"},
		),
		EpollWaits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "epoll_waits_total",
				Help:      "epoll_wait calls by outcome",
			},
			[]string{"outcome"},
		),

		// Resource metrics
		ProcessesActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "processes_active",
				Help:      "Number of live processes",
			},
		),
		ProcessesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "processes_total",
				Help:      "Total number of processes created",
			},
		),
		FDsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "fds_open",
				Help:      "Number of open descriptors across all processes",
			},
		),
		FifosNamed: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "fifos_named",
				Help:      "Number of named FIFOs in the namespace",
			},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ws_connections",
				Help:      "Number of active WebSocket streams",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ws_messages_total",
				Help:      "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Daemon uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry returns the registry all metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordSyscall records one syscall. errno is empty on success.
func (m *Metrics) RecordSyscall(name, errno string, duration time.Duration) {
	if m == nil {
		return
	}

	result := "ok"
	if errno != "" {
		result = "error"
		m.SyscallErrors.WithLabelValues(name, errno).Inc()
	}
	m.SyscallsTotal.WithLabelValues(name, result).Inc()
	m.SyscallDuration.WithLabelValues(name).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalSyscalls++
	if errno != "" {
		m.snapshot.SyscallErrors++
	}
	m.mu.Unlock()
}

// AddBytes records n bytes moved in direction "read" or "write".
func (m *Metrics) AddBytes(direction string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BytesTotal.WithLabelValues(direction).Add(float64(n))

	m.mu.Lock()
	switch direction {
	case "read":
		m.snapshot.BytesRead += int64(n)
	case "write":
		m.snapshot.BytesWritten += int64(n)
	}
	m.mu.Unlock()
}

// RecordEpollWait records how an epoll_wait call ended.
func (m *Metrics) RecordEpollWait(outcome string) {
	if m == nil {
		return
	}
	m.EpollWaits.WithLabelValues(outcome).Inc()
}

// AddFDs adjusts the open descriptor gauge.
func (m *Metrics) AddFDs(delta int) {
	if m == nil {
		return
	}
	m.FDsOpen.Add(float64(delta))
}

// SetFifosNamed sets the named FIFO gauge.
func (m *Metrics) SetFifosNamed(count int) {
	if m == nil {
		return
	}
	m.FifosNamed.Set(float64(count))
}

// SetProcessesActive sets the number of live processes
func (m *Metrics) SetProcessesActive(count int) {
	if m == nil {
		return
	}
	m.ProcessesActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveProcesses = int64(count)
	m.mu.Unlock()
}

// IncProcessesTotal increments the created processes counter
func (m *Metrics) IncProcessesTotal() {
	if m == nil {
		return
	}
	m.ProcessesTotal.Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}

// Snapshot returns the current JSON-friendly counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// UptimeSeconds returns time since the collector was created.
func (m *Metrics) UptimeSeconds() float64 {
	return time.Since(m.startTime).Seconds()
}
