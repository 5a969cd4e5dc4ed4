/*
Package monitoring provides metrics collection for the IPC daemon.

# Overview

Metrics are registered on a private Prometheus registry per collector, so
several collectors can coexist in one binary (tests create one each).

# Features

- HTTP request metrics (latency, throughput, size)
- Syscall counts, durations and errno breakdown
- Bytes moved through pipes by direction
- epoll_wait outcomes
- Process, descriptor and named FIFO gauges
- WebSocket stream metrics

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "read")
	n, err := file.Read(buf)
	timer.Stop(monitoring.Errno(err))

Syscall recorders accept a nil *Metrics and do nothing.
*/
package monitoring
