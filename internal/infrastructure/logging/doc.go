// Package logging builds the daemon's zap logger.
//
// Production output is JSON, development output is colored console text.
// Every entry carries the service name and pid. Subsystem loggers share one
// level, which can be changed at runtime through SetLevel or the
// /log/level endpoint.
//
// Each syscall is logged at debug level by the sys package, stale epoll
// registrations at error level, and server lifecycle at info level.
//
//	logger, err := logging.New(logging.Config{Level: "info", Sampling: true})
//	sysLog := logger.Subsystem("sys")
//	sysLog.Debug("sys_read <= fd: 3")
package logging
