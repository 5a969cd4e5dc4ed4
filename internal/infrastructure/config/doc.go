// Package config provides 12-factor configuration management for ipcd.
//
// Configuration starts from Default, is overlaid by an optional file
// (IPCD_CONFIG or the -config flag; .yaml, .toml or .json), and finally by
// environment variables, which always win.
//
// Configuration Sections:
//   - Server: HTTP control plane settings (port, host)
//   - Kernel: pipe capacity, descriptor limit, epoll batch limit
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s\n", cfg.Addr())
//
// Environment Variables:
//   - PORT, HOST
//   - IPC_PIPE_CAPACITY, IPC_MAX_FDS, IPC_MAX_EVENTS
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
