// Package main is the entry point for ipcd, an in-memory IPC core that
// serves pipes, named FIFOs and epoll over HTTP and WebSocket.
//
// Configuration layers, lowest to highest precedence:
//   - Built-in defaults
//   - A YAML, TOML or JSON file (-config or IPCD_CONFIG)
//   - Environment variables
//   - CLI flags
//
// Usage:
//
//	./ipcd -port 8000
//	./ipcd -config ipcd.yaml -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
