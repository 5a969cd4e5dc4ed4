// Package server assembles the ipcd control plane: the process manager, the
// gin router with its middleware, and the HTTP listener.
package server
