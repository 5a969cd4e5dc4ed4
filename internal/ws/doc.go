// Package ws streams pipe descriptors over WebSocket.
//
// GET /processes/:pid/fds/:fd/stream upgrades the connection and, depending
// on the descriptor's direction:
//   - read end: every successful read is sent as one binary frame; end of
//     stream sends {"type":"eof"} and a normal close
//   - write end: every client frame is written to the pipe and answered with
//     {"type":"ack","n":N}
//
// Writes block like the syscall they wrap. Reads never park in the pipe: an
// empty pipe is retried every poll interval until data arrives or the client
// leaves. A failing syscall is reported as {"type":"error","code":"EPIPE",...} followed by a close frame.
//
// Example Usage:
//
//	handler := ws.NewHandler(manager, metrics, logger)
//	router.GET("/processes/:pid/fds/:fd/stream", handler.HandleStream)
package ws
