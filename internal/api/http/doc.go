/*
Package http exposes the IPC core over a gin control plane.

Each route maps onto one syscall of a process created through POST
/processes. Syscall failures are returned as

	{"error": "broken pipe", "errno": 32, "code": "EPIPE"}

with an HTTP status derived from the errno (see Status).

Blocking opens, reads and writes run in the request goroutine; clients that
must not hold a request pass "nonblock": true or use fcntl first.
*/
package http
