package fifo

// NewPipe creates an anonymous pipe and returns its read and write ends.
// Both ends are open on return, so neither side waits for a peer.
func NewPipe(capacity int, nonBlocking bool) (r, w *Endpoint) {
	return New(capacity).openPair(nonBlocking)
}
