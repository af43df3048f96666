package transport

// queued reports whether a datagram is waiting. Darwin has no byte count
// ioctl in x/sys, so the answer is 1 or 0.
func queued(fd int) (int, error) {
	return peek(fd)
}
