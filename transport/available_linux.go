package transport

import "golang.org/x/sys/unix"

// queued asks the kernel for the size of the next datagram. SIOCINQ reports
// zero both for an empty socket and for a queued zero-length datagram, so a
// zero answer is confirmed with a non-blocking peek.
func queued(fd int) (int, error) {
	n, err := unix.IoctlGetInt(fd, unix.SIOCINQ)
	if err != nil || n > 0 {
		return n, err
	}
	return peek(fd)
}
