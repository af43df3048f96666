// Package transport owns the UDP socket used to exchange datagrams with
// remote peers.
//
// A UDPTransport is bound once, reports the endpoint it actually bound (a
// requested port of zero yields an ephemeral port), and exposes only byte
// level operations: SendTo, a blocking ReceiveFrom, an Available query and
// Close. It does not interpret payloads and it does not swallow errors;
// classification is left to callers through IsTransient and IsClosed.
//
// Example:
//
//	t, err := transport.Listen("", 0, transport.DefaultBufferSize)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer t.Close()
//
//	fmt.Println("bound to", t.LocalAddr())
//
// # Readiness
//
// On Linux Available asks the kernel for the size of the next datagram
// (SIOCINQ) and falls back to a non-blocking peek so that a queued
// zero-length datagram is still reported. Darwin uses the peek alone and
// reports 1 for a waiting datagram. Other platforms read one datagram with a
// short deadline and keep it until the next ReceiveFrom.
//
// # Shutdown
//
// Close is idempotent. After Close every operation fails with an error for
// which IsClosed reports true, and a goroutine blocked in ReceiveFrom
// returns promptly.
package transport
