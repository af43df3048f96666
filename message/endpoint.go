package message

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
)

// ErrInvalidEndpoint is returned when an endpoint string cannot be parsed
// or resolved.
var ErrInvalidEndpoint = errors.New("message: invalid endpoint")

// Endpoint identifies one side of a UDP conversation. It is a value type;
// two endpoints are the same peer when they compare equal.
type Endpoint = netip.AddrPort

// ParseEndpoint parses a "host:port" string. Literal addresses are parsed
// directly; host names are resolved through the system resolver.
// IPv4-mapped IPv6 addresses are unmapped so that equal peers compare equal.
func ParseEndpoint(s string) (Endpoint, error) {
	if s == "" {
		return Endpoint{}, fmt.Errorf("%w: empty", ErrInvalidEndpoint)
	}

	if ap, err := netip.ParseAddrPort(s); err == nil {
		return NormalizeEndpoint(ap), nil
	}

	addr, err := net.ResolveUDPAddr("udp", s)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: %q: %v", ErrInvalidEndpoint, s, err)
	}
	ap := addr.AddrPort()
	if !ap.IsValid() {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrInvalidEndpoint, s)
	}
	return NormalizeEndpoint(ap), nil
}

// FormatEndpoint renders an endpoint in host:port form, or "" for the zero
// endpoint.
func FormatEndpoint(ep Endpoint) string {
	if !ep.IsValid() {
		return ""
	}
	return ep.String()
}

// NormalizeEndpoint strips the IPv4-in-IPv6 mapping from an address.
func NormalizeEndpoint(ep Endpoint) Endpoint {
	if !ep.IsValid() {
		return ep
	}
	return netip.AddrPortFrom(ep.Addr().Unmap(), ep.Port())
}
