package communicator

import (
	"fmt"
	"time"

	"github.com/opd-ai/ffpp/transport"
)

const (
	// DefaultPollInterval is how long the receive loops sleep between
	// readiness checks.
	DefaultPollInterval = 10 * time.Millisecond
	// DefaultMaxResendAttempts is the instance-wide resend ceiling.
	DefaultMaxResendAttempts = 3
)

// Options configures a Communicator.
type Options struct {
	// LocalPort is the UDP port to bind. Zero requests an ephemeral port.
	LocalPort int
	// BindAddress restricts the socket to one local address. Empty binds
	// all interfaces.
	BindAddress string
	// PollInterval is the readiness polling granularity of Listen and
	// Receive.
	PollInterval time.Duration
	// MaxResendAttempts caps the number of Resend calls allowed over the
	// lifetime of the communicator.
	MaxResendAttempts int
	// Encryption seals every non-JOIN message with the codec's own key.
	Encryption bool
	// ReceiveBufferSize bounds the largest datagram that can be received.
	ReceiveBufferSize int
}

// NewOptions returns the default options.
func NewOptions() *Options {
	return &Options{
		LocalPort:         0,
		PollInterval:      DefaultPollInterval,
		MaxResendAttempts: DefaultMaxResendAttempts,
		ReceiveBufferSize: transport.DefaultBufferSize,
	}
}

// Validate checks option ranges.
func (o *Options) Validate() error {
	if o.LocalPort < 0 || o.LocalPort > 65535 {
		return fmt.Errorf("communicator: local port %d out of range", o.LocalPort)
	}
	if o.PollInterval <= 0 {
		return fmt.Errorf("communicator: poll interval must be positive, got %s", o.PollInterval)
	}
	if o.MaxResendAttempts < 0 {
		return fmt.Errorf("communicator: max resend attempts must not be negative, got %d", o.MaxResendAttempts)
	}
	if o.ReceiveBufferSize < 0 {
		return fmt.Errorf("communicator: receive buffer size must not be negative, got %d", o.ReceiveBufferSize)
	}
	return nil
}
