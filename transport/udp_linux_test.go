package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAvailableReportsDatagramSize tests that Available returns the size of
// the queued datagram on Linux.
func TestAvailableReportsDatagramSize(t *testing.T) {
	a := newLoopback(t)
	b := newLoopback(t)

	payload := []byte("hello")
	_, err := a.SendTo(payload, b.LocalAddr())
	require.NoError(t, err)

	waitAvailable(t, b)

	n, err := b.Available()
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
}
