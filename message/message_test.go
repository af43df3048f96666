package message

import (
	"encoding/json"
	"errors"
	"net/netip"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMessageTypeString tests wire names of the message types.
func TestMessageTypeString(t *testing.T) {
	tests := []struct {
		msgType MessageType
		want    string
	}{
		{Join, "JOIN"},
		{Ack, "ACK"},
		{Heartbeat, "HB"},
		{Chat, "CHAT"},
		{MessageType(42), "MessageType(42)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.msgType.String())
		})
	}
}

func TestParseMessageType(t *testing.T) {
	for _, mt := range []MessageType{Join, Ack, Heartbeat, Chat} {
		got, err := ParseMessageType(mt.String())
		require.NoError(t, err)
		assert.Equal(t, mt, got)
	}

	_, err := ParseMessageType("HEARTBEAT")
	assert.True(t, errors.Is(err, ErrUnknownType))

	_, err = ParseMessageType("chat")
	assert.True(t, errors.Is(err, ErrUnknownType), "names are case sensitive")
}

func TestMessageTypeJSON(t *testing.T) {
	data, err := json.Marshal(Heartbeat)
	require.NoError(t, err)
	assert.Equal(t, `"HB"`, string(data))

	var mt MessageType
	require.NoError(t, json.Unmarshal([]byte(`"CHAT"`), &mt))
	assert.Equal(t, Chat, mt)

	assert.Error(t, json.Unmarshal([]byte(`"NOPE"`), &mt))

	_, err = json.Marshal(MessageType(9))
	assert.Error(t, err)
}

func TestNewMessage(t *testing.T) {
	m := New(Chat, "hello")

	assert.Equal(t, Chat, m.Type)
	assert.Equal(t, "hello", m.Body)
	assert.False(t, m.HasPeer())
	assert.Nil(t, m.Extension)
}

// TestNewLogsInputBody tests that New reports the body it was given at Info.
func TestNewLogsInputBody(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	New(Heartbeat, "still here")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "Input message: still here", entry.Message)
	assert.Equal(t, "New", entry.Data["function"])
}

func TestCloneIsIndependent(t *testing.T) {
	m := New(Ack, "ok")
	m.Peer = netip.MustParseAddrPort("10.0.0.1:9000")
	m.Extension = map[string]json.RawMessage{"seq": json.RawMessage(`7`)}

	c := m.Clone()
	require.True(t, m.Equal(c))

	c.Peer = netip.MustParseAddrPort("10.0.0.2:9000")
	c.Extension["seq"][0] = '8'

	assert.Equal(t, "10.0.0.1:9000", m.Peer.String())
	assert.Equal(t, `7`, string(m.Extension["seq"]))
}

func TestMessageEqual(t *testing.T) {
	a := New(Chat, "x")
	b := New(Chat, "x")
	assert.True(t, a.Equal(b))

	b.Body = "y"
	assert.False(t, a.Equal(b))

	var nilMsg *Message
	assert.True(t, nilMsg.Equal(nil))
	assert.False(t, a.Equal(nil))
}

func TestMessageString(t *testing.T) {
	m := New(Chat, "hi")
	assert.Equal(t, `CHAT("hi")`, m.String())

	m.Peer = netip.MustParseAddrPort("127.0.0.1:1")
	assert.Equal(t, `CHAT("hi" peer=127.0.0.1:1)`, m.String())
}

// TestParseEndpoint tests endpoint parsing.
func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "ipv4", input: "127.0.0.1:9000", want: "127.0.0.1:9000"},
		{name: "ipv6", input: "[::1]:9000", want: "[::1]:9000"},
		{name: "mapped ipv4", input: "[::ffff:10.1.2.3]:53", want: "10.1.2.3:53"},
		{name: "empty", input: "", wantErr: true},
		{name: "missing port", input: "127.0.0.1", wantErr: true},
		{name: "bad port", input: "127.0.0.1:99999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEndpoint(tt.input)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidEndpoint), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.IsValid())
			if tt.want != "" {
				assert.Equal(t, tt.want, got.String())
			}
		})
	}
}

func TestFormatEndpoint(t *testing.T) {
	assert.Equal(t, "", FormatEndpoint(Endpoint{}))
	assert.Equal(t, "1.2.3.4:5", FormatEndpoint(netip.MustParseAddrPort("1.2.3.4:5")))
}
