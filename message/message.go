// Package message defines the typed messages exchanged between a server and
// its peers: join requests, acknowledgments, heartbeats and chat lines.
//
// A Message is plain data. The codec package turns it into wire bytes and the
// communicator package stamps the peer endpoint when sending and receiving.
//
// Example:
//
//	msg := message.New(message.Chat, "hello")
//	peer, err := message.ParseEndpoint("127.0.0.1:33445")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	comm.Send(msg, peer)
package message

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrUnknownType is returned when a message type name is not one of the
// known wire names.
var ErrUnknownType = errors.New("message: unknown message type")

// MessageType identifies the kind of a message.
type MessageType uint8

const (
	// Join is sent by a peer that wants to take part. It always travels in
	// the clear.
	Join MessageType = iota
	// Ack acknowledges a previous message.
	Ack
	// Heartbeat keeps a peer registered.
	Heartbeat
	// Chat carries free-form text.
	Chat
)

var typeNames = [...]string{
	Join:      "JOIN",
	Ack:       "ACK",
	Heartbeat: "HB",
	Chat:      "CHAT",
}

// String returns the wire name of the message type.
func (t MessageType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("MessageType(%d)", uint8(t))
}

// Valid reports whether t is one of the known message types.
func (t MessageType) Valid() bool {
	return int(t) < len(typeNames)
}

// ParseMessageType converts a wire name back to a MessageType.
func ParseMessageType(name string) (MessageType, error) {
	for i, n := range typeNames {
		if n == name {
			return MessageType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// MarshalText implements encoding.TextMarshaler.
func (t MessageType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *MessageType) UnmarshalText(text []byte) error {
	parsed, err := ParseMessageType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Message is the unit of communication.
//
// Type and Body are fixed once the message is created. Peer is the only
// field that changes afterwards: the sender stamps the destination on send
// and the receiver stamps the observed source address on receive. A zero
// Peer means no endpoint is known.
type Message struct {
	Type MessageType
	Body string
	Peer Endpoint

	// Extension holds wire members this package does not know about. They
	// are carried through decode and encode untouched.
	Extension map[string]json.RawMessage
}

// New creates a message of the given type.
func New(msgType MessageType, body string) *Message {
	logrus.WithFields(logrus.Fields{
		"function": "New",
		"package":  "message",
		"type":     msgType.String(),
	}).Info("Input message: " + body)

	return &Message{
		Type: msgType,
		Body: body,
	}
}

// HasPeer reports whether an endpoint has been stamped on the message.
func (m *Message) HasPeer() bool {
	return m.Peer.IsValid()
}

// Clone returns a copy of the message that shares nothing with m.
func (m *Message) Clone() *Message {
	c := &Message{
		Type: m.Type,
		Body: m.Body,
		Peer: m.Peer,
	}
	if m.Extension != nil {
		c.Extension = make(map[string]json.RawMessage, len(m.Extension))
		for k, v := range m.Extension {
			c.Extension[k] = append(json.RawMessage(nil), v...)
		}
	}
	return c
}

// Equal reports whether two messages carry the same type, body and peer.
// Extension data is not compared.
func (m *Message) Equal(other *Message) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.Type == other.Type && m.Body == other.Body && m.Peer == other.Peer
}

// String returns a short description suitable for log lines.
func (m *Message) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s(%q", m.Type, m.Body)
	if m.HasPeer() {
		fmt.Fprintf(&b, " peer=%s", m.Peer)
	}
	b.WriteByte(')')
	return b.String()
}
