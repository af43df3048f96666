// Package codec converts messages to and from the bytes carried in a UDP
// datagram.
//
// The wire form is a UTF-8 JSON object:
//
//	{"thisMessageType":"CHAT","messageBody":"hello","fromAddress":"127.0.0.1:33445"}
//
// A codec created with WithEncryption owns a Curve25519 keypair generated at
// construction time. Every message type except JOIN is sealed to the codec's
// own public key before it leaves Encode. The keypair is never exported or
// exchanged, so only the codec that sealed a datagram can open it again.
// Real confidentiality between independent peers needs a key exchange that
// this package does not define.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/nacl/box"

	"github.com/opd-ai/ffpp/logging"
	"github.com/opd-ai/ffpp/message"
)

// MaxDatagramSize is the largest UDP payload that fits in an IPv4 datagram.
const MaxDatagramSize = 65507

// sealOverhead is the ciphertext expansion of box.SealAnonymous.
const sealOverhead = box.AnonymousOverhead

var (
	// ErrDecode is wrapped by every decode failure. A caller receiving it
	// got bytes that are not a message, which is different from getting
	// nothing at all.
	ErrDecode = errors.New("codec: could not decode message")
	// ErrInvalidBody is returned when a message body is not valid UTF-8
	// and would not survive the JSON wire format unchanged.
	ErrInvalidBody = errors.New("codec: body is not valid UTF-8")
	// ErrNilMessage is returned when Encode is given a nil message.
	ErrNilMessage = errors.New("codec: nil message")
	// ErrTooLarge is returned when an encoded message does not fit in one
	// datagram.
	ErrTooLarge = errors.New("codec: encoded message exceeds datagram size")
)

// Option configures a Codec.
type Option func(*Codec)

// WithEncryption enables sealing of every non-JOIN message.
func WithEncryption() Option {
	return func(c *Codec) {
		c.encrypt = true
	}
}

// Codec serializes messages. It holds no per-message state and is safe for
// concurrent use.
type Codec struct {
	encrypt bool
	keys    *keyPair
}

// New creates a codec. With WithEncryption a fresh keypair is generated.
func New(opts ...Option) (*Codec, error) {
	c := &Codec{}
	for _, opt := range opts {
		opt(c)
	}

	if c.encrypt {
		keys, err := generateKeyPair(nil)
		if err != nil {
			return nil, err
		}
		c.keys = keys

		logging.New("codec", "New").
			WithFields(logging.BytesPreview(keys.public[:8], "public_key")).
			Debug("Generated codec keypair")
	}

	return c, nil
}

// Encrypted reports whether the codec seals non-JOIN messages.
func (c *Codec) Encrypted() bool {
	return c.encrypt
}

// PublicKey returns the codec's public key, or nil for a plain codec.
func (c *Codec) PublicKey() []byte {
	if c.keys == nil {
		return nil
	}
	return append([]byte(nil), c.keys.public[:]...)
}

// Encode serializes msg. JOIN messages, and every message of a plain codec,
// are returned as JSON; other messages of an encrypting codec are sealed.
func (c *Codec) Encode(msg *message.Message) ([]byte, error) {
	if msg == nil {
		return nil, ErrNilMessage
	}
	log := logging.New("codec", "Encode").WithField("type", msg.Type.String())

	if !utf8.ValidString(msg.Body) {
		log.Warn("Message body is not valid UTF-8")
		return nil, fmt.Errorf("codec: encode %s: %w", msg.Type, ErrInvalidBody)
	}

	data, err := marshalWire(msg)
	if err != nil {
		log.WithError(err, "marshal").Warn("Failed to encode message")
		return nil, fmt.Errorf("codec: encode %s: %w", msg.Type, err)
	}
	log.WithFields(logging.BytesPreview(data, "json")).Debug("Message after encoding")

	if c.encrypt && msg.Type != message.Join {
		sealed, err := c.keys.seal(data)
		if err != nil {
			log.WithError(err, "seal").Warn("Failed to seal message")
			return nil, fmt.Errorf("codec: seal %s: %w", msg.Type, err)
		}
		log.WithField("sealed_size", len(sealed)).Debug("Sealed message")
		data = sealed
	}

	if len(data) > MaxDatagramSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}
	return data, nil
}

// Decode parses a plaintext datagram.
func (c *Codec) Decode(data []byte) (*message.Message, error) {
	msg, err := unmarshalWire(data)
	if err != nil {
		logging.New("codec", "Decode").
			WithFields(logging.BytesPreview(data, "data")).
			WithError(err, "unmarshal").
			Debug("Failed to decode datagram")
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return msg, nil
}

// DecodeEncrypted opens a sealed datagram with the codec's private key and
// parses the plaintext.
func (c *Codec) DecodeEncrypted(data []byte) (*message.Message, error) {
	if !c.encrypt {
		return nil, fmt.Errorf("%w: codec has no keypair", ErrDecode)
	}
	if len(data) < sealOverhead {
		return nil, fmt.Errorf("%w: sealed datagram too short (%d bytes)", ErrDecode, len(data))
	}

	plain, ok := c.keys.open(data)
	if !ok {
		logging.New("codec", "DecodeEncrypted").
			WithFields(logging.BytesPreview(data, "data")).
			Debug("Failed to open sealed datagram")
		return nil, fmt.Errorf("%w: decryption failed", ErrDecode)
	}
	return c.Decode(plain)
}

// DecodeAny decodes a datagram as the receive path sees it. A plain codec
// only accepts JSON. An encrypting codec accepts JOIN in the clear and
// sealed datagrams for everything else.
func (c *Codec) DecodeAny(data []byte) (*message.Message, error) {
	if !c.encrypt {
		return c.Decode(data)
	}

	if looksLikeJSON(data) {
		msg, err := c.Decode(data)
		if err == nil {
			if msg.Type != message.Join {
				return nil, fmt.Errorf("%w: plaintext %s message on encrypted codec", ErrDecode, msg.Type)
			}
			return msg, nil
		}
		// Sealed output starts with a random ephemeral key and may begin
		// with '{' by chance.
	}
	return c.DecodeEncrypted(data)
}

func looksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{'
}
