package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/netip"
	"sort"

	"github.com/opd-ai/ffpp/message"
)

// Wire member names.
const (
	fieldType = "thisMessageType"
	fieldBody = "messageBody"
	fieldPeer = "fromAddress"
)

var errMissingType = errors.New("missing " + fieldType)

type wireMessage struct {
	Type message.MessageType `json:"thisMessageType"`
	Body string              `json:"messageBody"`
	Peer string              `json:"fromAddress"`
}

func isKnownField(name string) bool {
	return name == fieldType || name == fieldBody || name == fieldPeer
}

// marshalWire emits the three known members first, then any extension
// members in key order.
func marshalWire(msg *message.Message) ([]byte, error) {
	data, err := json.Marshal(wireMessage{
		Type: msg.Type,
		Body: msg.Body,
		Peer: message.FormatEndpoint(msg.Peer),
	})
	if err != nil {
		return nil, err
	}
	if len(msg.Extension) == 0 {
		return data, nil
	}

	keys := make([]string, 0, len(msg.Extension))
	for k := range msg.Extension {
		if !isKnownField(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := data[:len(data)-1]
	for _, k := range keys {
		v := msg.Extension[k]
		if !json.Valid(v) {
			return nil, fmt.Errorf("extension member %q is not valid JSON", k)
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		out = append(out, ',')
		out = append(out, name...)
		out = append(out, ':')
		out = append(out, v...)
	}
	return append(out, '}'), nil
}

// unmarshalWire parses a JSON object into a message. It never returns a
// partially populated message.
func unmarshalWire(data []byte) (*message.Message, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, err
	}
	if members == nil {
		return nil, errors.New("not a JSON object")
	}

	rawType, ok := members[fieldType]
	if !ok || string(rawType) == "null" {
		return nil, errMissingType
	}

	var msg message.Message
	if err := json.Unmarshal(rawType, &msg.Type); err != nil {
		return nil, fmt.Errorf("%s: %w", fieldType, err)
	}

	if rawBody, ok := members[fieldBody]; ok {
		if err := json.Unmarshal(rawBody, &msg.Body); err != nil {
			return nil, fmt.Errorf("%s: %w", fieldBody, err)
		}
	}

	if rawPeer, ok := members[fieldPeer]; ok {
		var peer string
		if err := json.Unmarshal(rawPeer, &peer); err != nil {
			return nil, fmt.Errorf("%s: %w", fieldPeer, err)
		}
		if peer != "" {
			ap, err := netip.ParseAddrPort(peer)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", fieldPeer, err)
			}
			msg.Peer = message.NormalizeEndpoint(ap)
		}
	}

	for k, v := range members {
		if isKnownField(k) {
			continue
		}
		if msg.Extension == nil {
			msg.Extension = make(map[string]json.RawMessage)
		}
		msg.Extension[k] = v
	}

	return &msg, nil
}
