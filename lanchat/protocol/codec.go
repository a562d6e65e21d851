package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

var (
	ErrMalformed   = errors.New("protocol: malformed message")
	ErrNilMessage  = errors.New("protocol: nil message")
	ErrUnknownType = errors.New("protocol: unknown message type")
)

type handshakeBody struct {
	PublicKey []byte `json:"public_key"`
}

type chatBody struct {
	Ciphertext []byte `json:"ciphertext"`
	Nonce      []byte `json:"nonce"`
}

type ackBody struct {
	Sequence uint64 `json:"sequence"`
}

// fields lists the exact key set each variant body must carry.
var fields = map[MessageType][]string{
	MessageTypeHandshake: {"public_key"},
	MessageTypeChat:      {"ciphertext", "nonce"},
	MessageTypeAck:       {"sequence"},
}

// Encode serializes m. It fails only for a nil message.
func Encode(m Message) ([]byte, error) {
	var body any
	switch v := m.(type) {
	case Handshake:
		body = handshakeBody{PublicKey: v.PublicKey[:]}
	case Chat:
		ct := v.Ciphertext
		if ct == nil {
			ct = []byte{}
		}
		body = chatBody{Ciphertext: ct, Nonce: v.Nonce[:]}
	case Ack:
		body = ackBody{Sequence: v.Sequence}
	case nil:
		return nil, ErrNilMessage
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownType, m)
	}
	return json.Marshal(map[string]any{m.Type().tag(): body})
}

// Decode parses one encoded message. Unknown tags, several tags, missing,
// extra, repeated or null fields and wrong-length keys or nonces are
// ErrMalformed.
func Decode(b []byte) (Message, error) {
	env, err := object(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(env) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one variant, got %d", ErrMalformed, len(env))
	}
	for tag, raw := range env {
		switch tag {
		case MessageTypeHandshake.tag():
			var body handshakeBody
			if err := decodeBody(MessageTypeHandshake, raw, &body); err != nil {
				return nil, err
			}
			var m Handshake
			if len(body.PublicKey) != len(m.PublicKey) {
				return nil, fmt.Errorf("%w: public key is %d bytes", ErrMalformed, len(body.PublicKey))
			}
			copy(m.PublicKey[:], body.PublicKey)
			return m, nil
		case MessageTypeChat.tag():
			var body chatBody
			if err := decodeBody(MessageTypeChat, raw, &body); err != nil {
				return nil, err
			}
			var m Chat
			if len(body.Nonce) != len(m.Nonce) {
				return nil, fmt.Errorf("%w: nonce is %d bytes", ErrMalformed, len(body.Nonce))
			}
			copy(m.Nonce[:], body.Nonce)
			m.Ciphertext = body.Ciphertext
			if m.Ciphertext == nil {
				m.Ciphertext = []byte{}
			}
			return m, nil
		case MessageTypeAck.tag():
			var body ackBody
			if err := decodeBody(MessageTypeAck, raw, &body); err != nil {
				return nil, err
			}
			return Ack{Sequence: body.Sequence}, nil
		default:
			return nil, fmt.Errorf("%w: unknown variant %q", ErrMalformed, tag)
		}
	}
	panic("unreachable")
}

// decodeBody checks raw carries exactly the key set of t, no nulls, then
// decodes it into out.
func decodeBody(t MessageType, raw json.RawMessage, out any) error {
	obj, err := object(raw)
	if err != nil {
		return fmt.Errorf("%w: %s body: %v", ErrMalformed, t, err)
	}
	got := make([]string, 0, len(obj))
	for k, v := range obj {
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return fmt.Errorf("%w: %s field %q is null", ErrMalformed, t, k)
		}
		got = append(got, k)
	}
	sort.Strings(got)
	want := fields[t]
	if strings.Join(got, ",") != strings.Join(want, ",") {
		return fmt.Errorf("%w: %s fields [%s], want [%s]", ErrMalformed, t, strings.Join(got, ","), strings.Join(want, ","))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, t, err)
	}
	return nil
}

// object splits one JSON object into its members. Unlike decoding into a
// map it rejects repeated keys instead of keeping the last one.
func object(b []byte) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("not an object")
	}
	obj := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected %v", tok)
		}
		if _, dup := obj[key]; dup {
			return nil, fmt.Errorf("repeated key %q", key)
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		obj[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after object")
	}
	return obj, nil
}
