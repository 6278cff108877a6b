package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// Websocket subprotocols understood by the coordinator.
const (
	SubprotocolJSON    = "interview.v1.json"
	SubprotocolMsgpack = "interview.v1.msgpack"
)

// Subprotocols lists the supported subprotocols in server preference order.
var Subprotocols = []string{SubprotocolJSON, SubprotocolMsgpack}

var ErrNoPayload = errors.New("frame has no payload")

// Codec turns envelopes into websocket frames and back.
type Codec interface {
	Subprotocol() string
	// FrameType is the websocket message type the codec writes.
	FrameType() int
	Encode(msg *Message) ([]byte, error)
	Decode(data []byte) (*Inbound, error)
}

// Inbound is a decoded envelope whose payload has not been bound yet.
type Inbound struct {
	Type string
	bind func(v any) error
}

// Bind decodes the payload into v.
func (in *Inbound) Bind(v any) error {
	if in.bind == nil {
		return ErrNoPayload
	}
	return in.bind(v)
}

// CodecFor returns the codec for a negotiated subprotocol. An empty or
// unknown subprotocol falls back to JSON.
func CodecFor(subprotocol string) Codec {
	if subprotocol == SubprotocolMsgpack {
		return MsgpackCodec{}
	}
	return JSONCodec{}
}

// JSONCodec writes text frames.
type JSONCodec struct{}

func (JSONCodec) Subprotocol() string { return SubprotocolJSON }

func (JSONCodec) FrameType() int { return websocket.TextMessage }

func (JSONCodec) Encode(msg *Message) ([]byte, error) {
	return json.Marshal(msg)
}

func (JSONCodec) Decode(data []byte) (*Inbound, error) {
	var env struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode json frame: %w", err)
	}
	if env.Type == "" {
		return nil, errors.New("decode json frame: missing type")
	}

	in := &Inbound{Type: env.Type}
	if len(env.Payload) > 0 && !bytes.Equal(env.Payload, []byte("null")) {
		raw := env.Payload
		in.bind = func(v any) error { return json.Unmarshal(raw, v) }
	}
	return in, nil
}

// MsgpackCodec writes binary frames. Struct fields are named by their json
// tags so both codecs share one set of payload types.
type MsgpackCodec struct{}

func (MsgpackCodec) Subprotocol() string { return SubprotocolMsgpack }

func (MsgpackCodec) FrameType() int { return websocket.BinaryMessage }

func (MsgpackCodec) Encode(msg *Message) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (MsgpackCodec) Decode(data []byte) (*Inbound, error) {
	var env struct {
		Type    string             `json:"type"`
		Payload msgpack.RawMessage `json:"payload"`
	}
	if err := unmarshalMsgpack(data, &env); err != nil {
		return nil, fmt.Errorf("decode msgpack frame: %w", err)
	}
	if env.Type == "" {
		return nil, errors.New("decode msgpack frame: missing type")
	}

	in := &Inbound{Type: env.Type}
	// 0xc0 is msgpack nil.
	if len(env.Payload) > 0 && !(len(env.Payload) == 1 && env.Payload[0] == 0xc0) {
		raw := env.Payload
		in.bind = func(v any) error { return unmarshalMsgpack(raw, v) }
	}
	return in, nil
}

func unmarshalMsgpack(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}
