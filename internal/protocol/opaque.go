package protocol

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"
)

// Opaque is a payload the server relays without interpreting it. It keeps
// the bytes it was decoded from, so a frame relayed between two peers on
// the same codec is forwarded byte for byte. It is only re-encoded when
// the peers speak different codecs.
type Opaque struct {
	rawJSON    json.RawMessage
	rawMsgpack msgpack.RawMessage
	value      any
}

// NewOpaque wraps v for sending. An *Opaque is returned unchanged.
func NewOpaque(v any) *Opaque {
	if o, ok := v.(*Opaque); ok {
		return o
	}
	return &Opaque{value: v}
}

// Decode unmarshals the payload into v the way encoding/json would.
func (o *Opaque) Decode(v any) error {
	data, err := o.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (o *Opaque) MarshalJSON() ([]byte, error) {
	switch {
	case o == nil:
		return []byte("null"), nil
	case o.rawJSON != nil:
		return o.rawJSON, nil
	case o.rawMsgpack != nil:
		var v any
		if err := msgpack.Unmarshal(o.rawMsgpack, &v); err != nil {
			return nil, err
		}
		return json.Marshal(v)
	}
	return json.Marshal(o.value)
}

func (o *Opaque) UnmarshalJSON(data []byte) error {
	*o = Opaque{rawJSON: append(json.RawMessage(nil), data...)}
	return nil
}

func (o *Opaque) EncodeMsgpack(enc *msgpack.Encoder) error {
	switch {
	case o == nil:
		return enc.EncodeNil()
	case o.rawMsgpack != nil:
		return enc.Encode(o.rawMsgpack)
	case o.rawJSON != nil:
		// UseNumber keeps integers past 2^53 exact on the way over.
		dec := json.NewDecoder(bytes.NewReader(o.rawJSON))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return err
		}
		return enc.Encode(msgpackNumbers(v))
	}
	return enc.Encode(o.value)
}

func (o *Opaque) DecodeMsgpack(dec *msgpack.Decoder) error {
	raw, err := dec.DecodeRaw()
	if err != nil {
		return err
	}
	*o = Opaque{rawMsgpack: raw}
	return nil
}

// msgpackNumbers replaces json.Number values with the narrowest msgpack
// numeric type that holds them.
func msgpackNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if u, err := strconv.ParseUint(t.String(), 10, 64); err == nil {
			return u
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		for k, e := range t {
			t[k] = msgpackNumbers(e)
		}
	case []any:
		for i, e := range t {
			t[i] = msgpackNumbers(e)
		}
	}
	return v
}
