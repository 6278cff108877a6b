package protocol

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/gorilla/websocket"
)

func TestCodecFor(t *testing.T) {
	if _, ok := CodecFor(SubprotocolMsgpack).(MsgpackCodec); !ok {
		t.Error("msgpack subprotocol did not select MsgpackCodec")
	}
	for _, sp := range []string{"", SubprotocolJSON, "chat.v9"} {
		if _, ok := CodecFor(sp).(JSONCodec); !ok {
			t.Errorf("subprotocol %q did not fall back to JSON", sp)
		}
	}
	if CodecFor(SubprotocolMsgpack).FrameType() != websocket.BinaryMessage {
		t.Error("msgpack should write binary frames")
	}
}

func TestDecodeRejectsMalformedFrames(t *testing.T) {
	for _, frame := range []string{`not json`, `{"payload":{}}`, `[]`} {
		if _, err := (JSONCodec{}).Decode([]byte(frame)); err == nil {
			t.Errorf("decoded %q without error", frame)
		}
	}
	if _, err := (MsgpackCodec{}).Decode([]byte{0xc1}); err == nil {
		t.Error("decoded reserved msgpack byte without error")
	}
}

func TestBindWithoutPayload(t *testing.T) {
	codecs := []Codec{JSONCodec{}, MsgpackCodec{}}
	for _, c := range codecs {
		t.Run(c.Subprotocol(), func(t *testing.T) {
			data, err := c.Encode(&Message{Type: EventLeaveRoom})
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			in, err := c.Decode(data)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if in.Type != EventLeaveRoom {
				t.Errorf("type = %q", in.Type)
			}
			var v JoinRoom
			if err := in.Bind(&v); err != ErrNoPayload {
				t.Errorf("bind err = %v, want ErrNoPayload", err)
			}
		})
	}
}

func TestBindRejectsWrongTypes(t *testing.T) {
	in, err := (JSONCodec{}).Decode([]byte(`{"type":"code-update","payload":{"roomId":"R1","code":42}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	var req CodeUpdate
	if err := in.Bind(&req); err == nil {
		t.Error("numeric code bound into a string")
	}

	data, err := (MsgpackCodec{}).Encode(&Message{Type: EventCodeUpdate, Payload: map[string]any{"roomId": "R1", "code": 42}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	in, err = (MsgpackCodec{}).Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	req = CodeUpdate{}
	if err := in.Bind(&req); err == nil {
		t.Error("numeric code bound into a string over msgpack")
	}
}

// An offer sent as JSON must reach a msgpack peer intact and vice versa.
func TestSignalPayloadCrossesCodecs(t *testing.T) {
	frame := `{"type":"webrtc-offer","payload":{"offer":{"type":"offer","sdp":"v=0\r\no=- 1 2 IN IP4 127.0.0.1"},"to":"peer-b"}}`

	in, err := (JSONCodec{}).Decode([]byte(frame))
	if err != nil {
		t.Fatalf("decode json: %v", err)
	}
	var sig Signal
	if err := in.Bind(&sig); err != nil {
		t.Fatalf("bind json: %v", err)
	}
	if sig.To != "peer-b" {
		t.Errorf("to = %q", sig.To)
	}

	out := NewSignal(SignalOffer, sig.Payload(SignalOffer), "peer-a", "")
	data, err := (MsgpackCodec{}).Encode(out)
	if err != nil {
		t.Fatalf("encode msgpack: %v", err)
	}

	back, err := (MsgpackCodec{}).Decode(data)
	if err != nil {
		t.Fatalf("decode msgpack: %v", err)
	}
	if back.Type != EventOffer {
		t.Errorf("type = %q, want %q", back.Type, EventOffer)
	}
	var relayed Signal
	if err := back.Bind(&relayed); err != nil {
		t.Fatalf("bind msgpack: %v", err)
	}
	if relayed.From != "peer-a" || relayed.To != "" {
		t.Errorf("from/to = %q/%q", relayed.From, relayed.To)
	}

	var want, got map[string]any
	if err := sig.Offer.Decode(&want); err != nil {
		t.Fatalf("decode json offer: %v", err)
	}
	if err := relayed.Offer.Decode(&got); err != nil {
		t.Fatalf("decode msgpack offer: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("offer = %v, want %v", got, want)
	}
}

// Between two JSON peers the payload goes out exactly as it came in.
func TestSignalPayloadKeepsJSONBytes(t *testing.T) {
	offer := `{"sdp":"v=0","type":"offer","seq":9007199254740993,"ext":{"b":1,"a":2}}`
	in, err := (JSONCodec{}).Decode([]byte(`{"type":"webrtc-offer","payload":{"offer":` + offer + `}}`))
	if err != nil {
		t.Fatal(err)
	}
	var sig Signal
	if err := in.Bind(&sig); err != nil {
		t.Fatal(err)
	}

	data, err := (JSONCodec{}).Encode(NewSignal(SignalOffer, sig.Payload(SignalOffer), "peer-a", ""))
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		Payload struct {
			Offer json.RawMessage `json:"offer"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if string(out.Payload.Offer) != offer {
		t.Errorf("offer = %s, want %s", out.Payload.Offer, offer)
	}
}

func TestSignalPayloadKeepsLargeIntegersAcrossCodecs(t *testing.T) {
	in, err := (JSONCodec{}).Decode([]byte(`{"type":"webrtc-ice-candidate","payload":{"candidate":{"seq":9007199254740993,"big":18446744073709551615}}}`))
	if err != nil {
		t.Fatal(err)
	}
	var sig Signal
	if err := in.Bind(&sig); err != nil {
		t.Fatal(err)
	}

	data, err := (MsgpackCodec{}).Encode(NewSignal(SignalICECandidate, sig.Candidate, "peer-a", ""))
	if err != nil {
		t.Fatal(err)
	}
	back, err := (MsgpackCodec{}).Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	var relayed Signal
	if err := back.Bind(&relayed); err != nil {
		t.Fatal(err)
	}

	var got struct {
		Seq int64  `json:"seq"`
		Big uint64 `json:"big"`
	}
	if err := relayed.Candidate.Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Seq != 9007199254740993 || got.Big != 18446744073709551615 {
		t.Errorf("candidate = %+v", got)
	}
}

func TestSignalKindMapping(t *testing.T) {
	for _, kind := range []SignalKind{SignalOffer, SignalAnswer, SignalICECandidate} {
		got, ok := SignalKindOf(kind.Event())
		if !ok || got != kind {
			t.Errorf("SignalKindOf(%q) = %q, %v", kind.Event(), got, ok)
		}
	}
	if _, ok := SignalKindOf(EventSendMessage); ok {
		t.Error("send-message mapped to a signal kind")
	}
}
