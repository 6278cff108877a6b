package call

import (
	"errors"
	"testing"
	"time"

	pion "github.com/pion/webrtc/v4"

	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/protocol"
)

type step struct {
	kind    protocol.SignalKind
	payload any
}

// relay carries steps to peer on its own goroutine, the way frames arrive
// from the room server. Only offer/answer failures are reported; candidate
// errors depend on the host's network interfaces.
func relay(steps <-chan step, peer **Peer, errs chan<- error) {
	for s := range steps {
		err := (*peer).HandleSignal(s.kind, protocol.NewOpaque(s.payload))
		if err != nil && s.kind != protocol.SignalICECandidate {
			errs <- err
		}
	}
}

func TestOfferAnswerExchange(t *testing.T) {
	toA := make(chan step, 64)
	toB := make(chan step, 64)
	errs := make(chan error, 4)

	var a, b *Peer
	var err error
	a, err = NewPeer(ICEConfig{}, func(kind protocol.SignalKind, payload any) error {
		toB <- step{kind, payload}
		return nil
	})
	if err != nil {
		t.Fatalf("peer a: %v", err)
	}
	defer a.Close()
	b, err = NewPeer(ICEConfig{}, func(kind protocol.SignalKind, payload any) error {
		toA <- step{kind, payload}
		return nil
	})
	if err != nil {
		t.Fatalf("peer b: %v", err)
	}
	defer b.Close()

	go relay(toB, &b, errs)
	go relay(toA, &a, errs)

	if err := a.Offer(); err != nil {
		t.Fatalf("offer: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for a.SignalingState() != pion.SignalingStateStable || b.SignalingState() != pion.SignalingStateStable {
		select {
		case err := <-errs:
			t.Fatalf("signal: %v", err)
		case <-deadline:
			t.Fatalf("states = %s/%s", a.SignalingState(), b.SignalingState())
		case <-time.After(10 * time.Millisecond):
		}
	}

	if err := b.Send("hi"); err != nil && !errors.Is(err, ErrChannelNotOpen) {
		t.Errorf("send: %v", err)
	}
}

// Descriptions survive the msgpack codec, which ignores pion's JSON
// marshalling of the SDP type.
func TestDescriptionCrossesCodecs(t *testing.T) {
	desc := pion.SessionDescription{Type: pion.SDPTypeOffer, SDP: "v=0\r\n"}
	codec := protocol.MsgpackCodec{}

	data, err := codec.Encode(protocol.NewSignal(protocol.SignalOffer, descriptionToWire(desc), "a", ""))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	in, err := codec.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	var sig protocol.Signal
	if err := in.Bind(&sig); err != nil {
		t.Fatalf("bind: %v", err)
	}

	got, err := descriptionFromWire(sig.Offer, pion.SDPTypeOffer)
	if err != nil {
		t.Fatalf("from wire: %v", err)
	}
	if got != desc {
		t.Errorf("description = %+v, want %+v", got, desc)
	}

	if _, err := descriptionFromWire(sig.Offer, pion.SDPTypeAnswer); !errors.Is(err, ErrUnexpectedSignal) {
		t.Errorf("offer accepted as answer: %v", err)
	}
	if _, err := descriptionFromWire(nil, pion.SDPTypeOffer); err == nil {
		t.Error("nil payload accepted")
	}
}

func TestCandidateBeforeDescriptionIsQueued(t *testing.T) {
	p, err := NewPeer(ICEConfig{}, func(protocol.SignalKind, any) error { return nil })
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	candidate := map[string]any{"candidate": "candidate:1 1 udp 2130706431 192.0.2.1 50000 typ host", "sdpMid": "0"}
	if err := p.HandleSignal(protocol.SignalICECandidate, protocol.NewOpaque(candidate)); err != nil {
		t.Fatalf("early candidate: %v", err)
	}
	if len(p.pending) != 1 {
		t.Errorf("pending = %d, want 1", len(p.pending))
	}

	if err := p.HandleSignal(protocol.SignalKind("renegotiate"), nil); !errors.Is(err, ErrUnexpectedSignal) {
		t.Errorf("unknown kind err = %v", err)
	}
	if err := p.Send("too early"); !errors.Is(err, ErrChannelNotOpen) {
		t.Errorf("send err = %v", err)
	}
}
