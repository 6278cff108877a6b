// Package call runs the participant's side of a WebRTC call whose setup is
// relayed through the room server. Media is out of scope; the call carries
// a single ordered data channel.
package call

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	pion "github.com/pion/webrtc/v4"

	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/protocol"
)

// DefaultSTUN is used when no ICE servers are configured.
const DefaultSTUN = "stun:stun.l.google.com:19302"

const channelLabel = "interview"

var (
	ErrChannelNotOpen   = errors.New("data channel not open")
	ErrUnexpectedSignal = errors.New("unexpected signal")
)

// SignalFunc delivers one call setup step to the other participant.
type SignalFunc func(kind protocol.SignalKind, payload any) error

// Peer is one end of the call.
type Peer struct {
	pc     *pion.PeerConnection
	signal SignalFunc

	// Messages receives text sent by the other side over the data channel.
	Messages chan string
	// Open is closed once the data channel can carry messages.
	Open chan struct{}
	// Failed is closed when the ICE connection fails or closes.
	Failed chan struct{}

	mu         sync.Mutex
	dc         *pion.DataChannel
	pending    []pion.ICECandidateInit
	remoteSet  bool
	openOnce   sync.Once
	failedOnce sync.Once
}

// NewPeer creates a peer connection. An empty ICEConfig only gathers host
// candidates.
func NewPeer(ice ICEConfig, signal SignalFunc) (*Peer, error) {
	pc, err := pion.NewPeerConnection(ice.configuration())
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	p := &Peer{
		pc:       pc,
		signal:   signal,
		Messages: make(chan string, 32),
		Open:     make(chan struct{}),
		Failed:   make(chan struct{}),
	}

	pc.OnICECandidate(func(c *pion.ICECandidate) {
		if c == nil {
			return
		}
		wire, err := toWire(c.ToJSON())
		if err != nil {
			return
		}
		p.signal(protocol.SignalICECandidate, wire)
	})
	pc.OnICEConnectionStateChange(func(state pion.ICEConnectionState) {
		if state == pion.ICEConnectionStateFailed || state == pion.ICEConnectionStateClosed {
			p.failedOnce.Do(func() { close(p.Failed) })
		}
	})
	pc.OnDataChannel(func(dc *pion.DataChannel) {
		if dc.Label() == channelLabel {
			p.attach(dc)
		}
	})
	return p, nil
}

// Offer opens the data channel and sends the offer. Exactly one side of a
// call makes the offer.
func (p *Peer) Offer() error {
	ordered := true
	dc, err := p.pc.CreateDataChannel(channelLabel, &pion.DataChannelInit{Ordered: &ordered})
	if err != nil {
		return fmt.Errorf("create data channel: %w", err)
	}
	p.attach(dc)

	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	if err := p.pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}
	return p.signal(protocol.SignalOffer, descriptionToWire(*p.pc.LocalDescription()))
}

// HandleSignal applies one relayed setup step.
func (p *Peer) HandleSignal(kind protocol.SignalKind, payload *protocol.Opaque) error {
	switch kind {
	case protocol.SignalOffer:
		desc, err := descriptionFromWire(payload, pion.SDPTypeOffer)
		if err != nil {
			return err
		}
		if err := p.setRemote(desc); err != nil {
			return err
		}
		answer, err := p.pc.CreateAnswer(nil)
		if err != nil {
			return fmt.Errorf("create answer: %w", err)
		}
		if err := p.pc.SetLocalDescription(answer); err != nil {
			return fmt.Errorf("set local description: %w", err)
		}
		return p.signal(protocol.SignalAnswer, descriptionToWire(*p.pc.LocalDescription()))

	case protocol.SignalAnswer:
		desc, err := descriptionFromWire(payload, pion.SDPTypeAnswer)
		if err != nil {
			return err
		}
		return p.setRemote(desc)

	case protocol.SignalICECandidate:
		var ice pion.ICECandidateInit
		if err := fromWire(payload, &ice); err != nil {
			return fmt.Errorf("parse ICE candidate: %w", err)
		}
		p.mu.Lock()
		if !p.remoteSet {
			// Candidates can overtake the description they belong to.
			p.pending = append(p.pending, ice)
			p.mu.Unlock()
			return nil
		}
		p.mu.Unlock()
		if err := p.pc.AddICECandidate(ice); err != nil {
			return fmt.Errorf("add ICE candidate: %w", err)
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnexpectedSignal, kind)
}

func (p *Peer) setRemote(desc pion.SessionDescription) error {
	if err := p.pc.SetRemoteDescription(desc); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}

	p.mu.Lock()
	p.remoteSet = true
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	for _, ice := range pending {
		if err := p.pc.AddICECandidate(ice); err != nil {
			return fmt.Errorf("add ICE candidate: %w", err)
		}
	}
	return nil
}

func (p *Peer) attach(dc *pion.DataChannel) {
	p.mu.Lock()
	p.dc = dc
	p.mu.Unlock()

	dc.OnOpen(func() {
		p.openOnce.Do(func() { close(p.Open) })
	})
	dc.OnMessage(func(msg pion.DataChannelMessage) {
		if !msg.IsString {
			return
		}
		select {
		case p.Messages <- string(msg.Data):
		default:
		}
	})
}

// Send writes text to the data channel.
func (p *Peer) Send(text string) error {
	p.mu.Lock()
	dc := p.dc
	p.mu.Unlock()
	if dc == nil || dc.ReadyState() != pion.DataChannelStateOpen {
		return ErrChannelNotOpen
	}
	return dc.SendText(text)
}

// SignalingState reports where the offer/answer exchange stands.
func (p *Peer) SignalingState() pion.SignalingState {
	return p.pc.SignalingState()
}

func (p *Peer) Close() error {
	return p.pc.Close()
}

// descriptionToWire keeps the SDP type a string on every codec.
func descriptionToWire(desc pion.SessionDescription) map[string]any {
	return map[string]any{"type": desc.Type.String(), "sdp": desc.SDP}
}

func descriptionFromWire(payload *protocol.Opaque, want pion.SDPType) (pion.SessionDescription, error) {
	var wire struct {
		Type string `json:"type"`
		SDP  string `json:"sdp"`
	}
	if err := fromWire(payload, &wire); err != nil {
		return pion.SessionDescription{}, fmt.Errorf("parse session description: %w", err)
	}
	if pion.NewSDPType(wire.Type) != want || wire.SDP == "" {
		return pion.SessionDescription{}, fmt.Errorf("%w: %q", ErrUnexpectedSignal, wire.Type)
	}
	return pion.SessionDescription{Type: want, SDP: wire.SDP}, nil
}

// toWire turns v into plain maps so either frame codec can carry it.
func toWire(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func fromWire(payload *protocol.Opaque, out any) error {
	if payload == nil {
		return ErrUnexpectedSignal
	}
	return payload.Decode(out)
}
