package protocol

import "github.com/arijitghosal03/Campus-Konnect-sub000/internal/interview"

// Message is the envelope of every frame in both directions.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// User is the identity a client claims when joining.
type User struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type JoinRoom struct {
	RoomID  string `json:"roomId"`
	Passkey string `json:"passkey"`
	User    *User  `json:"user"`
}

type ChatInput struct {
	Content string `json:"content"`
}

type SendMessage struct {
	RoomID  string     `json:"roomId"`
	Message *ChatInput `json:"message"`
}

type CodeUpdate struct {
	RoomID string  `json:"roomId"`
	Code   *string `json:"code"`
}

type NotesUpdate struct {
	RoomID string  `json:"roomId"`
	Notes  *string `json:"notes"`
}

type MediaToggle struct {
	RoomID  string `json:"roomId"`
	Type    string `json:"type"`
	Enabled *bool  `json:"enabled"`
}

// Signal carries one opaque WebRTC payload. Only the field matching the
// frame type is set. To names the addressed connection; From is filled in
// by the server.
type Signal struct {
	Offer     *Opaque `json:"offer,omitempty"`
	Answer    *Opaque `json:"answer,omitempty"`
	Candidate *Opaque `json:"candidate,omitempty"`
	To        string  `json:"to,omitempty"`
	From      string  `json:"from,omitempty"`
}

// Payload returns the opaque body for kind.
func (s *Signal) Payload(kind SignalKind) *Opaque {
	switch kind {
	case SignalOffer:
		return s.Offer
	case SignalAnswer:
		return s.Answer
	case SignalICECandidate:
		return s.Candidate
	}
	return nil
}

// NewSignal builds an outbound signal frame. payload may already be an
// *Opaque taken from an inbound frame.
func NewSignal(kind SignalKind, payload any, from, to string) *Message {
	s := &Signal{From: from, To: to}
	body := NewOpaque(payload)
	switch kind {
	case SignalOffer:
		s.Offer = body
	case SignalAnswer:
		s.Answer = body
	case SignalICECandidate:
		s.Candidate = body
	}
	return &Message{Type: kind.Event(), Payload: s}
}

type Connected struct {
	ConnectionID string `json:"connectionId"`
}

type RoomJoined struct {
	Room interview.RoomSnapshot `json:"room"`
	User interview.Participant  `json:"user"`
}

type RoomError struct {
	Reason string `json:"reason"`
}

type RoomClosed struct {
	Reason string `json:"reason"`
}

type Presence struct {
	User interview.Participant `json:"user"`
}

type NewMessage struct {
	Message interview.Message `json:"message"`
}

type CodeUpdated struct {
	Code string `json:"code"`
}

type NotesUpdated struct {
	Notes string `json:"notes"`
}

type MediaToggled struct {
	Type    string `json:"type"`
	Enabled bool   `json:"enabled"`
	From    string `json:"from"`
}
