// Package protocol defines the frames exchanged between interview clients
// and the room coordinator.
package protocol

// Client to server events.
const (
	EventJoinRoom     = "join-room"
	EventLeaveRoom    = "leave-room"
	EventSendMessage  = "send-message"
	EventCodeUpdate   = "code-update"
	EventNotesUpdate  = "notes-update"
	EventMediaToggle  = "media-toggle"
	EventOffer        = "webrtc-offer"
	EventAnswer       = "webrtc-answer"
	EventICECandidate = "webrtc-ice-candidate"
)

// Server to client events. media-toggle and the webrtc-* names are shared
// with the client events above.
const (
	EventConnected    = "connected"
	EventRoomJoined   = "room-joined"
	EventRoomError    = "room-error"
	EventRoomClosed   = "room-closed"
	EventUserJoined   = "user-joined"
	EventUserLeft     = "user-left"
	EventNewMessage   = "new-message"
	EventCodeUpdated  = "code-updated"
	EventNotesUpdated = "notes-updated"
)

// room-error reasons.
const (
	ReasonMissingData    = "missing-data"
	ReasonInvalidPasskey = "invalid-passkey"
	ReasonRoomFull       = "room-full"
	ReasonInvalidUser    = "invalid-user"
	// ReasonJoinFailed covers join failures that are not the caller's fault.
	ReasonJoinFailed = "join-failed"
)

// SignalKind is one step of WebRTC call setup.
type SignalKind string

const (
	SignalOffer        SignalKind = "offer"
	SignalAnswer       SignalKind = "answer"
	SignalICECandidate SignalKind = "ice-candidate"
)

// Event returns the frame type used to carry the signal.
func (k SignalKind) Event() string {
	switch k {
	case SignalOffer:
		return EventOffer
	case SignalAnswer:
		return EventAnswer
	case SignalICECandidate:
		return EventICECandidate
	}
	return ""
}

// SignalKindOf maps a frame type back to its signal kind.
func SignalKindOf(event string) (SignalKind, bool) {
	switch event {
	case EventOffer:
		return SignalOffer, true
	case EventAnswer:
		return SignalAnswer, true
	case EventICECandidate:
		return SignalICECandidate, true
	}
	return "", false
}
