package interview

import (
	"crypto/sha256"
	"encoding/base64"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Capacity is the number of seats in every room.
const Capacity = 2

// Status is the lifecycle state of a room.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusActive  Status = "active"
	StatusEnded   Status = "ended"
)

// Room is one interview's shared state.
//
// A Room is not safe for concurrent use. Every access goes through the
// Session that owns it.
type Room struct {
	id              string
	passkeyHash     []byte
	participants    []Participant
	chatLog         []Message
	sharedCode      string
	sharedNotes     string
	status          Status
	createdAt       time.Time
	durationMinutes int
	createdBy       string
}

// RoomSnapshot is a copy of a room's state that can leave the room's goroutine.
type RoomSnapshot struct {
	ID              string        `json:"id"`
	Status          Status        `json:"status"`
	Participants    []Participant `json:"participants"`
	Messages        []Message     `json:"messages"`
	Code            string        `json:"code"`
	Notes           string        `json:"notes"`
	CreatedAt       time.Time     `json:"createdAt"`
	DurationMinutes int           `json:"durationMinutes"`
}

// Summary is the read-only view served by the administrative API.
type Summary struct {
	ID               string    `json:"id"`
	Status           Status    `json:"status"`
	ParticipantCount int       `json:"participantCount"`
	CreatedAt        time.Time `json:"createdAt"`
	DurationMinutes  int       `json:"durationMinutes"`
	CreatedBy        string    `json:"createdBy,omitempty"`
}

func newRoom(id string, passkeyHash []byte, durationMinutes int, createdBy string) *Room {
	return &Room{
		id:              id,
		passkeyHash:     passkeyHash,
		participants:    make([]Participant, 0, Capacity),
		chatLog:         make([]Message, 0),
		status:          StatusWaiting,
		createdAt:       time.Now(),
		durationMinutes: durationMinutes,
		createdBy:       createdBy,
	}
}

// passkeyDigest folds a passkey of any length into 44 bytes, below bcrypt's
// 72-byte input limit, so every byte of the passkey counts.
func passkeyDigest(passkey string) []byte {
	sum := sha256.Sum256([]byte(passkey))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

func hashPasskey(passkey string, cost int) ([]byte, error) {
	return bcrypt.GenerateFromPassword(passkeyDigest(passkey), cost)
}

// ID returns the caller-chosen room identifier.
func (r *Room) ID() string { return r.id }

// Status returns the current lifecycle state.
func (r *Room) Status() Status { return r.status }

// Len returns the number of seated participants.
func (r *Room) Len() int { return len(r.participants) }

// DurationMinutes returns the scheduled interview length.
func (r *Room) DurationMinutes() int { return r.durationMinutes }

// CheckPasskey compares passkey against the stored hash. The hash never
// changes after creation, so this may run outside the owning goroutine.
func (r *Room) CheckPasskey(passkey string) error {
	if err := bcrypt.CompareHashAndPassword(r.passkeyHash, passkeyDigest(passkey)); err != nil {
		return ErrInvalidPasskey
	}
	return nil
}

// Admit seats p. The room becomes active once both seats are taken.
func (r *Room) Admit(p Participant) error {
	if r.status == StatusEnded {
		return ErrRoomEnded
	}
	if _, ok := r.Participant(p.ConnectionID); ok {
		return ErrAlreadyPresent
	}
	if len(r.participants) >= Capacity {
		return ErrRoomFull
	}
	r.participants = append(r.participants, p)
	r.updateStatus()
	return nil
}

// Evict removes the participant bound to connectionID and returns it.
// Evicting the last participant ends the room.
func (r *Room) Evict(connectionID string) (Participant, error) {
	for i, p := range r.participants {
		if p.ConnectionID != connectionID {
			continue
		}
		r.participants = append(r.participants[:i], r.participants[i+1:]...)
		if len(r.participants) == 0 {
			r.status = StatusEnded
		} else {
			r.updateStatus()
		}
		return p, nil
	}
	return Participant{}, ErrNotPresent
}

// Participant looks up a seated participant by connection.
func (r *Room) Participant(connectionID string) (Participant, bool) {
	for _, p := range r.participants {
		if p.ConnectionID == connectionID {
			return p, true
		}
	}
	return Participant{}, false
}

// Participants returns the seated participants in join order.
func (r *Room) Participants() []Participant {
	out := make([]Participant, len(r.participants))
	copy(out, r.participants)
	return out
}

// OtherParticipant returns the participant whose connection differs from connectionID.
func (r *Room) OtherParticipant(connectionID string) (Participant, bool) {
	for _, p := range r.participants {
		if p.ConnectionID != connectionID {
			return p, true
		}
	}
	return Participant{}, false
}

func (r *Room) AppendMessage(m Message) {
	r.chatLog = append(r.chatLog, m)
}

func (r *Room) SetCode(code string) {
	r.sharedCode = code
}

func (r *Room) SetNotes(notes string) {
	r.sharedNotes = notes
}

// SetMediaState flips one media flag of the named participant only.
func (r *Room) SetMediaState(connectionID string, kind MediaKind, enabled bool) error {
	for i := range r.participants {
		if r.participants[i].ConnectionID != connectionID {
			continue
		}
		switch kind {
		case MediaVideo:
			r.participants[i].VideoEnabled = enabled
		case MediaAudio:
			r.participants[i].AudioEnabled = enabled
		default:
			return ErrUnknownMediaKind
		}
		return nil
	}
	return ErrNotPresent
}

// Snapshot copies the full room state.
func (r *Room) Snapshot() RoomSnapshot {
	messages := make([]Message, len(r.chatLog))
	copy(messages, r.chatLog)
	return RoomSnapshot{
		ID:              r.id,
		Status:          r.status,
		Participants:    r.Participants(),
		Messages:        messages,
		Code:            r.sharedCode,
		Notes:           r.sharedNotes,
		CreatedAt:       r.createdAt,
		DurationMinutes: r.durationMinutes,
	}
}

func (r *Room) Summary() Summary {
	return Summary{
		ID:               r.id,
		Status:           r.status,
		ParticipantCount: len(r.participants),
		CreatedAt:        r.createdAt,
		DurationMinutes:  r.durationMinutes,
		CreatedBy:        r.createdBy,
	}
}

// close ends the room and returns whoever was still seated.
func (r *Room) close() []Participant {
	left := r.participants
	r.participants = nil
	r.status = StatusEnded
	return left
}

func (r *Room) updateStatus() {
	if len(r.participants) == Capacity {
		r.status = StatusActive
	} else {
		r.status = StatusWaiting
	}
}
