package interview

import (
	"strings"
	"time"
)

// Role is the part a participant plays in an interview.
type Role string

const (
	RoleInterviewer Role = "interviewer"
	RoleCandidate   Role = "candidate"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleInterviewer || r == RoleCandidate
}

// MediaKind names a media track a participant can toggle.
type MediaKind string

const (
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
)

// Participant is one connected party inside a Room.
type Participant struct {
	ConnectionID string    `json:"connectionId"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	VideoEnabled bool      `json:"videoEnabled"`
	AudioEnabled bool      `json:"audioEnabled"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// NewParticipant returns a participant with both media tracks enabled.
func NewParticipant(connectionID, name string, role Role) Participant {
	return Participant{
		ConnectionID: connectionID,
		Name:         strings.TrimSpace(name),
		Role:         role,
		VideoEnabled: true,
		AudioEnabled: true,
		JoinedAt:     time.Now(),
	}
}

// Validate checks the caller-supplied identity fields.
func (p Participant) Validate() error {
	if p.ConnectionID == "" || strings.TrimSpace(p.Name) == "" || !p.Role.Valid() {
		return ErrInvalidUser
	}
	return nil
}
