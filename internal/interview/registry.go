package interview

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Options tunes room creation.
type Options struct {
	// PasskeyCost is the bcrypt cost used to hash room passkeys.
	PasskeyCost int

	// EnforceDuration closes rooms once their scheduled duration has
	// elapsed after both seats were first taken.
	EnforceDuration bool

	// DefaultDuration is used for rooms created without a duration.
	DefaultDuration time.Duration

	// IdleTTL removes rooms that stay empty after creation. Zero keeps them.
	IdleTTL time.Duration
}

// Registry maps room ids to the sessions that own them. It is the only
// structure shared between rooms, and it only ever holds its lock for
// map lookups and updates.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     Options
	onClose  CloseFunc
}

func NewRegistry(opts Options) *Registry {
	if opts.PasskeyCost == 0 {
		opts.PasskeyCost = bcrypt.DefaultCost
	}
	return &Registry{
		sessions: make(map[string]*Session),
		opts:     opts,
	}
}

// OnClose registers the hook called when the server closes a room that
// still has participants. It runs on the room's goroutine and must not
// call back into the room's Session.
func (r *Registry) OnClose(fn CloseFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onClose = fn
}

func (r *Registry) closeHook() CloseFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.onClose
}

// Join admits p into roomID, creating the room with passkey if it does not
// exist. onAdmit runs on the room's goroutine right after admission, before
// any other operation on that room.
func (r *Registry) Join(roomID, passkey string, p Participant, onAdmit func(*Room)) (*Session, error) {
	if roomID == "" {
		return nil, newError("join", roomID, ErrRoomNotFound)
	}
	if err := p.Validate(); err != nil {
		return nil, newError("join", roomID, err)
	}

	for {
		s, ok := r.Get(roomID)
		created := false
		if !ok {
			hash, err := hashPasskey(passkey, r.opts.PasskeyCost)
			if err != nil {
				return nil, newError("join", roomID, err)
			}
			s, created = r.insert(roomID, hash, 0, "")
		}

		if !created {
			if err := s.room.CheckPasskey(passkey); err != nil {
				return nil, newError("join", roomID, err)
			}
		}

		var admitErr error
		err := s.Do(func(room *Room) {
			if admitErr = room.Admit(p); admitErr != nil {
				return
			}
			if onAdmit != nil {
				onAdmit(room)
			}
		})
		if errors.Is(err, ErrRoomEnded) {
			// Lost a race with the room's teardown; the next lookup
			// sees the id as free.
			continue
		}
		if admitErr != nil {
			return nil, newError("join", roomID, admitErr)
		}
		return s, nil
	}
}

// Create pre-provisions an empty room.
func (r *Registry) Create(roomID, passkey string, durationMinutes int, createdBy string) (Summary, error) {
	if roomID == "" || passkey == "" {
		return Summary{}, newError("create", roomID, ErrInvalidPasskey)
	}
	hash, err := hashPasskey(passkey, r.opts.PasskeyCost)
	if err != nil {
		return Summary{}, newError("create", roomID, err)
	}

	s, created := r.insert(roomID, hash, durationMinutes, createdBy)
	if !created {
		return Summary{}, newError("create", roomID, ErrRoomExists)
	}

	var sum Summary
	if err := s.Do(func(room *Room) { sum = room.Summary() }); err != nil {
		return Summary{}, newError("create", roomID, err)
	}
	return sum, nil
}

// Get returns the live session for roomID.
func (r *Registry) Get(roomID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[roomID]
	return s, ok
}

// Summary reads a room's public summary.
func (r *Registry) Summary(roomID string) (Summary, error) {
	s, ok := r.Get(roomID)
	if !ok {
		return Summary{}, newError("summary", roomID, ErrRoomNotFound)
	}
	var sum Summary
	if err := s.Do(func(room *Room) { sum = room.Summary() }); err != nil {
		return Summary{}, newError("summary", roomID, ErrRoomNotFound)
	}
	return sum, nil
}

// Len returns the number of live rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// insert registers a new session for roomID unless one already exists, in
// which case the existing session is returned with created=false.
func (r *Registry) insert(roomID string, passkeyHash []byte, durationMinutes int, createdBy string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[roomID]; ok {
		return s, false
	}

	var duration time.Duration
	if r.opts.EnforceDuration {
		duration = time.Duration(durationMinutes) * time.Minute
		if duration == 0 {
			duration = r.opts.DefaultDuration
		}
	}

	room := newRoom(roomID, passkeyHash, durationMinutes, createdBy)
	s := newSession(room, r, duration, r.opts.IdleTTL)
	r.sessions[roomID] = s
	go s.run()

	slog.Info("room created", "room", roomID, "created_by", createdBy)
	return s, true
}

// remove deletes roomID only while it still maps to s, so a stale session
// never removes a newer room that reuses the id.
func (r *Registry) remove(roomID string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[roomID]; ok && cur == s {
		delete(r.sessions, roomID)
	}
}
