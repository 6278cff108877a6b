package interview

import (
	"fmt"
	"log/slog"
	"time"
)

// CloseReason explains why a room was closed by the server rather than by
// its participants leaving.
type CloseReason string

const (
	ReasonTimeUp CloseReason = "time-up"
	ReasonIdle   CloseReason = "idle"
)

// CloseFunc is told about participants that were still seated when the
// server closed their room.
type CloseFunc func(roomID string, left []Participant, reason CloseReason)

// Session owns one Room. Every operation on the room runs on the session's
// goroutine, one at a time, in submission order.
type Session struct {
	room     *Room
	ops      chan operation
	done     chan struct{}
	registry *Registry

	// duration is armed once the room first becomes active; zero disables it.
	duration time.Duration
	idleTTL  time.Duration
}

func newSession(room *Room, registry *Registry, duration, idleTTL time.Duration) *Session {
	return &Session{
		room:     room,
		ops:      make(chan operation),
		done:     make(chan struct{}),
		registry: registry,
		duration: duration,
		idleTTL:  idleTTL,
	}
}

// ID returns the id of the owned room.
func (s *Session) ID() string { return s.room.id }

// CheckPasskey verifies passkey against the owned room.
func (s *Session) CheckPasskey(passkey string) error { return s.room.CheckPasskey(passkey) }

// Done is closed once the room has ended and left the registry.
func (s *Session) Done() <-chan struct{} { return s.done }

type operation struct {
	fn   func(*Room)
	done chan struct{}
}

// Do runs fn on the session goroutine and waits until it has been applied,
// including the room's removal from the registry if fn emptied it.
// It fails with ErrRoomEnded if the room is already gone.
func (s *Session) Do(fn func(*Room)) error {
	op := operation{fn: fn, done: make(chan struct{})}
	select {
	case s.ops <- op:
	case <-s.done:
		return ErrRoomEnded
	}
	<-op.done
	return nil
}

func (s *Session) apply(op operation) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("room operation panicked", "room", s.room.id, "panic", fmt.Sprint(p))
		}
	}()
	op.fn(s.room)
}

// run is the room's processing loop.
func (s *Session) run() {
	var (
		expire <-chan time.Time
		idle   <-chan time.Time
	)

	if s.idleTTL > 0 && s.room.Len() == 0 {
		t := time.NewTimer(s.idleTTL)
		defer t.Stop()
		idle = t.C
	}

	for {
		select {
		case op := <-s.ops:
			s.apply(op)

			if s.room.Status() == StatusEnded {
				s.finish()
				close(op.done)
				return
			}
			close(op.done)
			if s.room.Len() > 0 {
				idle = nil
			}
			if expire == nil && s.duration > 0 && s.room.Status() == StatusActive {
				t := time.NewTimer(s.duration)
				defer t.Stop()
				expire = t.C
			}

		case <-expire:
			slog.Info("room duration elapsed", "room", s.room.id)
			s.shutdown(ReasonTimeUp)
			return

		case <-idle:
			slog.Info("room idle, closing", "room", s.room.id)
			s.shutdown(ReasonIdle)
			return
		}
	}
}

func (s *Session) shutdown(reason CloseReason) {
	left := s.room.close()
	if hook := s.registry.closeHook(); hook != nil && len(left) > 0 {
		hook(s.room.id, left, reason)
	}
	s.finish()
}

func (s *Session) finish() {
	s.registry.remove(s.room.id, s)
	close(s.done)
	slog.Info("room deleted", "room", s.room.id)
}
