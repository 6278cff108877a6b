package interview

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPasskey   = errors.New("invalid passkey")
	ErrRoomFull         = errors.New("room is full")
	ErrInvalidUser      = errors.New("invalid user")
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomExists       = errors.New("room already exists")
	ErrRoomEnded        = errors.New("room has ended")
	ErrNotPresent       = errors.New("participant not in room")
	ErrAlreadyPresent   = errors.New("participant already in room")
	ErrUnknownMediaKind = errors.New("unknown media kind")
)

// RoomError records the failed operation and the room it was applied to.
type RoomError struct {
	Op     string
	RoomID string
	Err    error
}

func (e *RoomError) Error() string {
	if e.RoomID != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.RoomID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RoomError) Unwrap() error {
	return e.Err
}

func newError(op, roomID string, err error) *RoomError {
	return &RoomError{Op: op, RoomID: roomID, Err: err}
}
