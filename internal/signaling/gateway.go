package signaling

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/interview"
	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/protocol"
)

// dispatch routes one decoded frame. It runs on the sender's ReadPump
// goroutine, so frames of one connection are handled in arrival order.
func (h *Hub) dispatch(c *Client, in *protocol.Inbound) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("event handler panicked", "conn", c.ID, "event", in.Type, "panic", fmt.Sprint(p))
		}
	}()

	switch in.Type {
	case protocol.EventJoinRoom:
		h.handleJoin(c, in)
	case protocol.EventLeaveRoom:
		h.leave(c)
	case protocol.EventSendMessage:
		h.handleMessage(c, in)
	case protocol.EventCodeUpdate:
		h.handleCode(c, in)
	case protocol.EventNotesUpdate:
		h.handleNotes(c, in)
	case protocol.EventMediaToggle:
		h.handleMedia(c, in)
	default:
		if kind, ok := protocol.SignalKindOf(in.Type); ok {
			h.handleSignal(c, kind, in)
			return
		}
		slog.Debug("unknown event", "conn", c.ID, "event", in.Type)
	}
}

func roomError(reason string) *protocol.Message {
	return &protocol.Message{Type: protocol.EventRoomError, Payload: protocol.RoomError{Reason: reason}}
}

// withMember runs fn inside roomID's session when c is seated there.
// It reports whether fn ran; a missing room or a non-member is not an error.
func (h *Hub) withMember(c *Client, roomID string, fn func(room *interview.Room, me interview.Participant)) bool {
	s, ok := h.registry.Get(roomID)
	if !ok {
		slog.Debug("room not found", "conn", c.ID, "room", roomID)
		return false
	}

	ran := false
	err := s.Do(func(room *interview.Room) {
		me, ok := room.Participant(c.ID)
		if !ok {
			return
		}
		ran = true
		fn(room, me)
	})
	if err != nil {
		slog.Debug("room gone", "conn", c.ID, "room", roomID)
	}
	return ran
}

func (h *Hub) handleJoin(c *Client, in *protocol.Inbound) {
	var req protocol.JoinRoom
	if err := in.Bind(&req); err != nil || req.RoomID == "" || req.Passkey == "" || req.User == nil {
		c.Send(roomError(protocol.ReasonMissingData))
		return
	}

	p := interview.NewParticipant(c.ID, req.User.Name, interview.Role(req.User.Role))
	if err := p.Validate(); err != nil {
		c.Send(roomError(protocol.ReasonInvalidUser))
		return
	}

	cur := c.RoomID()
	if cur == req.RoomID {
		if h.resendSnapshot(c, cur, req.Passkey) {
			return
		}
		h.leaveRoom(c, cur)
		cur = ""
	}

	// The old seat is given up only once the new one is taken, so a failed
	// switch leaves the client where it was.
	_, err := h.registry.Join(req.RoomID, req.Passkey, p, func(room *interview.Room) {
		c.setRoom(room.ID())
		c.Send(&protocol.Message{
			Type:    protocol.EventRoomJoined,
			Payload: protocol.RoomJoined{Room: room.Snapshot(), User: p},
		})
		if other, ok := room.OtherParticipant(c.ID); ok {
			h.sendTo(other, &protocol.Message{
				Type:    protocol.EventUserJoined,
				Payload: protocol.Presence{User: p},
			})
		}
	})
	if err != nil {
		slog.Info("join rejected", "conn", c.ID, "room", req.RoomID, "err", err)
		c.Send(roomError(joinFailureReason(err)))
		return
	}
	if cur != "" {
		h.leaveRoom(c, cur)
	}
	slog.Info("participant joined", "conn", c.ID, "room", req.RoomID, "name", p.Name, "role", p.Role)
}

// resendSnapshot answers a repeated join for the room c already sits in
// with a fresh snapshot instead of a second seat. The passkey is checked
// again. It reports whether the join was answered; false means c is no
// longer seated there and should join normally.
func (h *Hub) resendSnapshot(c *Client, roomID, passkey string) bool {
	s, ok := h.registry.Get(roomID)
	if !ok {
		return false
	}
	if err := s.CheckPasskey(passkey); err != nil {
		c.Send(roomError(protocol.ReasonInvalidPasskey))
		return true
	}
	return h.withMember(c, roomID, func(room *interview.Room, me interview.Participant) {
		c.Send(&protocol.Message{
			Type:    protocol.EventRoomJoined,
			Payload: protocol.RoomJoined{Room: room.Snapshot(), User: me},
		})
	})
}

func joinFailureReason(err error) string {
	switch {
	case errors.Is(err, interview.ErrInvalidPasskey):
		return protocol.ReasonInvalidPasskey
	case errors.Is(err, interview.ErrRoomFull):
		return protocol.ReasonRoomFull
	case errors.Is(err, interview.ErrInvalidUser):
		return protocol.ReasonInvalidUser
	}
	return protocol.ReasonJoinFailed
}

// leave evicts c from whatever room it is in. Calling it again, or for a
// client that never joined, does nothing.
func (h *Hub) leave(c *Client) {
	if roomID := c.RoomID(); roomID != "" {
		h.leaveRoom(c, roomID)
	}
}

func (h *Hub) leaveRoom(c *Client, roomID string) {
	s, ok := h.registry.Get(roomID)
	if !ok {
		c.clearRoom(roomID)
		return
	}

	err := s.Do(func(room *interview.Room) {
		c.clearRoom(roomID)
		p, err := room.Evict(c.ID)
		if err != nil {
			return
		}
		if other, ok := room.OtherParticipant(c.ID); ok {
			h.sendTo(other, &protocol.Message{
				Type:    protocol.EventUserLeft,
				Payload: protocol.Presence{User: p},
			})
		}
		slog.Info("participant left", "conn", c.ID, "room", roomID, "remaining", room.Len())
	})
	if err != nil {
		c.clearRoom(roomID)
	}
}

func (h *Hub) handleMessage(c *Client, in *protocol.Inbound) {
	var req protocol.SendMessage
	if err := in.Bind(&req); err != nil || req.RoomID == "" || req.Message == nil {
		slog.Debug("malformed event", "conn", c.ID, "event", in.Type, "err", err)
		return
	}
	content := strings.TrimSpace(req.Message.Content)
	if content == "" {
		return
	}

	h.withMember(c, req.RoomID, func(room *interview.Room, me interview.Participant) {
		msg := interview.NewMessage(content, me)
		room.AppendMessage(msg)
		out := &protocol.Message{Type: protocol.EventNewMessage, Payload: protocol.NewMessage{Message: msg}}
		for _, p := range room.Participants() {
			h.sendTo(p, out)
		}
	})
}

func (h *Hub) handleCode(c *Client, in *protocol.Inbound) {
	var req protocol.CodeUpdate
	if err := in.Bind(&req); err != nil || req.RoomID == "" || req.Code == nil {
		slog.Debug("malformed event", "conn", c.ID, "event", in.Type, "err", err)
		return
	}

	h.withMember(c, req.RoomID, func(room *interview.Room, me interview.Participant) {
		room.SetCode(*req.Code)
		if other, ok := room.OtherParticipant(me.ConnectionID); ok {
			h.sendTo(other, &protocol.Message{Type: protocol.EventCodeUpdated, Payload: protocol.CodeUpdated{Code: *req.Code}})
		}
	})
}

func (h *Hub) handleNotes(c *Client, in *protocol.Inbound) {
	var req protocol.NotesUpdate
	if err := in.Bind(&req); err != nil || req.RoomID == "" || req.Notes == nil {
		slog.Debug("malformed event", "conn", c.ID, "event", in.Type, "err", err)
		return
	}

	h.withMember(c, req.RoomID, func(room *interview.Room, me interview.Participant) {
		room.SetNotes(*req.Notes)
		if other, ok := room.OtherParticipant(me.ConnectionID); ok {
			h.sendTo(other, &protocol.Message{Type: protocol.EventNotesUpdated, Payload: protocol.NotesUpdated{Notes: *req.Notes}})
		}
	})
}

func (h *Hub) handleMedia(c *Client, in *protocol.Inbound) {
	var req protocol.MediaToggle
	if err := in.Bind(&req); err != nil || req.RoomID == "" || req.Enabled == nil {
		slog.Debug("malformed event", "conn", c.ID, "event", in.Type, "err", err)
		return
	}

	h.withMember(c, req.RoomID, func(room *interview.Room, me interview.Participant) {
		if err := room.SetMediaState(me.ConnectionID, interview.MediaKind(req.Type), *req.Enabled); err != nil {
			slog.Debug("media toggle rejected", "conn", c.ID, "room", req.RoomID, "err", err)
			return
		}
		if other, ok := room.OtherParticipant(me.ConnectionID); ok {
			h.sendTo(other, &protocol.Message{
				Type:    protocol.EventMediaToggle,
				Payload: protocol.MediaToggled{Type: req.Type, Enabled: *req.Enabled, From: me.ConnectionID},
			})
		}
	})
}

func (h *Hub) handleSignal(c *Client, kind protocol.SignalKind, in *protocol.Inbound) {
	var sig protocol.Signal
	if err := in.Bind(&sig); err != nil {
		slog.Debug("malformed event", "conn", c.ID, "event", in.Type, "err", err)
		return
	}
	payload := sig.Payload(kind)
	if payload == nil {
		slog.Debug("signal without payload", "conn", c.ID, "event", in.Type)
		return
	}

	if !h.cfg.StrictRouting && sig.To != "" {
		h.Relay(kind, payload, c.ID, sig.To)
		return
	}

	roomID := c.RoomID()
	if roomID == "" {
		slog.Debug("signal outside a room", "conn", c.ID, "event", in.Type)
		return
	}

	// The target is resolved on the room goroutine so the relayed frame is
	// ordered with the room's other events.
	h.withMember(c, roomID, func(room *interview.Room, me interview.Participant) {
		other, ok := room.OtherParticipant(me.ConnectionID)
		if !ok {
			slog.Debug("signal with no peer", "conn", c.ID, "room", roomID)
			return
		}
		if sig.To != "" && sig.To != other.ConnectionID {
			slog.Warn("signal addressed outside the room", "conn", c.ID, "room", roomID, "to", sig.To)
			return
		}
		h.Relay(kind, payload, me.ConnectionID, other.ConnectionID)
	})
}
