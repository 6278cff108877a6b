package signaling

import (
	"log/slog"

	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/protocol"
)

// Relay forwards an opaque WebRTC payload to the connection to, tagged with
// the sender. It reports whether the target was connected; an unreachable
// target is not an error for the sender.
func (h *Hub) Relay(kind protocol.SignalKind, payload any, from, to string) bool {
	c, ok := h.Lookup(to)
	if !ok {
		slog.Debug("relay target not connected", "event", kind.Event(), "conn", from, "to", to)
		return false
	}
	c.Send(protocol.NewSignal(kind, payload, from, ""))
	return true
}
