package signaling

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/interview"
	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/protocol"
)

// Config tunes the gateway.
type Config struct {
	// StrictRouting resolves every signal's target from the sender's room
	// instead of trusting the client supplied "to".
	StrictRouting bool

	// MaxMessageSize is the read limit for a single inbound frame.
	MaxMessageSize int64

	// SendBuffer is the number of outbound frames queued per connection
	// before it is considered too slow and dropped.
	SendBuffer int
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		StrictRouting:  true,
		MaxMessageSize: 64 * 1024,
		SendBuffer:     256,
	}
}

// Hub is the connection gateway. It owns the directory of live connections
// and turns their events into operations on the rooms of a registry.
type Hub struct {
	registry *interview.Registry
	cfg      Config

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a gateway in front of registry. Rooms the registry closes
// on its own (duration or idle timers) are announced to their participants.
func NewHub(registry *interview.Registry, cfg Config) *Hub {
	def := DefaultConfig()
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}

	h := &Hub{
		registry: registry,
		cfg:      cfg,
		clients:  make(map[string]*Client),
	}
	registry.OnClose(h.handleRoomClosed)
	return h
}

// Registry returns the registry the hub routes into.
func (h *Hub) Registry() *interview.Registry { return h.registry }

// Attach takes ownership of an upgraded connection and starts its pumps.
// The first frame the client receives carries its connection id.
func (h *Hub) Attach(conn *websocket.Conn) *Client {
	c := newClient(h, conn, protocol.CodecFor(conn.Subprotocol()))
	h.register(c)

	slog.Debug("client connected", "conn", c.ID, "remote", conn.RemoteAddr().String(), "codec", c.codec.Subprotocol())
	c.Send(&protocol.Message{
		Type:    protocol.EventConnected,
		Payload: protocol.Connected{ConnectionID: c.ID},
	})

	go c.WritePump()
	go c.ReadPump()
	return c
}

// Lookup returns the live connection with id.
func (h *Hub) Lookup(id string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[id]
	return c, ok
}

// ConnectionCount returns the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown disconnects every client with a close frame. Each disconnect
// leaves its room the usual way, so rooms empty out and are removed.
// http.Server does not track hijacked connections, so this is registered
// with RegisterOnShutdown.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.close()
	}
	slog.Info("closing client connections", "count", len(clients))
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
}

// unregister is the disconnect path. It evicts the client from its room
// exactly like a leave and then forgets the connection.
func (h *Hub) unregister(c *Client) {
	h.leave(c)

	h.mu.Lock()
	delete(h.clients, c.ID)
	h.mu.Unlock()

	slog.Debug("client disconnected", "conn", c.ID)
}

// handleRoomClosed runs on the closed room's goroutine.
func (h *Hub) handleRoomClosed(roomID string, left []interview.Participant, reason interview.CloseReason) {
	for _, p := range left {
		c, ok := h.Lookup(p.ConnectionID)
		if !ok {
			continue
		}
		c.clearRoom(roomID)
		c.Send(&protocol.Message{
			Type:    protocol.EventRoomClosed,
			Payload: protocol.RoomClosed{Reason: string(reason)},
		})
	}
	slog.Info("room closed by server", "room", roomID, "reason", reason, "participants", len(left))
}

// sendTo delivers msg to the live connection of p, if there is one.
func (h *Hub) sendTo(p interview.Participant, msg *protocol.Message) {
	if c, ok := h.Lookup(p.ConnectionID); ok {
		c.Send(msg)
	}
}
