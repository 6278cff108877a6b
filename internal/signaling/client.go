package signaling

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Client is a wrapper for a single websocket connection (a participant).
type Client struct {
	// ID identifies the connection for its whole life and is never reused.
	ID string

	hub   *Hub
	conn  *websocket.Conn
	codec protocol.Codec

	// send is the buffered FIFO of outbound frames drained by WritePump.
	send chan *protocol.Message

	// done is closed when the connection is being torn down.
	done      chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	roomID string
}

func newClient(hub *Hub, conn *websocket.Conn, codec protocol.Codec) *Client {
	return &Client{
		ID:    uuid.NewString(),
		hub:   hub,
		conn:  conn,
		codec: codec,
		send:  make(chan *protocol.Message, hub.cfg.SendBuffer),
		done:  make(chan struct{}),
	}
}

// RoomID returns the room the client is seated in, or "".
func (c *Client) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

func (c *Client) setRoom(roomID string) {
	c.mu.Lock()
	c.roomID = roomID
	c.mu.Unlock()
}

// clearRoom forgets the membership only if it still points at roomID.
func (c *Client) clearRoom(roomID string) {
	c.mu.Lock()
	if c.roomID == roomID {
		c.roomID = ""
	}
	c.mu.Unlock()
}

// Send queues msg without blocking. A client whose queue is full is too slow
// to keep up with its room and gets disconnected.
func (c *Client) Send(msg *protocol.Message) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.send <- msg:
	default:
		slog.Warn("send queue full, dropping connection", "conn", c.ID)
		c.close()
	}
}

// close asks WritePump to say goodbye and drop the connection, which in
// turn ends ReadPump.
func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// ReadPump pumps frames from the websocket connection to the hub.
//
// The application runs ReadPump in a per-connection goroutine. The application
// ensures that there is at most one reader on a connection by executing all
// reads from this goroutine.
func (c *Client) ReadPump() {
	// When this function exits (e.g., connection closes), treat it as a leave.
	defer func() {
		c.hub.unregister(c)
		c.close()
	}()

	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("read failed", "conn", c.ID, "err", err)
			}
			break
		}

		in, err := c.codec.Decode(data)
		if err != nil {
			slog.Debug("dropping malformed frame", "conn", c.ID, "err", err)
			continue
		}
		c.hub.dispatch(c, in)
	}
}

// WritePump pumps frames from the send queue to the websocket connection.
//
// A goroutine running WritePump is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.close()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			data, err := c.codec.Encode(msg)
			if err != nil {
				slog.Error("encode failed", "conn", c.ID, "event", msg.Type, "err", err)
				continue
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(c.codec.FrameType(), data); err != nil {
				slog.Debug("write failed", "conn", c.ID, "err", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
