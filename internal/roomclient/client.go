// Package roomclient speaks the interview room protocol from the
// participant's side and wraps the administrative HTTP API.
package roomclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024 * 1024
)

var (
	ErrClosed     = errors.New("connection closed")
	ErrNoGreeting = errors.New("server did not announce a connection id")
)

// JoinError is a join rejected by the server.
type JoinError struct {
	Reason string
}

func (e *JoinError) Error() string {
	return "join rejected: " + e.Reason
}

// Client manages the websocket connection to the room server.
type Client struct {
	// ID is the connection id the server assigned.
	ID string

	conn     *websocket.Conn
	codec    protocol.Codec
	incoming chan *protocol.Inbound
	outgoing chan *protocol.Message
	done     chan struct{}
	once     sync.Once
}

// Dial connects to serverURL (ws:// or wss://, path included) asking for
// subprotocol, and waits for the server's greeting.
func Dial(ctx context.Context, serverURL, subprotocol string) (*Client, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		Subprotocols:     []string{subprotocol},
	}
	if subprotocol == "" {
		dialer.Subprotocols = protocol.Subprotocols
	}

	conn, _, err := dialer.DialContext(ctx, serverURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	conn.SetReadLimit(maxMessageSize)
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	c := &Client{
		conn:     conn,
		codec:    protocol.CodecFor(conn.Subprotocol()),
		incoming: make(chan *protocol.Inbound, 32),
		outgoing: make(chan *protocol.Message, 32),
		done:     make(chan struct{}),
	}
	go c.readPump()
	go c.writePump()

	in, err := c.next(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}
	var hello protocol.Connected
	if in.Type != protocol.EventConnected || in.Bind(&hello) != nil || hello.ConnectionID == "" {
		c.Close()
		return nil, ErrNoGreeting
	}
	c.ID = hello.ConnectionID
	return c, nil
}

// Subprotocol returns the negotiated frame codec.
func (c *Client) Subprotocol() string { return c.codec.Subprotocol() }

// readPump reads frames from the websocket connection.
func (c *Client) readPump() {
	defer func() {
		c.conn.Close()
		close(c.incoming)
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		in, err := c.codec.Decode(data)
		if err != nil {
			continue
		}
		select {
		case c.incoming <- in:
		case <-c.done:
			return
		}
	}
}

// writePump writes frames to the websocket connection and sends periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.outgoing:
			if err := c.write(msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.flush()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Client) write(msg *protocol.Message) error {
	data, err := c.codec.Encode(msg)
	if err != nil {
		// Unencodable frames are skipped.
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(c.codec.FrameType(), data)
}

// flush writes whatever was queued before Close.
func (c *Client) flush() {
	for {
		select {
		case msg := <-c.outgoing:
			if err := c.write(msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

// Incoming returns the channel of frames from the server. It is closed when
// the connection ends.
func (c *Client) Incoming() <-chan *protocol.Inbound {
	return c.incoming
}

func (c *Client) next(ctx context.Context) (*protocol.Inbound, error) {
	select {
	case in, ok := <-c.incoming:
		if !ok {
			return nil, ErrClosed
		}
		return in, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Send queues one event for the server.
func (c *Client) Send(event string, payload any) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.outgoing <- &protocol.Message{Type: event, Payload: payload}:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

// Join asks to be seated in roomID and waits for the verdict.
func (c *Client) Join(ctx context.Context, roomID, passkey string, user protocol.User) (*protocol.RoomJoined, error) {
	err := c.Send(protocol.EventJoinRoom, protocol.JoinRoom{RoomID: roomID, Passkey: passkey, User: &user})
	if err != nil {
		return nil, err
	}

	for {
		in, err := c.next(ctx)
		if err != nil {
			return nil, err
		}
		switch in.Type {
		case protocol.EventRoomJoined:
			var joined protocol.RoomJoined
			if err := in.Bind(&joined); err != nil {
				return nil, fmt.Errorf("decode room snapshot: %w", err)
			}
			return &joined, nil
		case protocol.EventRoomError:
			var e protocol.RoomError
			in.Bind(&e)
			return nil, &JoinError{Reason: e.Reason}
		}
	}
}

func (c *Client) Leave() error {
	return c.Send(protocol.EventLeaveRoom, nil)
}

func (c *Client) Chat(roomID, content string) error {
	return c.Send(protocol.EventSendMessage, protocol.SendMessage{RoomID: roomID, Message: &protocol.ChatInput{Content: content}})
}

func (c *Client) UpdateCode(roomID, code string) error {
	return c.Send(protocol.EventCodeUpdate, protocol.CodeUpdate{RoomID: roomID, Code: &code})
}

func (c *Client) UpdateNotes(roomID, notes string) error {
	return c.Send(protocol.EventNotesUpdate, protocol.NotesUpdate{RoomID: roomID, Notes: &notes})
}

func (c *Client) ToggleMedia(roomID, kind string, enabled bool) error {
	return c.Send(protocol.EventMediaToggle, protocol.MediaToggle{RoomID: roomID, Type: kind, Enabled: &enabled})
}

// Signal sends one WebRTC step to the peer. An empty to lets the server
// pick the roommate.
func (c *Client) Signal(kind protocol.SignalKind, payload any, to string) error {
	return c.Send(kind.Event(), protocol.NewSignal(kind, payload, "", to).Payload)
}

// Close says goodbye to the server and drops the connection.
func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
}
