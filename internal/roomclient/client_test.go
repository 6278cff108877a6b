package roomclient

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/auth"
	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/interview"
	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/protocol"
	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/server"
	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/signaling"
)

func startServer(t *testing.T) (*API, *auth.Authenticator) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := interview.NewRegistry(interview.Options{PasskeyCost: bcrypt.MinCost})
	hub := signaling.NewHub(reg, signaling.DefaultConfig())
	authn := auth.New("test-secret")
	srv := httptest.NewServer(server.NewRouter(hub, authn, server.Options{}))
	t.Cleanup(srv.Close)
	return NewAPI(srv.URL+"/", ""), authn
}

func connect(t *testing.T, api *API, subprotocol string) *Client {
	t.Helper()
	wsURL, err := api.WebSocketURL()
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Dial(ctx, wsURL, subprotocol)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func waitFor(t *testing.T, c *Client, event string, v any) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case in, ok := <-c.Incoming():
			if !ok {
				t.Fatalf("closed while waiting for %s", event)
			}
			if in.Type != event {
				continue
			}
			if v != nil {
				if err := in.Bind(v); err != nil {
					t.Fatalf("bind %s: %v", event, err)
				}
			}
			return
		case <-timeout:
			t.Fatalf("timed out waiting for %s", event)
		}
	}
}

func TestAdminAPI(t *testing.T) {
	api, authn := startServer(t)
	ctx := context.Background()

	if _, err := api.CreateRoom(ctx, CreateRoom{ID: "R1", Passkey: "abc"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("create without token err = %v", err)
	}

	api.Token, _ = authn.GenerateToken("recruiter-7", time.Hour)
	sum, err := api.CreateRoom(ctx, CreateRoom{ID: "R1", Passkey: "abc", DurationMinutes: 30})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sum.ID != "R1" || sum.DurationMinutes != 30 || sum.CreatedBy != "recruiter-7" {
		t.Errorf("summary = %+v", sum)
	}
	if _, err := api.CreateRoom(ctx, CreateRoom{ID: "R1", Passkey: "abc"}); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate create err = %v", err)
	}
	if _, err := api.CreateRoom(ctx, CreateRoom{ID: "R2"}); err == nil {
		t.Error("create without passkey succeeded")
	}

	if _, err := api.Room(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown room err = %v", err)
	}
	h, err := api.Health(ctx)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if h.RoomCount != 1 || h.ConnectionCount != 0 {
		t.Errorf("health = %+v", h)
	}
}

func TestTwoParticipants(t *testing.T) {
	api, _ := startServer(t)
	ctx := context.Background()

	sam := connect(t, api, protocol.SubprotocolMsgpack)
	if sam.Subprotocol() != protocol.SubprotocolMsgpack {
		t.Errorf("subprotocol = %q", sam.Subprotocol())
	}
	if _, err := sam.Join(ctx, "R1", "abc", protocol.User{Name: "Sam", Role: "interviewer"}); err != nil {
		t.Fatalf("sam join: %v", err)
	}

	lee := connect(t, api, "")
	var jerr *JoinError
	if _, err := lee.Join(ctx, "R1", "wrong", protocol.User{Name: "Lee", Role: "candidate"}); !errors.As(err, &jerr) || jerr.Reason != protocol.ReasonInvalidPasskey {
		t.Fatalf("wrong passkey err = %v", err)
	}
	joined, err := lee.Join(ctx, "R1", "abc", protocol.User{Name: "Lee", Role: "candidate"})
	if err != nil {
		t.Fatalf("lee join: %v", err)
	}
	if joined.Room.Status != interview.StatusActive {
		t.Errorf("status = %s", joined.Room.Status)
	}

	sum, err := api.Room(ctx, "R1")
	if err != nil {
		t.Fatalf("room: %v", err)
	}
	if sum.ParticipantCount != 2 {
		t.Errorf("participants = %d", sum.ParticipantCount)
	}

	if err := sam.UpdateCode("R1", "print(1)"); err != nil {
		t.Fatal(err)
	}
	var code protocol.CodeUpdated
	waitFor(t, lee, protocol.EventCodeUpdated, &code)
	if code.Code != "print(1)" {
		t.Errorf("code = %q", code.Code)
	}

	if err := lee.Signal(protocol.SignalOffer, map[string]any{"type": "offer", "sdp": "v=0"}, ""); err != nil {
		t.Fatal(err)
	}
	var sig protocol.Signal
	waitFor(t, sam, protocol.EventOffer, &sig)
	if sig.From != lee.ID {
		t.Errorf("from = %q, want %q", sig.From, lee.ID)
	}

	lee.Leave()
	var left protocol.Presence
	waitFor(t, sam, protocol.EventUserLeft, &left)
	if left.User.Name != "Lee" {
		t.Errorf("user-left = %+v", left.User)
	}
}

func TestWebSocketURL(t *testing.T) {
	tests := map[string]string{
		"http://localhost:8080":      "ws://localhost:8080/ws",
		"https://rooms.example/api/": "wss://rooms.example/api/ws",
	}
	for base, want := range tests {
		got, err := NewAPI(base, "").WebSocketURL()
		if err != nil || got != want {
			t.Errorf("WebSocketURL(%q) = %q, %v; want %q", base, got, err, want)
		}
	}
}
