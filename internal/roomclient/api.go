package roomclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/interview"
)

var (
	ErrNotFound     = errors.New("room not found")
	ErrConflict     = errors.New("room already exists")
	ErrUnauthorized = errors.New("unauthorized")
)

// Health mirrors GET /health.
type Health struct {
	RoomCount       int `json:"roomCount"`
	ConnectionCount int `json:"connectionCount"`
}

// CreateRoom is the body of POST /rooms.
type CreateRoom struct {
	ID              string `json:"id,omitempty"`
	Passkey         string `json:"passkey"`
	DurationMinutes int    `json:"durationMinutes"`
}

// API is a small client for the administrative HTTP surface.
type API struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewAPI(baseURL, token string) *API {
	return &API{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// WebSocketURL derives the gateway endpoint from the API base URL.
func (a *API) WebSocketURL() (string, error) {
	u, err := url.Parse(a.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

func (a *API) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := a.do(ctx, http.MethodGet, "/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (a *API) Room(ctx context.Context, id string) (*interview.Summary, error) {
	var sum interview.Summary
	if err := a.do(ctx, http.MethodGet, "/rooms/"+url.PathEscape(id), nil, &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

func (a *API) CreateRoom(ctx context.Context, req CreateRoom) (*interview.Summary, error) {
	var sum interview.Summary
	if err := a.do(ctx, http.MethodPost, "/rooms", req, &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}

	resp, err := a.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return json.NewDecoder(resp.Body).Decode(out)
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusUnauthorized:
		return ErrUnauthorized
	}

	var e struct {
		Error string `json:"error"`
	}
	json.NewDecoder(resp.Body).Decode(&e)
	if e.Error == "" {
		e.Error = resp.Status
	}
	return fmt.Errorf("%s %s: %s", method, path, e.Error)
}
