package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/auth"
	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/interview"
	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/protocol"
	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/signaling"
)

const subjectKey = "subject"

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	RoomCount       int `json:"roomCount"`
	ConnectionCount int `json:"connectionCount"`
}

// CreateRoomRequest provisions a room. An empty ID asks the server to
// generate one.
type CreateRoomRequest struct {
	ID              string `json:"id,omitempty"`
	Passkey         string `json:"passkey"`
	DurationMinutes int    `json:"durationMinutes"`
}

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins []string
}

// NewRouter wires the administrative API and the websocket endpoint.
func NewRouter(hub *signaling.Hub, authn *auth.Authenticator, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
	}))

	h := &handler{hub: hub, registry: hub.Registry()}

	r.GET("/health", h.health)
	r.GET("/ws", ServeWs(hub, origins))

	rooms := r.Group("/rooms")
	{
		rooms.GET("/:id", h.getRoom)
		rooms.POST("", JWTAuth(authn), h.createRoom)
	}
	return r
}

const generateAttempts = 5

type handler struct {
	hub      *signaling.Hub
	registry *interview.Registry
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		RoomCount:       h.registry.Len(),
		ConnectionCount: h.hub.ConnectionCount(),
	})
}

func (h *handler) getRoom(c *gin.Context) {
	sum, err := h.registry.Summary(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *handler) createRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.Passkey == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "passkey is required"})
		return
	}
	if req.DurationMinutes < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "durationMinutes must not be negative"})
		return
	}

	createdBy := c.GetString(subjectKey)
	var sum interview.Summary
	var err error
	if req.ID == "" {
		// Generated ids can collide; a few draws are plenty.
		for i := 0; i < generateAttempts; i++ {
			sum, err = h.registry.Create(interview.NewRoomID(), req.Passkey, req.DurationMinutes, createdBy)
			if !errors.Is(err, interview.ErrRoomExists) {
				break
			}
		}
	} else {
		sum, err = h.registry.Create(req.ID, req.Passkey, req.DurationMinutes, createdBy)
	}
	if errors.Is(err, interview.ErrRoomExists) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "room already exists"})
		return
	}
	if err != nil {
		slog.Error("create room failed", "room", req.ID, "err", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "could not create room"})
		return
	}
	c.JSON(http.StatusCreated, sum)
}

// JWTAuth rejects requests without a valid bearer token and stores the
// token subject in the context.
func JWTAuth(authn *auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "authorization header required"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid authorization header format"})
			return
		}

		subject, err := authn.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid or expired token"})
			return
		}

		c.Set(subjectKey, subject)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"remote", c.ClientIP(),
		)
	}
}

// ServeWs upgrades the request and hands the connection to the hub. The
// client picks the frame codec through the websocket subprotocol.
func ServeWs(hub *signaling.Hub, allowedOrigins []string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 64 * 1024,
		Subprotocols:    protocol.Subprotocols,
		CheckOrigin:     originChecker(allowedOrigins),
	}

	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Warn("failed to upgrade connection", "remote", c.ClientIP(), "err", err)
			return
		}
		hub.Attach(conn)
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients do not send an origin.
			return true
		}
		for _, o := range allowed {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}
