package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ademetov/messenger-server/internal/auth"
	"github.com/ademetov/messenger-server/internal/blob"
	"github.com/ademetov/messenger-server/internal/core"
	"github.com/ademetov/messenger-server/internal/store"
	"github.com/ademetov/messenger-server/internal/view"
)

// Outbound is the envelope of every event pushed to a connected client. Data
// carries the message rendered for this connection's user.
type Outbound struct {
	Type  string        `json:"type"`
	Event string        `json:"event"`
	Data  *view.Message `json:"data"`
}

// WSHandler upgrades room connections and runs their session loops.
type WSHandler struct {
	registry    *core.Registry
	authService *auth.Service
	store       store.Store
	blobs       blob.Store
	renderer    *view.Renderer
	log         *zerolog.Logger
}

// NewWSHandler creates a new websocket handler instance.
func NewWSHandler(registry *core.Registry, authService *auth.Service, st store.Store, blobs blob.Store, renderer *view.Renderer, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		registry:    registry,
		authService: authService,
		store:       st,
		blobs:       blobs,
		renderer:    renderer,
		log:         logger,
	}
}

// Handle serves one room connection.
// GET /ws/rooms/:room_id
func (h *WSHandler) Handle(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	// Browsers can't set headers on websocket dials, so the token may come
	// in a query parameter instead.
	token := c.Query("token")
	if token == "" {
		authHeader := c.GetHeader("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			token = authHeader[7:]
		}
	}
	claims, err := h.authService.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
		return
	}

	user, err := h.store.GetUserByID(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unknown user"})
		return
	}

	if _, err := h.store.GetRoomByID(c.Request.Context(), roomID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		h.log.Error().Err(err).Msg("failed to load room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS is handled at the HTTP layer
	})
	if err != nil {
		h.log.Debug().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "connection closed")

	client := core.NewClient(uuid.NewString(), user.ID, user.Username)
	session := core.NewSession(roomID, user, client, h.registry, h.store, h.store, h.blobs, h.log)
	defer session.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	if err := session.Join(ctx); err != nil {
		if errors.Is(err, core.ErrNotMember) {
			conn.Close(websocket.StatusPolicyViolation, "not a room member")
			return
		}
		h.log.Error().Err(err).Msg("failed to join room")
		conn.Close(websocket.StatusInternalError, "internal error")
		return
	}

	h.log.Info().
		Int64("room_id", roomID).
		Int64("user_id", user.ID).
		Str("client_id", client.ID).
		Msg("websocket connected")

	errCh := make(chan error, 2)

	go func() {
		errCh <- h.readLoop(ctx, conn, session)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client, user.ID)
	}()

	err = <-errCh
	cancel()

	h.log.Info().
		Int64("room_id", roomID).
		Int64("user_id", user.ID).
		Str("client_id", client.ID).
		Msg("websocket disconnected")

	switch {
	case err == nil || websocket.CloseStatus(err) != -1 || errors.Is(err, context.Canceled):
		conn.Close(websocket.StatusNormalClosure, "")
	case errors.Is(err, core.ErrUnknownAction) || errors.Is(err, core.ErrSessionNotJoined):
		conn.Close(websocket.StatusPolicyViolation, "protocol violation")
	default:
		h.log.Error().Err(err).Msg("websocket session failed")
		conn.Close(websocket.StatusInternalError, "internal error")
	}
}

// readLoop feeds inbound frames to the session until the connection drops or
// the session demands a close.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, session *core.Session) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if err := session.HandleFrame(ctx, data); err != nil {
			return err
		}
	}
}

// writeLoop renders each broadcast event for this connection's user and
// pushes it out.
func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client, viewerID int64) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-client.Events:
			msg, err := h.store.GetMessage(ctx, event.MessageID)
			if err != nil {
				// Raced with cleanup; nothing to deliver.
				if errors.Is(err, store.ErrNotFound) {
					continue
				}
				return err
			}
			images, err := h.store.ListMessageImages(ctx, msg.ID)
			if err != nil {
				return err
			}
			rendered, err := h.renderer.Render(ctx, msg, images, viewerID)
			if err != nil {
				return err
			}
			out := Outbound{
				Type:  "event",
				Event: event.Kind.String(),
				Data:  rendered,
			}
			if err := wsjson.Write(ctx, conn, out); err != nil {
				return err
			}
		}
	}
}
