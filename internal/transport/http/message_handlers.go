package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ademetov/messenger-server/internal/service/rooms"
	"github.com/ademetov/messenger-server/internal/store"
	"github.com/ademetov/messenger-server/internal/view"
)

const (
	defaultMessagePageSize = 50
	maxMessagePageSize     = 200
)

// MessageHandlers serves the room message history endpoint.
type MessageHandlers struct {
	rooms    *rooms.Service
	messages store.MessageStore
	renderer *view.Renderer
	log      *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(roomService *rooms.Service, messages store.MessageStore, renderer *view.Renderer, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		rooms:    roomService,
		messages: messages,
		renderer: renderer,
		log:      logger,
	}
}

// History returns room messages newest-first, rendered for the caller.
// Supports limit/offset paging and an optional last_message cursor: when
// given, only messages created at or before the cursor message are returned.
// GET /api/rooms/:room_id/messages
func (h *MessageHandlers) History(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	member, err := h.rooms.IsMember(c.Request.Context(), roomID, userID)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to check membership")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if !member {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "not a room member"})
		return
	}

	limit := defaultMessagePageSize
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		if limit > maxMessagePageSize {
			limit = maxMessagePageSize
		}
	}

	offset := 0
	if raw := c.Query("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid offset"})
			return
		}
	}

	var cursorID *int64
	if raw := c.Query("last_message"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid last_message"})
			return
		}
		cursorID = &id
	}

	messages, err := h.messages.ListRoomMessages(c.Request.Context(), roomID, cursorID, limit, offset)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown last_message"})
			return
		}
		h.log.Error().Err(err).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]*view.Message, 0, len(messages))
	for _, msg := range messages {
		images, err := h.messages.ListMessageImages(c.Request.Context(), msg.ID)
		if err != nil {
			h.log.Error().Err(err).Int64("message_id", msg.ID).Msg("failed to list message images")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}
		rendered, err := h.renderer.Render(c.Request.Context(), msg, images, userID)
		if err != nil {
			h.log.Error().Err(err).Int64("message_id", msg.ID).Msg("failed to render message")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}
		out = append(out, rendered)
	}

	c.JSON(http.StatusOK, out)
}
