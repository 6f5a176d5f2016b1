package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ademetov/messenger-server/internal/service/rooms"
	"github.com/ademetov/messenger-server/internal/store"
)

// RoomHandlers provides HTTP handlers for room management endpoints.
type RoomHandlers struct {
	rooms *rooms.Service
	log   *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(roomService *rooms.Service, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		rooms: roomService,
		log:   logger,
	}
}

// CreateRoomRequest represents the room creation request body.
type CreateRoomRequest struct {
	Name string `json:"name" binding:"required"`
}

// InviteRequest carries the target user of an invite operation.
type InviteRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// InvitationResponse represents a room invitation in API responses.
type InvitationResponse struct {
	ID         int64     `json:"id"`
	RoomID     int64     `json:"room_id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func toRoomResponse(room *store.Room) RoomResponse {
	return RoomResponse{
		ID:        room.ID,
		Name:      room.Name,
		Image:     room.Image,
		CreatedAt: room.CreatedAt,
	}
}

func toInvitationResponse(inv *store.RoomInvitation) InvitationResponse {
	return InvitationResponse{
		ID:         inv.ID,
		RoomID:     inv.RoomID,
		SenderID:   inv.SenderID,
		ReceiverID: inv.ReceiverID,
		CreatedAt:  inv.CreatedAt,
	}
}

// parseRoomID extracts the room_id path parameter.
func parseRoomID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room id"})
		return 0, false
	}
	return id, true
}

// Create handles room creation.
// POST /api/rooms
func (h *RoomHandlers) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	room, err := h.rooms.Create(c.Request.Context(), req.Name, userID)
	if err != nil {
		switch {
		case errors.Is(err, rooms.ErrEmptyName):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "room name is required"})
		case errors.Is(err, rooms.ErrRoomExists):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "room already exists"})
		default:
			h.log.Error().Err(err).Msg("failed to create room")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Int64("room_id", room.ID).Int64("user_id", userID).Msg("room created")
	c.JSON(http.StatusCreated, toRoomResponse(room))
}

// List lists rooms of the authenticated user.
// GET /api/rooms
func (h *RoomHandlers) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	list, err := h.rooms.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list rooms")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]RoomResponse, 0, len(list))
	for _, room := range list {
		out = append(out, toRoomResponse(room))
	}
	c.JSON(http.StatusOK, out)
}

// Info returns one room. Members only.
// GET /api/rooms/:room_id
func (h *RoomHandlers) Info(c *gin.Context) {
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

	room, err := h.rooms.Get(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, rooms.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		h.log.Error().Err(err).Msg("failed to get room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, toRoomResponse(room))
}

// Invite invites a user into the room. Admin-only.
// POST /api/rooms/:room_id/invite
func (h *RoomHandlers) Invite(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	inv, err := h.rooms.Invite(c.Request.Context(), roomID, userID, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, rooms.ErrNotAdmin):
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "not a room admin"})
		case errors.Is(err, rooms.ErrCannotInviteSelf):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot invite yourself"})
		case errors.Is(err, rooms.ErrUserNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
		case errors.Is(err, rooms.ErrAlreadyInvited):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "invitation already exists"})
		case errors.Is(err, rooms.ErrAlreadyMember):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "user is already a member"})
		default:
			h.log.Error().Err(err).Msg("failed to create invitation")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, toInvitationResponse(inv))
}

// CancelInvite withdraws a pending invitation. Admin-only.
// POST /api/rooms/:room_id/invite/cancel
func (h *RoomHandlers) CancelInvite(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	err := h.rooms.CancelInvite(c.Request.Context(), roomID, userID, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, rooms.ErrNotAdmin):
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "not a room admin"})
		case errors.Is(err, rooms.ErrInvitationNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "invitation not found"})
		default:
			h.log.Error().Err(err).Msg("failed to cancel invitation")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// AcceptInvite consumes the caller's invitation and joins the room.
// POST /api/rooms/:room_id/invite/accept
func (h *RoomHandlers) AcceptInvite(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	if err := h.rooms.Accept(c.Request.Context(), roomID, userID); err != nil {
		if errors.Is(err, rooms.ErrInvitationNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "invitation not found"})
			return
		}
		h.log.Error().Err(err).Msg("failed to accept invitation")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

// RejectInvite declines the caller's invitation.
// POST /api/rooms/:room_id/invite/reject
func (h *RoomHandlers) RejectInvite(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	if err := h.rooms.Reject(c.Request.Context(), roomID, userID); err != nil {
		if errors.Is(err, rooms.ErrInvitationNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "invitation not found"})
			return
		}
		h.log.Error().Err(err).Msg("failed to reject invitation")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Leave removes the caller from the room.
// POST /api/rooms/:room_id/leave
func (h *RoomHandlers) Leave(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	if err := h.rooms.Leave(c.Request.Context(), roomID, userID); err != nil {
		if errors.Is(err, rooms.ErrNotMember) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "not a room member"})
			return
		}
		h.log.Error().Err(err).Msg("failed to leave room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("room_id", roomID).Int64("user_id", userID).Msg("user left room")
	c.Status(http.StatusNoContent)
}

// ListInvitations lists invitations addressed to the caller.
// GET /api/invites
func (h *RoomHandlers) ListInvitations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	list, err := h.rooms.ListInvitations(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list invitations")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]InvitationResponse, 0, len(list))
	for _, inv := range list {
		out = append(out, toInvitationResponse(inv))
	}
	c.JSON(http.StatusOK, out)
}
