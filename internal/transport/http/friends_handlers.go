package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ademetov/messenger-server/internal/service/friends"
	"github.com/ademetov/messenger-server/internal/store"
)

// FriendHandlers provides HTTP handlers for friend management endpoints.
type FriendHandlers struct {
	friends *friends.Service
	log     *zerolog.Logger
}

// NewFriendHandlers creates a new friend handlers instance.
func NewFriendHandlers(friendService *friends.Service, logger *zerolog.Logger) *FriendHandlers {
	return &FriendHandlers{
		friends: friendService,
		log:     logger,
	}
}

// FriendRequest carries the target user of a friend operation.
type FriendRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

// FriendResponse represents a friendship row in API responses.
type FriendResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	FriendID  int64     `json:"friend_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toFriendResponse(f *store.Friend) FriendResponse {
	return FriendResponse{
		ID:        f.ID,
		UserID:    f.UserID,
		FriendID:  f.FriendID,
		Status:    string(f.Status),
		CreatedAt: f.CreatedAt,
	}
}

// SendRequest sends a friend request.
// POST /api/friends/requests
func (h *FriendHandlers) SendRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req FriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	friend, err := h.friends.SendRequest(c.Request.Context(), userID, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, friends.ErrCannotFriendSelf):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot send friend request to yourself"})
		case errors.Is(err, friends.ErrUserNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
		case errors.Is(err, friends.ErrAlreadyFriends):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "already friends"})
		case errors.Is(err, friends.ErrRequestAlreadyExists):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "friend request already exists"})
		default:
			h.log.Error().Err(err).Msg("failed to send friend request")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, toFriendResponse(friend))
}

// AcceptRequest accepts a pending friend request sent to the caller.
// POST /api/friends/requests/accept
func (h *FriendHandlers) AcceptRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req FriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.friends.AcceptRequest(c.Request.Context(), userID, req.UserID); err != nil {
		if errors.Is(err, friends.ErrRequestNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "friend request not found"})
			return
		}
		h.log.Error().Err(err).Msg("failed to accept friend request")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

// RejectRequest rejects a pending friend request sent to the caller.
// POST /api/friends/requests/reject
func (h *FriendHandlers) RejectRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req FriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.friends.RejectRequest(c.Request.Context(), userID, req.UserID); err != nil {
		if errors.Is(err, friends.ErrRequestNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "friend request not found"})
			return
		}
		h.log.Error().Err(err).Msg("failed to reject friend request")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

// ListFriends lists accepted friendships of the caller.
// GET /api/friends
func (h *FriendHandlers) ListFriends(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	list, err := h.friends.ListFriends(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list friends")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]FriendResponse, 0, len(list))
	for _, f := range list {
		out = append(out, toFriendResponse(f))
	}
	c.JSON(http.StatusOK, out)
}

// ListRequests lists incoming pending friend requests of the caller.
// GET /api/friends/requests
func (h *FriendHandlers) ListRequests(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	list, err := h.friends.ListPendingRequests(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list friend requests")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]FriendResponse, 0, len(list))
	for _, f := range list {
		out = append(out, toFriendResponse(f))
	}
	c.JSON(http.StatusOK, out)
}
