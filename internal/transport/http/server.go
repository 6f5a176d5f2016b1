// Package http exposes the REST API and the websocket room endpoint.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ademetov/messenger-server/internal/auth"
	"github.com/ademetov/messenger-server/internal/blob"
	"github.com/ademetov/messenger-server/internal/config"
	"github.com/ademetov/messenger-server/internal/core"
	"github.com/ademetov/messenger-server/internal/service/friends"
	"github.com/ademetov/messenger-server/internal/service/rooms"
	"github.com/ademetov/messenger-server/internal/store"
	"github.com/ademetov/messenger-server/internal/view"
)

// NewServer creates an HTTP server with all routes configured.
func NewServer(
	registry *core.Registry,
	authService *auth.Service,
	st store.Store,
	roomService *rooms.Service,
	friendService *friends.Service,
	renderer *view.Renderer,
	blobs *blob.FSStore,
	cfg *config.Config,
	logger *zerolog.Logger,
) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	apiHandlers := NewAPIHandlers(authService, logger)
	roomHandlers := NewRoomHandlers(roomService, logger)
	messageHandlers := NewMessageHandlers(roomService, st, renderer, logger)
	friendHandlers := NewFriendHandlers(friendService, logger)
	wsHandler := NewWSHandler(registry, authService, st, blobs, renderer, logger)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Stored message images are served straight off the filesystem.
	router.Static(cfg.MediaBaseURL, blobs.Dir())

	api := router.Group("/api")
	{
		api.POST("/register", apiHandlers.Register)
		api.POST("/login", apiHandlers.Login)

		authorized := api.Group("")
		authorized.Use(AuthMiddleware(authService, logger))
		{
			authorized.GET("/rooms", roomHandlers.List)
			authorized.POST("/rooms", roomHandlers.Create)
			authorized.GET("/rooms/:room_id", roomHandlers.Info)
			authorized.GET("/rooms/:room_id/messages", messageHandlers.History)
			authorized.POST("/rooms/:room_id/invite", roomHandlers.Invite)
			authorized.POST("/rooms/:room_id/invite/cancel", roomHandlers.CancelInvite)
			authorized.POST("/rooms/:room_id/invite/accept", roomHandlers.AcceptInvite)
			authorized.POST("/rooms/:room_id/invite/reject", roomHandlers.RejectInvite)
			authorized.POST("/rooms/:room_id/leave", roomHandlers.Leave)
			authorized.GET("/invites", roomHandlers.ListInvitations)

			authorized.POST("/friends/requests", friendHandlers.SendRequest)
			authorized.GET("/friends/requests", friendHandlers.ListRequests)
			authorized.POST("/friends/requests/accept", friendHandlers.AcceptRequest)
			authorized.POST("/friends/requests/reject", friendHandlers.RejectRequest)
			authorized.GET("/friends", friendHandlers.ListFriends)
		}
	}

	// Token check happens inside the handler: websocket dials can't always
	// carry an Authorization header.
	router.GET("/ws/rooms/:room_id", wsHandler.Handle)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
