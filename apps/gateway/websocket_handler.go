package main

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/myst-6/messaging/pkg/auth"
	"github.com/myst-6/messaging/pkg/room"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// serveWs authenticates the peer, upgrades the connection, and hands it to
// the conversation's coordinator. Identity comes from the JWT; the
// conversation id from the query string.
func serveWs(manager *room.Manager, authn *auth.Authenticator, logger *slog.Logger, w http.ResponseWriter, r *http.Request) {
	tokenString := auth.BearerToken(r)
	if tokenString == "" {
		logger.Warn("ws rejected: no token")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	claims, err := authn.ValidateToken(tokenString)
	if err != nil {
		logger.Warn("ws rejected: invalid token", "error", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID := claims.UserID

	conversationID := r.URL.Query().Get("conversationId")
	if conversationID == "" {
		http.Error(w, "Conversation ID is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("upgrade failed", "error", err)
		return
	}

	rm := manager.Get(conversationID)
	c := newClient(conn, rm, userID, logger)

	// The write pump must already be draining before Join enqueues
	// history and welcome.
	go c.writePump()

	if err := rm.Join(r.Context(), userID, c); err != nil {
		logger.Warn("join failed", "room", conversationID, "user", userID, "error", err)
		c.Close()
		conn.Close()
		return
	}

	go c.readPump()
}
