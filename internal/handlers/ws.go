package handlers

import (
	"net/http"
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/middleware"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	wsReadTimeout = 90 * time.Second
	wsReadLimit   = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS layer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Realtime upgrades to a WebSocket that receives the caller's events
// (messages, friend requests, comments). Browsers pass ?token=.
func (h *Handler) Realtime(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		http.Error(w, "missing session token", http.StatusUnauthorized)
		return
	}
	id, err := h.Tokens.Parse(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	unregister := h.Hub.Register(id.UserID, conn)
	defer unregister()

	log.WithField("user_id", id.UserID).Debug("realtime connection opened")

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	// Clients only send pings; anything else just extends the deadline.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Debug("realtime connection closed")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	}
}
