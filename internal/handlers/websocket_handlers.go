package handlers

import (
	"errors"
	"net/http"
	"time"

	"dm-relay/internal/auth"
	ws "dm-relay/internal/websocket"
	"dm-relay/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

// TokenVerifier resolves a handshake token to the user id it was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

type WebSocketHandlers struct {
	verifier TokenVerifier
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewWebSocketHandlers accepts browser connections from allowedOrigins only.
// An empty list allows every origin.
func NewWebSocketHandlers(verifier TokenVerifier, hub *ws.Hub, allowedOrigins []string) *WebSocketHandlers {
	return &WebSocketHandlers{
		verifier: verifier,
		hub:      hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowedOrigins) == 0 || lo.Contains(allowedOrigins, origin)
			},
		},
	}
}

func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, err := authenticate(h.verifier, r)
	if err != nil {
		logger.Debug("Rejected handshake from %s: %v", r.RemoteAddr, err)
		http.Error(w, unauthorizedMessage(err), http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		return
	}

	client := ws.NewClient(h.hub, conn, userID)
	if err := h.hub.Register(client); err != nil {
		logger.Warn("Closing connection %s of user %s: %v", client.ConnID(), client.UserID(), err)
		closeMsg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second))
		conn.Close()
		return
	}
	logger.Debug("Handshake accepted for user %s (%s)", client.UserID(), client.ConnID())

	go client.WritePump()
	go client.ReadPump()
}

func authenticate(verifier TokenVerifier, r *http.Request) (string, error) {
	token := auth.TokenFromRequest(r)
	if token == "" {
		return "", auth.ErrMissingToken
	}
	return verifier.Verify(token)
}

func unauthorizedMessage(err error) string {
	if errors.Is(err, auth.ErrMissingToken) {
		return "missing token"
	}
	return "invalid token"
}
