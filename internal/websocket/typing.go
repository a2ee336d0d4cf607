package websocket

import (
	"dm-relay/internal/models"
	"dm-relay/pkg/logger"
)

// handleTyping relays typing:start and typing:stop to a bound receiver.
// Nothing is stored and nothing is acknowledged.
func (h *Hub) handleTyping(c *Client, event models.EventName, p models.TypingPayload) {
	receiver, ok := h.registry.Lookup(p.ReceiverID)
	if !ok {
		return
	}
	if err := h.emit(receiver, event, models.TypingNotice{UserID: c.userID}); err != nil {
		logger.Debug("Dropped %s from user %s to %s: %v", event, c.userID, p.ReceiverID, err)
	}
}
