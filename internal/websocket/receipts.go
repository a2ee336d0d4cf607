package websocket

import (
	"context"
	"errors"

	"dm-relay/internal/database"
	"dm-relay/internal/models"
	"dm-relay/pkg/logger"
)

// handleRead marks a message read whatever its current status and tells the
// original sender when they are bound.
func (h *Hub) handleRead(c *Client, p models.ReadPayload) {
	await(h, func(ctx context.Context) (*models.Message, error) {
		return h.messages.SetStatus(ctx, p.MessageID, models.StatusRead)
	}, func(msg *models.Message, err error) {
		if errors.Is(err, database.ErrNotFound) {
			logger.Warn("User %s read unknown message %s", c.userID, p.MessageID)
			return
		}
		if err != nil {
			logger.Error("Error marking message %s read: %v", p.MessageID, err)
			return
		}

		sender, ok := h.registry.Lookup(msg.SenderID)
		if !ok {
			return
		}
		ack := models.StatusPayload{MessageID: p.MessageID, Status: models.StatusRead}
		if err := h.emit(sender, models.EventMessageStatus, ack); err != nil {
			logger.Debug("Read ack for message %s not sent to user %s: %v", p.MessageID, msg.SenderID, err)
		}
	})
}
