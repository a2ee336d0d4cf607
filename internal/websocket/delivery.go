package websocket

import (
	"context"

	"dm-relay/internal/models"
	"dm-relay/pkg/logger"
)

// handleSend forwards a persisted message to its receiver when the receiver
// is bound, then marks it delivered and acknowledges the sender. An offline
// receiver gets nothing live and the stored status is left alone.
func (h *Hub) handleSend(c *Client, p models.SendPayload) {
	if p.SenderID != c.userID {
		logger.Warn("Ignoring message:send %s from user %s claiming sender %s", p.MessageID, c.userID, p.SenderID)
		return
	}

	receiver, ok := h.registry.Lookup(p.ReceiverID)
	if !ok {
		logger.Debug("Receiver %s offline, message %s not delivered live", p.ReceiverID, p.MessageID)
		return
	}

	err := h.emit(receiver, models.EventMessageReceive, models.ReceivePayload{
		MessageID: p.MessageID,
		SenderID:  p.SenderID,
		Content:   p.Content,
		Type:      p.Type,
		FileURL:   p.FileURL,
		Status:    models.StatusDelivered,
	})
	if err != nil {
		logger.Error("Error forwarding message %s to user %s: %v", p.MessageID, p.ReceiverID, err)
		return
	}

	await(h, func(ctx context.Context) (*models.Message, error) {
		return h.messages.SetStatus(ctx, p.MessageID, models.StatusDelivered)
	}, func(msg *models.Message, err error) {
		if err != nil {
			logger.Error("Error marking message %s delivered: %v", p.MessageID, err)
			return
		}
		if msg.Status != models.StatusDelivered {
			logger.Debug("Message %s already %s, no delivered ack", p.MessageID, msg.Status)
			return
		}

		ack := models.StatusPayload{MessageID: p.MessageID, Status: models.StatusDelivered}
		if err := h.emit(c, models.EventMessageStatus, ack); err != nil {
			logger.Debug("Delivered ack for message %s not sent to user %s: %v", p.MessageID, c.userID, err)
		}
	})
}
