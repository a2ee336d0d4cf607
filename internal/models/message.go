package models

import (
	"slices"
	"time"
)

// MessageStatus is the delivery stage of a message. Stages only move forward:
// sent, then delivered, then read.
type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

var statusOrder = []MessageStatus{StatusSent, StatusDelivered, StatusRead}

// Rank returns the position of s in the lifecycle, or -1 for an unknown status.
func (s MessageStatus) Rank() int {
	return slices.Index(statusOrder, s)
}

func (s MessageStatus) Valid() bool {
	return s.Rank() >= 0
}

// Below returns the statuses a message can hold and still be moved to s.
func (s MessageStatus) Below() []MessageStatus {
	if !s.Valid() {
		return nil
	}
	return slices.Clone(statusOrder[:s.Rank()])
}

// Advances reports whether moving a message from `from` to s is a forward step.
func (s MessageStatus) Advances(from MessageStatus) bool {
	return s.Valid() && s.Rank() > from.Rank()
}

// Message is the persisted direct message. The relay only reads the sender
// and writes the status; everything else belongs to the message store.
type Message struct {
	ID         string        `json:"id"`
	SenderID   string        `json:"sender_id"`
	ReceiverID string        `json:"receiver_id"`
	Content    string        `json:"content"`
	Type       string        `json:"type"`
	FileURL    string        `json:"file_url,omitempty"`
	Status     MessageStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}
