package models

import "encoding/json"

type EventName string

const (
	EventMessageSend    EventName = "message:send"
	EventMessageReceive EventName = "message:receive"
	EventMessageStatus  EventName = "message:status"
	EventMessageRead    EventName = "message:read"
	EventTypingStart    EventName = "typing:start"
	EventTypingStop     EventName = "typing:stop"
	EventUserOnline     EventName = "user:online"
	EventUserOffline    EventName = "user:offline"
)

// Envelope is the frame exchanged over the websocket in both directions.
type Envelope struct {
	Event EventName       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound payloads

type SendPayload struct {
	MessageID  string `json:"messageId" validate:"required"`
	SenderID   string `json:"senderId" validate:"required"`
	ReceiverID string `json:"receiverId" validate:"required"`
	Content    string `json:"content"`
	Type       string `json:"type"`
	FileURL    string `json:"fileUrl,omitempty"`
}

type ReadPayload struct {
	MessageID string `json:"messageId" validate:"required"`
}

type TypingPayload struct {
	ReceiverID string `json:"receiverId" validate:"required"`
}

// Outbound payloads

type ReceivePayload struct {
	MessageID string        `json:"messageId"`
	SenderID  string        `json:"senderId"`
	Content   string        `json:"content"`
	Type      string        `json:"type"`
	FileURL   string        `json:"fileUrl,omitempty"`
	Status    MessageStatus `json:"status"`
}

type StatusPayload struct {
	MessageID string        `json:"messageId"`
	Status    MessageStatus `json:"status"`
}

type TypingNotice struct {
	UserID string `json:"userId"`
}

type PresencePayload struct {
	UserID string `json:"userId"`
}

// NewEnvelope encodes payload under the given event name.
func NewEnvelope(event EventName, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
