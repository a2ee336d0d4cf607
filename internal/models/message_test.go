package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessageStatus_Lifecycle(t *testing.T) {
	tests := []struct {
		name     string
		to       MessageStatus
		from     MessageStatus
		advances bool
	}{
		{"sent to delivered", StatusDelivered, StatusSent, true},
		{"sent to read skips delivered", StatusRead, StatusSent, true},
		{"delivered to read", StatusRead, StatusDelivered, true},
		{"read to delivered regresses", StatusDelivered, StatusRead, false},
		{"delivered to delivered", StatusDelivered, StatusDelivered, false},
		{"unknown target", MessageStatus("seen"), StatusSent, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.advances, tt.to.Advances(tt.from))
		})
	}
}

func TestMessageStatus_Below(t *testing.T) {
	req := require.New(t)
	req.Empty(StatusSent.Below())
	req.Equal([]MessageStatus{StatusSent}, StatusDelivered.Below())
	req.Equal([]MessageStatus{StatusSent, StatusDelivered}, StatusRead.Below())
	req.Nil(MessageStatus("bogus").Below())
	req.False(MessageStatus("").Valid())
}

func TestNewEnvelope(t *testing.T) {
	req := require.New(t)

	data, err := NewEnvelope(EventMessageStatus, StatusPayload{MessageID: "m1", Status: StatusRead})
	req.NoError(err)
	req.JSONEq(`{"event":"message:status","data":{"messageId":"m1","status":"read"}}`, string(data))

	data, err = NewEnvelope(EventMessageReceive, ReceivePayload{MessageID: "m2", SenderID: "alice", Content: "hi", Type: "text", Status: StatusDelivered})
	req.NoError(err)

	var env Envelope
	req.NoError(json.Unmarshal(data, &env))
	req.Equal(EventMessageReceive, env.Event)
	req.NotContains(string(env.Data), "fileUrl")
}
