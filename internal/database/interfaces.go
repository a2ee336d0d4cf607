package database

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_store.go -package=mocks

import (
	"context"
	"errors"

	"dm-relay/internal/models"
)

// ErrNotFound is returned when the user or message does not exist.
var ErrNotFound = errors.New("record not found")

type UserStore interface {
	// SetOnline writes the durable online flag for a user.
	SetOnline(ctx context.Context, userID string, online bool) error
}

type MessageStore interface {
	// SetStatus moves a message forward to status and returns the stored
	// record. A request that would move the status backwards leaves the record
	// unchanged and still returns it.
	SetStatus(ctx context.Context, messageID string, status models.MessageStatus) (*models.Message, error)
}

type Database interface {
	UserStore
	MessageStore
	Close() error
}
