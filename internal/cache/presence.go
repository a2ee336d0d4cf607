// Package cache mirrors the durable presence flag into Redis so processes
// other than the owning relay can read who is online.
package cache

import (
	"context"

	"dm-relay/internal/database"
	"dm-relay/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// PresenceMirror wraps a UserStore and copies every successful flag write
// into a Redis set. The wrapped store stays authoritative: Redis failures
// are logged and never returned.
type PresenceMirror struct {
	next   database.UserStore
	client *redis.Client
	key    string
}

func NewPresenceMirror(next database.UserStore, client *redis.Client, key string) *PresenceMirror {
	return &PresenceMirror{
		next:   next,
		client: client,
		key:    key,
	}
}

func (m *PresenceMirror) SetOnline(ctx context.Context, userID string, online bool) error {
	if err := m.next.SetOnline(ctx, userID, online); err != nil {
		return err
	}

	var err error
	if online {
		err = m.client.SAdd(ctx, m.key, userID).Err()
	} else {
		err = m.client.SRem(ctx, m.key, userID).Err()
	}
	if err != nil {
		logger.Warn("Presence mirror update for user %s failed: %v", userID, err)
	}
	return nil
}
