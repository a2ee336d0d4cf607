package database

import (
	"context"
	"errors"
	"fmt"

	"dm-relay/internal/models"
	"dm-relay/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
)

type PostgresDB struct {
	pool *pgxpool.Pool
}

func NewPostgresDB(ctx context.Context, databaseURL string) (*PostgresDB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to database successfully")
	return &PostgresDB{pool: pool}, nil
}

func (db *PostgresDB) Close() error {
	db.pool.Close()
	return nil
}

// EnsureSchema creates the tables the relay touches when they are missing.
// Open runs it on every start; existing tables are left alone.
func (db *PostgresDB) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			id        TEXT PRIMARY KEY,
			online    BOOLEAN NOT NULL DEFAULT FALSE,
			last_seen TIMESTAMPTZ
		);
		CREATE TABLE IF NOT EXISTS messages (
			id          TEXT PRIMARY KEY,
			sender_id   TEXT NOT NULL,
			receiver_id TEXT NOT NULL,
			content     TEXT NOT NULL DEFAULT '',
			type        TEXT NOT NULL DEFAULT 'text',
			file_url    TEXT,
			status      TEXT NOT NULL DEFAULT 'sent',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`

	if _, err := db.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// User Repository Implementation
func (db *PostgresDB) SetOnline(ctx context.Context, userID string, online bool) error {
	query := `UPDATE users SET online = $2, last_seen = NOW() WHERE id = $1`

	tag, err := db.pool.Exec(ctx, query, userID, online)
	if err != nil {
		return fmt.Errorf("failed to set online flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Message Repository Implementation
func (db *PostgresDB) SetStatus(ctx context.Context, messageID string, status models.MessageStatus) (*models.Message, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid message status %q", status)
	}

	// Single statement: the update only matches rows still below the target
	// status, otherwise the current row is returned untouched.
	query := `
		WITH updated AS (
			UPDATE messages SET status = $2, updated_at = NOW()
			WHERE id = $1 AND status = ANY($3)
			RETURNING id, sender_id, receiver_id, content, type, file_url, status, created_at, updated_at
		)
		SELECT id, sender_id, receiver_id, content, type, COALESCE(file_url, ''), status, created_at, updated_at
		FROM updated
		UNION ALL
		SELECT id, sender_id, receiver_id, content, type, COALESCE(file_url, ''), status, created_at, updated_at
		FROM messages
		WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM updated)`

	below := lo.Map(status.Below(), func(s models.MessageStatus, _ int) string { return string(s) })

	msg := &models.Message{}
	var current string
	err := db.pool.QueryRow(ctx, query, messageID, string(status), below).Scan(
		&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.Type, &msg.FileURL,
		&current, &msg.CreatedAt, &msg.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set message status: %w", err)
	}

	msg.Status = models.MessageStatus(current)
	return msg, nil
}
