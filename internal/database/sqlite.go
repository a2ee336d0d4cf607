package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dm-relay/internal/models"
	"dm-relay/pkg/logger"

	"github.com/samber/lo"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type userRow struct {
	ID       string `gorm:"primaryKey"`
	Online   bool   `gorm:"not null;default:false"`
	LastSeen *time.Time
}

func (userRow) TableName() string { return "users" }

type messageRow struct {
	ID         string `gorm:"primaryKey"`
	SenderID   string `gorm:"not null;index"`
	ReceiverID string `gorm:"not null;index"`
	Content    string `gorm:"not null;default:''"`
	Type       string `gorm:"not null;default:'text'"`
	FileURL    string
	Status     string `gorm:"not null;default:'sent'"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (messageRow) TableName() string { return "messages" }

func (r *messageRow) toModel() *models.Message {
	return &models.Message{
		ID:         r.ID,
		SenderID:   r.SenderID,
		ReceiverID: r.ReceiverID,
		Content:    r.Content,
		Type:       r.Type,
		FileURL:    r.FileURL,
		Status:     models.MessageStatus(r.Status),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// SQLiteDB is the embedded store used for local development and tests.
type SQLiteDB struct {
	db *gorm.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
	}
	// one connection keeps ":memory:" databases shared and serializes writers
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&userRow{}, &messageRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite database: %w", err)
	}

	logger.Info("Opened sqlite database %s", path)
	return &SQLiteDB{db: db}, nil
}

func (s *SQLiteDB) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLiteDB) SetOnline(ctx context.Context, userID string, online bool) error {
	result := s.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", userID).Updates(map[string]any{
		"online":    online,
		"last_seen": time.Now(),
	})
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to set online flag: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteDB) SetStatus(ctx context.Context, messageID string, status models.MessageStatus) (*models.Message, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid message status %q", status)
	}

	below := lo.Map(status.Below(), func(st models.MessageStatus, _ int) string { return string(st) })

	var row messageRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(below) > 0 {
			err := tx.Model(&messageRow{}).
				Where("id = ? AND status IN ?", messageID, below).
				Updates(map[string]any{"status": string(status), "updated_at": time.Now()}).Error
			if err != nil {
				return err
			}
		}
		return tx.First(&row, "id = ?", messageID).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set message status: %w", err)
	}
	return row.toModel(), nil
}
