package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gotd/td/session"
	"gorm.io/gorm"
)

// sessionRow is the single-row table holding the serialized MTProto session.
// Keyed by phone so several accounts can share one database file.
type sessionRow struct {
	Phone     string `gorm:"primaryKey"`
	Data      []byte
	UpdatedAt time.Time
}

func (sessionRow) TableName() string { return "sessions" }

// SessionStorage persists the gotd session in a local sqlite database,
// surviving restarts without re-authentication.
type SessionStorage struct {
	db    *gorm.DB
	phone string
}

var _ session.Storage = (*SessionStorage)(nil)

// NewSessionStorage opens (and migrates) the session database at path.
func NewSessionStorage(path, phone string) (*SessionStorage, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	if err := db.AutoMigrate(&sessionRow{}); err != nil {
		return nil, fmt.Errorf("migrate session db: %w", err)
	}
	return &SessionStorage{db: db, phone: phone}, nil
}

// LoadSession returns the stored session or session.ErrNotFound.
func (s *SessionStorage) LoadSession(ctx context.Context) ([]byte, error) {
	var row sessionRow
	err := s.db.WithContext(ctx).First(&row, "phone = ?", s.phone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if len(row.Data) == 0 {
		return nil, session.ErrNotFound
	}
	return row.Data, nil
}

// StoreSession upserts the serialized session.
func (s *SessionStorage) StoreSession(ctx context.Context, data []byte) error {
	row := sessionRow{Phone: s.phone, Data: data, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Save(&row).Error
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}
