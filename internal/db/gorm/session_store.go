package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/leo-guinan/pathofgreatness/pkg/models"
)

// SessionStore provides session persistence.
type SessionStore struct {
	store *Store
}

// NewSessionStore creates a new session store.
func NewSessionStore(store *Store) *SessionStore {
	return &SessionStore{store: store}
}

// Create inserts a new session.
func (s *SessionStore) Create(ctx context.Context, sessionID string, state models.State, data models.JSONMap) (*models.Session, error) {
	if data == nil {
		data = models.JSONMap{}
	}
	row := Session{
		SessionID: sessionID,
		State:     string(state),
		Data:      data,
	}
	if err := s.store.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sessionFromRow(&row), nil
}

// Get returns a session by id, or (nil, nil) when absent.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	var row Session
	err := s.store.DB.WithContext(ctx).First(&row, "session_id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sessionFromRow(&row), nil
}

// Update replaces the session's state and full data blob in one statement.
// The caller has already merged; updated_at only moves forward.
func (s *SessionStore) Update(ctx context.Context, sessionID string, state models.State, data models.JSONMap) error {
	now := time.Now()
	result := s.store.DB.WithContext(ctx).Model(&Session{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]any{
			"state":            string(state),
			"data":             data,
			"updated_at":       now.UTC().Format(time.RFC3339),
			"updated_at_epoch": now.UnixMilli(),
		})
	if result.Error != nil {
		return fmt.Errorf("update session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update session: %s does not exist", sessionID)
	}
	return nil
}

// Delete removes the session and all owned rows in a single transaction.
// Either all four tables are cleared or none are.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.store.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&TimelineEvent{}, "session_id = ?", sessionID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&Character{}, "session_id = ?", sessionID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&CostLog{}, "session_id = ?", sessionID).Error; err != nil {
			return err
		}
		return tx.Delete(&Session{}, "session_id = ?", sessionID).Error
	})
}

func sessionFromRow(row *Session) *models.Session {
	return &models.Session{
		SessionID: row.SessionID,
		State:     models.State(row.State),
		Data:      row.Data,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
