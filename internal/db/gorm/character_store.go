package gorm

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/leo-guinan/pathofgreatness/pkg/models"
)

// CharacterStore provides character persistence, 1:1 with sessions.
type CharacterStore struct {
	store *Store
}

// NewCharacterStore creates a new character store.
func NewCharacterStore(store *Store) *CharacterStore {
	return &CharacterStore{store: store}
}

// Save upserts the character for a session.
func (s *CharacterStore) Save(ctx context.Context, character *models.Character) error {
	row := Character{
		SessionID:      character.SessionID,
		Name:           character.Name,
		OrderType:      string(character.Order),
		Archetype:      character.Archetype,
		Backstory:      character.Backstory,
		CurrentChapter: character.CurrentChapter,
		CoherenceLevel: character.CoherenceLevel,
	}
	err := s.store.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save character: %w", err)
	}
	return nil
}

// Get returns the character for a session, or (nil, nil) when absent.
func (s *CharacterStore) Get(ctx context.Context, sessionID string) (*models.Character, error) {
	var row Character
	err := s.store.DB.WithContext(ctx).First(&row, "session_id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get character: %w", err)
	}
	return &models.Character{
		SessionID:      row.SessionID,
		Name:           row.Name,
		Order:          models.Order(row.OrderType),
		Archetype:      row.Archetype,
		Backstory:      row.Backstory,
		CurrentChapter: row.CurrentChapter,
		CoherenceLevel: row.CoherenceLevel,
	}, nil
}
