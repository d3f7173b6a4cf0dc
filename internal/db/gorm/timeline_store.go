package gorm

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/leo-guinan/pathofgreatness/pkg/models"
)

// TimelineStore provides the append-only journey log.
type TimelineStore struct {
	store *Store
}

// NewTimelineStore creates a new timeline store.
func NewTimelineStore(store *Store) *TimelineStore {
	return &TimelineStore{store: store}
}

// Add appends one timeline event.
func (s *TimelineStore) Add(ctx context.Context, event *models.TimelineEvent) error {
	row := TimelineEvent{
		SessionID: event.SessionID,
		Chapter:   event.Chapter,
		Narrative: event.Narrative,
		Transformation: sql.NullString{
			String: event.Transformation,
			Valid:  event.Transformation != "",
		},
	}
	if err := s.store.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("add timeline event: %w", err)
	}
	return nil
}

// List returns all of a session's timeline events ordered by chapter.
func (s *TimelineStore) List(ctx context.Context, sessionID string) ([]*models.TimelineEvent, error) {
	var rows []TimelineEvent
	err := s.store.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("chapter ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list timeline: %w", err)
	}

	events := make([]*models.TimelineEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, &models.TimelineEvent{
			SessionID:      row.SessionID,
			Chapter:        row.Chapter,
			Narrative:      row.Narrative,
			Transformation: row.Transformation.String,
			Timestamp:      row.CreatedAt,
		})
	}
	return events, nil
}
