package gorm

import (
	"context"
	"fmt"

	"github.com/leo-guinan/pathofgreatness/pkg/models"
)

// CostStore provides the append-only cost log. It satisfies costs.Store.
type CostStore struct {
	store *Store
}

// NewCostStore creates a new cost store.
func NewCostStore(store *Store) *CostStore {
	return &CostStore{store: store}
}

// InsertCostEntry appends one cost entry.
func (s *CostStore) InsertCostEntry(ctx context.Context, entry *models.CostEntry) error {
	row := CostLog{
		SessionID:        entry.SessionID,
		State:            string(entry.State),
		PromptTokens:     entry.PromptTokens,
		CompletionTokens: entry.CompletionTokens,
		CostUSD:          entry.CostUSD,
		Model:            entry.Model,
		CreatedAt:        entry.Timestamp,
	}
	if err := s.store.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert cost entry: %w", err)
	}
	return nil
}

// TotalCost returns the session's total cost, 0.0 when no entries exist.
func (s *CostStore) TotalCost(ctx context.Context, sessionID string) (float64, error) {
	var total float64
	err := s.store.DB.WithContext(ctx).Model(&CostLog{}).
		Where("session_id = ?", sessionID).
		Select("COALESCE(SUM(cost_usd), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("total cost: %w", err)
	}
	return total, nil
}

// CostByState returns the session's cost grouped by state.
func (s *CostStore) CostByState(ctx context.Context, sessionID string) (map[models.State]float64, error) {
	var rows []struct {
		State string
		Total float64
	}
	err := s.store.DB.WithContext(ctx).Model(&CostLog{}).
		Select("state, SUM(cost_usd) AS total").
		Where("session_id = ?", sessionID).
		Group("state").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("cost by state: %w", err)
	}

	byState := make(map[models.State]float64, len(rows))
	for _, row := range rows {
		byState[models.State(row.State)] = row.Total
	}
	return byState, nil
}

// CostLog returns the session's full cost log ordered by timestamp.
func (s *CostStore) CostLog(ctx context.Context, sessionID string) ([]*models.CostEntry, error) {
	var rows []CostLog
	err := s.store.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at_epoch ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("cost log: %w", err)
	}

	entries := make([]*models.CostEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, &models.CostEntry{
			SessionID:        row.SessionID,
			State:            models.State(row.State),
			PromptTokens:     row.PromptTokens,
			CompletionTokens: row.CompletionTokens,
			CostUSD:          row.CostUSD,
			Model:            row.Model,
			Timestamp:        row.CreatedAt,
		})
	}
	return entries, nil
}
