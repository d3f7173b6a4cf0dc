package gorm

import (
	"database/sql"
	"time"

	"gorm.io/gorm"

	"github.com/leo-guinan/pathofgreatness/pkg/models"
)

// GORM models. JSON column types (JSONMap, StringMap) come from pkg/models
// and implement sql.Scanner and driver.Valuer.

// Session is the sessions table row.
type Session struct {
	SessionID      string         `gorm:"primaryKey"`
	State          string         `gorm:"not null;index"`
	Data           models.JSONMap `gorm:"type:text;not null"`
	CreatedAt      string         `gorm:"not null"`
	UpdatedAt      string         `gorm:"not null"`
	UpdatedAtEpoch int64          `gorm:"index:idx_sessions_updated,sort:desc;not null"`
}

func (Session) TableName() string { return "sessions" }

// BeforeCreate hook to ensure timestamps are set.
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if s.CreatedAt == "" {
		s.CreatedAt = now.UTC().Format(time.RFC3339)
	}
	if s.UpdatedAt == "" {
		s.UpdatedAt = s.CreatedAt
	}
	if s.UpdatedAtEpoch == 0 {
		s.UpdatedAtEpoch = now.UnixMilli()
	}
	return nil
}

// Character is the characters table row, 1:1 with a session.
type Character struct {
	SessionID      string           `gorm:"primaryKey"`
	Name           string           `gorm:"not null"`
	OrderType      string           `gorm:"column:order_type;not null"`
	Archetype      string           `gorm:"not null"`
	Backstory      models.StringMap `gorm:"type:text;not null"`
	CurrentChapter int              `gorm:"default:1;not null"`
	CoherenceLevel float64          `gorm:"type:real;default:1.0;not null"`
}

func (Character) TableName() string { return "characters" }

// TimelineEvent is the timeline_events table row.
type TimelineEvent struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	SessionID      string `gorm:"index;not null"`
	Chapter        int    `gorm:"not null"`
	Narrative      string `gorm:"type:text;not null"`
	Transformation sql.NullString
	CreatedAt      string `gorm:"not null"`
	CreatedAtEpoch int64  `gorm:"not null"`
}

func (TimelineEvent) TableName() string { return "timeline_events" }

// BeforeCreate hook to ensure timestamps are set.
func (e *TimelineEvent) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if e.CreatedAt == "" {
		e.CreatedAt = now.UTC().Format(time.RFC3339)
	}
	if e.CreatedAtEpoch == 0 {
		e.CreatedAtEpoch = now.UnixMilli()
	}
	return nil
}

// CostLog is the cost_log table row. Append-only.
type CostLog struct {
	ID               int64   `gorm:"primaryKey;autoIncrement"`
	SessionID        string  `gorm:"index;not null"`
	State            string  `gorm:"not null"`
	PromptTokens     int     `gorm:"not null"`
	CompletionTokens int     `gorm:"not null"`
	CostUSD          float64 `gorm:"column:cost_usd;type:real;not null"`
	Model            string  `gorm:"not null"`
	CreatedAt        string  `gorm:"not null"`
	CreatedAtEpoch   int64   `gorm:"index:idx_cost_log_created;not null"`
}

func (CostLog) TableName() string { return "cost_log" }

// BeforeCreate hook to ensure timestamps are set.
func (c *CostLog) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if c.CreatedAt == "" {
		c.CreatedAt = now.UTC().Format(time.RFC3339)
	}
	if c.CreatedAtEpoch == 0 {
		c.CreatedAtEpoch = now.UnixMilli()
	}
	return nil
}
