package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// JSONMap is a map[string]any stored as a JSON text column.
// It is the session's open-ended data bag: the state machine's working memory.
type JSONMap map[string]any

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan JSONMap: unsupported type %T", value)
	}
	if len(data) == 0 {
		*m = JSONMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// StringMap is a map[string]string stored as a JSON text column.
type StringMap map[string]string

// Value implements driver.Valuer.
func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (m *StringMap) Scan(value any) error {
	if value == nil {
		*m = StringMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan StringMap: unsupported type %T", value)
	}
	if len(data) == 0 {
		*m = StringMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// Session represents one user's journey session.
// State is always a member of the closed state set; UpdatedAt never decreases.
type Session struct {
	SessionID string  `json:"session_id"`
	State     State   `json:"state"`
	Data      JSONMap `json:"data"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// Character represents the player character, 1:1 with a session.
// CurrentChapter is the only field mutated after creation: incremented by
// exactly one per completed chapter cycle, capped at TotalChapters.
type Character struct {
	SessionID      string    `json:"session_id"`
	Name           string    `json:"name"`
	Order          Order     `json:"order"`
	Archetype      string    `json:"archetype"`
	Backstory      StringMap `json:"backstory"`
	CurrentChapter int       `json:"current_chapter"`
	CoherenceLevel float64   `json:"coherence_level"`
}

// TimelineEvent is one entry of the append-only journey log, one per
// completed chapter.
type TimelineEvent struct {
	SessionID      string `json:"session_id"`
	Chapter        int    `json:"chapter"`
	Narrative      string `json:"narrative"`
	Transformation string `json:"transformation,omitempty"`
	Timestamp      string `json:"timestamp"`
}

// Usage holds token counts reported by the generation backend.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// CostEntry is one immutable cost-ledger row, one per successful
// generation call.
type CostEntry struct {
	SessionID        string  `json:"session_id"`
	State            State   `json:"state"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	CostUSD          float64 `json:"cost_usd"`
	Model            string  `json:"model"`
	Timestamp        string  `json:"timestamp"`
}

// Now returns the current time formatted the way all timestamps are persisted.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
