package costs

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/leo-guinan/pathofgreatness/pkg/models"
)

// Store is the durable backing for cost entries.
type Store interface {
	InsertCostEntry(ctx context.Context, entry *models.CostEntry) error
	TotalCost(ctx context.Context, sessionID string) (float64, error)
	CostByState(ctx context.Context, sessionID string) (map[models.State]float64, error)
	CostLog(ctx context.Context, sessionID string) ([]*models.CostEntry, error)
}

// Ledger appends immutable cost entries and aggregates them per session.
type Ledger struct {
	store Store
}

// NewLedger creates a ledger over the given store.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Record appends one cost entry for a successful generation call.
// Store failures propagate; entries are never written twice for one call.
func (l *Ledger) Record(ctx context.Context, sessionID string, state models.State, usage models.Usage, costUSD float64, model string) (*models.CostEntry, error) {
	entry := &models.CostEntry{
		SessionID:        sessionID,
		State:            state,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		CostUSD:          costUSD,
		Model:            model,
		Timestamp:        models.Now(),
	}

	if err := l.store.InsertCostEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("record cost entry: %w", err)
	}

	log.Debug().
		Str("sessionId", sessionID).
		Str("state", string(state)).
		Str("model", model).
		Float64("costUsd", costUSD).
		Int("promptTokens", usage.PromptTokens).
		Int("completionTokens", usage.CompletionTokens).
		Msg("Cost entry recorded")

	return entry, nil
}

// Total returns the session's total cost, 0.0 when no entries exist.
func (l *Ledger) Total(ctx context.Context, sessionID string) (float64, error) {
	return l.store.TotalCost(ctx, sessionID)
}

// ByState returns the session's cost broken down by state.
func (l *Ledger) ByState(ctx context.Context, sessionID string) (map[models.State]float64, error) {
	return l.store.CostByState(ctx, sessionID)
}

// ByModel returns the session's cost broken down by model.
func (l *Ledger) ByModel(ctx context.Context, sessionID string) (map[string]float64, error) {
	entries, err := l.store.CostLog(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	byModel := make(map[string]float64)
	for _, entry := range entries {
		byModel[entry.Model] += entry.CostUSD
	}
	return byModel, nil
}

// Log returns the session's full cost log ordered by timestamp.
func (l *Ledger) Log(ctx context.Context, sessionID string) ([]*models.CostEntry, error) {
	return l.store.CostLog(ctx, sessionID)
}

// Report is a full aggregation over a session's cost log.
type Report struct {
	SessionID        string                   `json:"session_id"`
	TotalCostUSD     float64                  `json:"total_cost_usd"`
	TotalTokens      int                      `json:"total_tokens"`
	PromptTokens     int                      `json:"prompt_tokens"`
	CompletionTokens int                      `json:"completion_tokens"`
	CostByState      map[models.State]float64 `json:"cost_by_state"`
	CostByModel      map[string]float64       `json:"cost_by_model"`
	CallCount        int                      `json:"num_api_calls"`
	AvgCostPerCall   float64                  `json:"average_cost_per_call"`
}

// BuildReport aggregates the session's entry log into a report.
// AvgCostPerCall is 0 when there are no calls.
func (l *Ledger) BuildReport(ctx context.Context, sessionID string) (*Report, error) {
	total, err := l.store.TotalCost(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	byState, err := l.store.CostByState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	entries, err := l.store.CostLog(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	report := &Report{
		SessionID:    sessionID,
		TotalCostUSD: total,
		CostByState:  byState,
		CostByModel:  make(map[string]float64),
		CallCount:    len(entries),
	}
	for _, entry := range entries {
		report.PromptTokens += entry.PromptTokens
		report.CompletionTokens += entry.CompletionTokens
		report.CostByModel[entry.Model] += entry.CostUSD
	}
	report.TotalTokens = report.PromptTokens + report.CompletionTokens
	if report.CallCount > 0 {
		report.AvgCostPerCall = total / float64(report.CallCount)
	}
	return report, nil
}

// FormatReport renders a report as a human-readable string.
func FormatReport(report *Report) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Cost Report for Session: %s\n", report.SessionID)
	sb.WriteString(strings.Repeat("=", 60) + "\n\n")
	fmt.Fprintf(&sb, "Total Cost: $%.4f\n", report.TotalCostUSD)
	fmt.Fprintf(&sb, "Total Tokens: %d\n", report.TotalTokens)
	fmt.Fprintf(&sb, "  - Prompt: %d\n", report.PromptTokens)
	fmt.Fprintf(&sb, "  - Completion: %d\n\n", report.CompletionTokens)
	fmt.Fprintf(&sb, "API Calls: %d\n", report.CallCount)
	fmt.Fprintf(&sb, "Average Cost per Call: $%.4f\n\n", report.AvgCostPerCall)

	sb.WriteString("Cost by State:\n")
	for _, state := range sortedStateKeys(report.CostByState) {
		fmt.Fprintf(&sb, "  %-20s: $%.4f\n", state, report.CostByState[state])
	}

	sb.WriteString("\nCost by Model:\n")
	for _, model := range sortedModelKeys(report.CostByModel) {
		fmt.Fprintf(&sb, "  %-40s: $%.4f\n", model, report.CostByModel[model])
	}

	return sb.String()
}

// sortedStateKeys returns state keys ordered by descending cost.
func sortedStateKeys(byState map[models.State]float64) []models.State {
	keys := make([]models.State, 0, len(byState))
	for state := range byState {
		keys = append(keys, state)
	}
	sort.Slice(keys, func(i, j int) bool {
		if byState[keys[i]] != byState[keys[j]] {
			return byState[keys[i]] > byState[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

// sortedModelKeys returns model keys ordered by descending cost.
func sortedModelKeys(byModel map[string]float64) []string {
	keys := make([]string, 0, len(byModel))
	for model := range byModel {
		keys = append(keys, model)
	}
	sort.Slice(keys, func(i, j int) bool {
		if byModel[keys[i]] != byModel[keys[j]] {
			return byModel[keys[i]] > byModel[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
