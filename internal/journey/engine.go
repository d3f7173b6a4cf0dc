// Package journey implements the state machine driving a user's journey from
// welcome to the terminal sales page.
package journey

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/leo-guinan/pathofgreatness/internal/costs"
	dbgorm "github.com/leo-guinan/pathofgreatness/internal/db/gorm"
	"github.com/leo-guinan/pathofgreatness/internal/fault"
	"github.com/leo-guinan/pathofgreatness/internal/pipeline"
	"github.com/leo-guinan/pathofgreatness/pkg/models"
)

// Engine sequences generation steps per the journey state machine, merges
// step results into the session data bag, and persists the new state.
type Engine struct {
	sessions   *dbgorm.SessionStore
	characters *dbgorm.CharacterStore
	timeline   *dbgorm.TimelineStore
	ledger     *costs.Ledger
	pipeline   *pipeline.Pipeline
	locks      *sessionLocks
}

// NewEngine creates a journey engine.
func NewEngine(sessions *dbgorm.SessionStore, characters *dbgorm.CharacterStore, timeline *dbgorm.TimelineStore, ledger *costs.Ledger, p *pipeline.Pipeline) *Engine {
	return &Engine{
		sessions:   sessions,
		characters: characters,
		timeline:   timeline,
		ledger:     ledger,
		pipeline:   p,
		locks:      newSessionLocks(),
	}
}

// CreateSession creates a new journey session in the welcome state.
func (e *Engine) CreateSession(ctx context.Context) (string, error) {
	sessionID := uuid.NewString()
	_, err := e.sessions.Create(ctx, sessionID, models.StateWelcome, models.JSONMap{"current_chapter": 1})
	if err != nil {
		return "", err
	}

	log.Info().Str("sessionId", sessionID).Msg("Session created")
	return sessionID, nil
}

// DeleteSession removes a session and everything it owns.
func (e *Engine) DeleteSession(ctx context.Context, sessionID string) error {
	lock := e.locks.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	return e.sessions.Delete(ctx, sessionID)
}

// Snapshot is the full view of a session for the presentation layer.
type Snapshot struct {
	SessionID string            `json:"session_id"`
	State     models.State      `json:"state"`
	Data      models.JSONMap    `json:"data"`
	Character *models.Character `json:"character,omitempty"`
	TotalCost float64           `json:"total_cost"`
	UIHints   models.JSONMap    `json:"ui_data"`
}

// GetSnapshot returns the session's current state with character, total cost
// and per-state UI hints attached.
func (e *Engine) GetSnapshot(ctx context.Context, sessionID string) (*Snapshot, error) {
	session, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fault.NotFound("session %s not found", sessionID)
	}

	character, err := e.characters.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	totalCost, err := e.ledger.Total(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	timeline, err := e.timeline.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		SessionID: sessionID,
		State:     session.State,
		Data:      session.Data,
		Character: character,
		TotalCost: totalCost,
		UIHints:   UIHints(session.State, session.Data, character, timeline, totalCost),
	}, nil
}

// Timeline returns the session's journey log ordered by chapter.
func (e *Engine) Timeline(ctx context.Context, sessionID string) ([]*models.TimelineEvent, error) {
	return e.timeline.List(ctx, sessionID)
}

// CostReport returns the session's aggregated cost report.
func (e *Engine) CostReport(ctx context.Context, sessionID string) (*costs.Report, error) {
	return e.ledger.BuildReport(ctx, sessionID)
}

// TransitionResult is the outcome of one transition.
type TransitionResult struct {
	Success   bool           `json:"success"`
	FromState models.State   `json:"from_state"`
	NextState models.State   `json:"next_state"`
	Data      models.JSONMap `json:"data"`
}

// Transition executes one state transition for a session. Transitions on the
// same session are serialized; the session is persisted only after every
// pipeline step of the handler has succeeded. Cost entries are exempt from
// the abort: spend from calls that succeeded stays recorded even when the
// transition later fails.
func (e *Engine) Transition(ctx context.Context, sessionID, action string, input models.JSONMap) (*TransitionResult, error) {
	lock := e.locks.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fault.NotFound("session %s not found", sessionID)
	}
	if input == nil {
		input = models.JSONMap{}
	}

	var (
		result    models.JSONMap
		nextState models.State
	)

	switch session.State {
	case models.StateWelcome:
		result = models.JSONMap{"ready": true}
		nextState = models.StateGreatnessMirror

	case models.StateGreatnessMirror:
		result, err = e.handleGreatnessMirror(ctx, sessionID, input)
		nextState = models.StateOrderReveal

	case models.StateOrderReveal:
		result = models.JSONMap{"selected_archetype": stringField(input, "archetype", "")}
		nextState = models.StateCharacterCreation

	case models.StateCharacterCreation:
		result, err = e.handleCharacterCreation(ctx, session, input)
		nextState = models.StateChapterBefore

	case models.StateChapterBefore:
		result, err = e.handleChapterAfter(ctx, session)
		nextState = models.StateChapterAfter

	case models.StateChapterAfter:
		result, nextState, err = e.handleChapterAdvance(ctx, sessionID)

	case models.StateCompletion:
		result, err = e.handleSalesPage(ctx, sessionID)
		nextState = models.StateSalesPage

	case models.StateSalesPage:
		// Terminal: accepted as a no-op, mutates nothing.
		result = models.JSONMap{"viewed": true}
		nextState = models.StateSalesPage

	default:
		return nil, fault.New(fault.KindInvalidState, "no handler for state %q", session.State)
	}

	if err != nil {
		log.Warn().
			Err(err).
			Str("sessionId", sessionID).
			Str("state", string(session.State)).
			Msg("Transition failed")
		return nil, err
	}

	// Shallow merge by key; new keys win over old on collision.
	merged := make(models.JSONMap, len(session.Data)+len(result))
	for key, value := range session.Data {
		merged[key] = value
	}
	for key, value := range result {
		merged[key] = value
	}

	if err := e.sessions.Update(ctx, sessionID, nextState, merged); err != nil {
		return nil, err
	}

	log.Info().
		Str("sessionId", sessionID).
		Str("from", string(session.State)).
		Str("to", string(nextState)).
		Str("action", action).
		Msg("Transition committed")

	return &TransitionResult{Success: true, FromState: session.State, NextState: nextState, Data: result}, nil
}

// handleGreatnessMirror analyzes the admired person to determine the order.
func (e *Engine) handleGreatnessMirror(ctx context.Context, sessionID string, input models.JSONMap) (models.JSONMap, error) {
	admiredPerson := stringField(input, "admired_person", "")
	if admiredPerson == "" {
		return nil, fault.InvalidInput("admired_person")
	}

	analysis, err := e.pipeline.AnalyzeAdmiredPerson(ctx, sessionID, admiredPerson)
	if err != nil {
		return nil, err
	}

	return models.JSONMap{
		"admired_person": admiredPerson,
		"order":          string(analysis.Order),
		"archetypes":     analysis.Archetypes,
		"explanation":    analysis.Explanation,
		"traits":         analysis.Traits,
	}, nil
}

// handleCharacterCreation creates the character and eagerly runs chapter 1's
// before step so the client never lands on chapter_before without a
// narrative.
func (e *Engine) handleCharacterCreation(ctx context.Context, session *models.Session, input models.JSONMap) (models.JSONMap, error) {
	order := models.Order(stringField(session.Data, "order", string(models.OrderMythic)))

	character := &models.Character{
		SessionID: session.SessionID,
		Name:      stringField(input, "name", "Seeker"),
		Order:     order,
		Archetype: stringField(session.Data, "selected_archetype", "Seeker"),
		Backstory: models.StringMap{
			"age":            backstoryValue(input, "age", "30"),
			"situation":      stringField(input, "situation", ""),
			"struggle":       stringField(input, "struggle", ""),
			"greatness":      stringField(input, "greatness", ""),
			"admired_person": stringField(session.Data, "admired_person", ""),
		},
		CurrentChapter: 1,
		CoherenceLevel: 1.0,
	}

	if err := e.characters.Save(ctx, character); err != nil {
		return nil, err
	}

	narrative, err := e.pipeline.BeforeNarrative(ctx, session.SessionID, character)
	if err != nil {
		return nil, err
	}

	return models.JSONMap{
		"character_created": true,
		"current_chapter":   1,
		"before_narrative":  narrative,
	}, nil
}

// handleChapterAfter runs the after-narrative and transformation-insight
// steps for the current chapter and appends one timeline event. Two
// generation calls, two cost entries, one event.
func (e *Engine) handleChapterAfter(ctx context.Context, session *models.Session) (models.JSONMap, error) {
	character, err := e.characters.Get(ctx, session.SessionID)
	if err != nil {
		return nil, err
	}
	if character == nil {
		return nil, fault.NotFound("character for session %s not found", session.SessionID)
	}

	beforeNarrative := stringField(session.Data, "before_narrative", "")

	afterNarrative, err := e.pipeline.AfterNarrative(ctx, session.SessionID, character, beforeNarrative)
	if err != nil {
		return nil, err
	}
	insight, err := e.pipeline.TransformationInsight(ctx, session.SessionID, character)
	if err != nil {
		return nil, err
	}

	event := &models.TimelineEvent{
		SessionID:      session.SessionID,
		Chapter:        character.CurrentChapter,
		Narrative:      afterNarrative,
		Transformation: insight,
	}
	if err := e.timeline.Add(ctx, event); err != nil {
		return nil, err
	}

	return models.JSONMap{
		"after_narrative":        afterNarrative,
		"transformation_insight": insight,
		"current_chapter":        character.CurrentChapter,
	}, nil
}

// handleChapterAdvance either moves to the next chapter (eagerly generating
// its before narrative) or, after chapter 8, completes the journey with no
// further generation call.
func (e *Engine) handleChapterAdvance(ctx context.Context, sessionID string) (models.JSONMap, models.State, error) {
	character, err := e.characters.Get(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}
	if character == nil {
		return nil, "", fault.NotFound("character for session %s not found", sessionID)
	}

	if character.CurrentChapter >= models.TotalChapters {
		return models.JSONMap{"completed": true}, models.StateCompletion, nil
	}

	character.CurrentChapter++
	if err := e.characters.Save(ctx, character); err != nil {
		return nil, "", err
	}

	narrative, err := e.pipeline.BeforeNarrative(ctx, sessionID, character)
	if err != nil {
		return nil, "", err
	}

	return models.JSONMap{
		"current_chapter":  character.CurrentChapter,
		"before_narrative": narrative,
	}, models.StateChapterBefore, nil
}

// handleSalesPage generates the personalized sales page from the completed
// journey.
func (e *Engine) handleSalesPage(ctx context.Context, sessionID string) (models.JSONMap, error) {
	character, err := e.characters.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if character == nil {
		return nil, fault.NotFound("character for session %s not found", sessionID)
	}

	timeline, err := e.timeline.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	totalCost, err := e.ledger.Total(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sales, err := e.pipeline.SalesPage(ctx, sessionID, character, timeline, totalCost)
	if err != nil {
		return nil, err
	}

	return models.JSONMap{
		"sales_page": models.JSONMap{
			"headline":             sales.Headline,
			"hook":                 sales.Hook,
			"transformation_proof": sales.TransformationProof,
			"offer_description":    sales.OfferDescription,
			"guarantee":            sales.Guarantee,
			"cta":                  sales.CTA,
			"urgency":              sales.Urgency,
		},
		"total_cost": totalCost,
	}, nil
}

// stringField reads a string value from a data bag with a default.
func stringField(data models.JSONMap, key, fallback string) string {
	if value, ok := data[key].(string); ok && value != "" {
		return value
	}
	return fallback
}

// backstoryValue renders any input value as a backstory string.
func backstoryValue(data models.JSONMap, key, fallback string) string {
	value, ok := data[key]
	if !ok || value == nil {
		return fallback
	}
	return fmt.Sprintf("%v", value)
}
