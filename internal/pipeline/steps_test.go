package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leo-guinan/pathofgreatness/internal/costs"
	"github.com/leo-guinan/pathofgreatness/internal/fault"
	"github.com/leo-guinan/pathofgreatness/internal/gateway"
	"github.com/leo-guinan/pathofgreatness/pkg/models"
)

// stubGen returns queued responses without touching the network.
type stubGen struct {
	responses []string
	calls     int
	err       error
}

func (s *stubGen) Generate(_ context.Context, _ gateway.Prompt, _ int) (*gateway.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	text := "generated text"
	if s.calls < len(s.responses) {
		text = s.responses[s.calls]
	}
	s.calls++
	return &gateway.Result{
		Text:    text,
		Usage:   models.Usage{PromptTokens: 100, CompletionTokens: 50},
		CostUSD: 0.001,
		Model:   "anthropic/claude-3-haiku",
	}, nil
}

// memCostStore collects ledger entries in memory.
type memCostStore struct {
	entries []*models.CostEntry
}

func (m *memCostStore) InsertCostEntry(_ context.Context, entry *models.CostEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memCostStore) TotalCost(_ context.Context, _ string) (float64, error) {
	total := 0.0
	for _, e := range m.entries {
		total += e.CostUSD
	}
	return total, nil
}

func (m *memCostStore) CostByState(_ context.Context, _ string) (map[models.State]float64, error) {
	return nil, nil
}

func (m *memCostStore) CostLog(_ context.Context, _ string) ([]*models.CostEntry, error) {
	return m.entries, nil
}

func testCharacter() *models.Character {
	return &models.Character{
		SessionID:      "sess-1",
		Name:           "Ada",
		Order:          models.OrderFuturist,
		Archetype:      "Navigator",
		Backstory:      models.StringMap{"situation": "stuck", "struggle": "doubt", "greatness": "impact"},
		CurrentChapter: 1,
		CoherenceLevel: 1.0,
	}
}

func TestAnalyzeAdmiredPersonRecordsOneCost(t *testing.T) {
	store := &memCostStore{}
	gen := &stubGen{responses: []string{
		"```json\n{\"order\":\"zen\",\"archetypes\":[\"Sage\"],\"explanation\":\"e\",\"admired_person_traits\":[\"calm\"]}\n```",
	}}
	p := New(gen, costs.NewLedger(store))

	analysis, err := p.AnalyzeAdmiredPerson(context.Background(), "sess-1", "Marcus Aurelius")
	require.NoError(t, err)

	assert.Equal(t, models.OrderZen, analysis.Order)
	require.Len(t, store.entries, 1)
	assert.Equal(t, models.StateGreatnessMirror, store.entries[0].State)
	assert.Equal(t, 100, store.entries[0].PromptTokens)
}

func TestAnalyzeAdmiredPersonDecodeFailureStillBills(t *testing.T) {
	store := &memCostStore{}
	gen := &stubGen{responses: []string{"rambling non-json"}}
	p := New(gen, costs.NewLedger(store))

	_, err := p.AnalyzeAdmiredPerson(context.Background(), "sess-1", "Marcus Aurelius")
	require.Error(t, err)
	assert.Equal(t, fault.KindDecode, fault.KindOf(err))

	// The call succeeded and must stay billed even though decoding failed.
	assert.Len(t, store.entries, 1)
}

func TestBeforeNarrativeTrims(t *testing.T) {
	store := &memCostStore{}
	gen := &stubGen{responses: []string{"  \nYou stand below the first rung.\n  "}}
	p := New(gen, costs.NewLedger(store))

	narrative, err := p.BeforeNarrative(context.Background(), "sess-1", testCharacter())
	require.NoError(t, err)

	assert.Equal(t, "You stand below the first rung.", narrative)
	require.Len(t, store.entries, 1)
	assert.Equal(t, models.StateChapterBefore, store.entries[0].State)
}

func TestAfterAndInsightTagChapterAfter(t *testing.T) {
	store := &memCostStore{}
	gen := &stubGen{}
	p := New(gen, costs.NewLedger(store))
	character := testCharacter()
	ctx := context.Background()

	_, err := p.AfterNarrative(ctx, "sess-1", character, "before text")
	require.NoError(t, err)
	_, err = p.TransformationInsight(ctx, "sess-1", character)
	require.NoError(t, err)

	require.Len(t, store.entries, 2)
	assert.Equal(t, models.StateChapterAfter, store.entries[0].State)
	assert.Equal(t, models.StateChapterAfter, store.entries[1].State)
}

func TestGatewayFailureRecordsNoCost(t *testing.T) {
	store := &memCostStore{}
	gen := &stubGen{err: fault.New(fault.KindGatewayExhausted, "3 attempts failed")}
	p := New(gen, costs.NewLedger(store))

	_, err := p.BeforeNarrative(context.Background(), "sess-1", testCharacter())
	require.Error(t, err)
	assert.Equal(t, fault.KindGatewayExhausted, fault.KindOf(err))
	assert.Empty(t, store.entries)
}

func TestSalesPageFallsBackAndBills(t *testing.T) {
	store := &memCostStore{}
	gen := &stubGen{responses: []string{"not a json payload"}}
	p := New(gen, costs.NewLedger(store))

	content, err := p.SalesPage(context.Background(), "sess-1", testCharacter(), nil, 0.02)
	require.NoError(t, err)

	assert.Equal(t, "THE PATH OF GREATNESS", content.Headline)
	require.Len(t, store.entries, 1)
	assert.Equal(t, models.StateSalesPage, store.entries[0].State)
}

func TestSalesPromptIncludesTransformations(t *testing.T) {
	timeline := []*models.TimelineEvent{
		{Chapter: 1, Narrative: "n1", Transformation: "You realize coherence is a choice."},
		{Chapter: 2, Narrative: "n2", Transformation: "You see the future clearly."},
	}

	prompt := SalesPrompt(testCharacter(), timeline, 0.0456)
	assert.Contains(t, prompt.User, "You realize coherence is a choice.")
	assert.Contains(t, prompt.User, "$0.0456")
	assert.Contains(t, prompt.User, "Ada")
}
