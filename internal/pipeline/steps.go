package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/leo-guinan/pathofgreatness/internal/costs"
	"github.com/leo-guinan/pathofgreatness/internal/gateway"
	"github.com/leo-guinan/pathofgreatness/pkg/models"
)

// Generator is the generation backend boundary the pipeline calls through.
// *gateway.Client implements it; tests substitute a stub.
type Generator interface {
	Generate(ctx context.Context, prompt gateway.Prompt, maxTokens int) (*gateway.Result, error)
}

// Pipeline runs the named generation steps. Every successful gateway call
// records exactly one cost-ledger entry tagged with the step's logical state.
// Entries are written as calls succeed, so spend stays recorded even when a
// later step of the same transition fails.
type Pipeline struct {
	gen    Generator
	ledger *costs.Ledger
}

// New creates a pipeline.
func New(gen Generator, ledger *costs.Ledger) *Pipeline {
	return &Pipeline{gen: gen, ledger: ledger}
}

// generate invokes the backend and records the cost entry for the call.
func (p *Pipeline) generate(ctx context.Context, sessionID string, state models.State, prompt gateway.Prompt, maxTokens int) (*gateway.Result, error) {
	result, err := p.gen.Generate(ctx, prompt, maxTokens)
	if err != nil {
		return nil, err
	}
	if _, err := p.ledger.Record(ctx, sessionID, state, result.Usage, result.CostUSD, result.Model); err != nil {
		return nil, err
	}
	return result, nil
}

// AnalyzeAdmiredPerson runs the greatness-mirror step: determine the user's
// order from who they admire. The structured response is journey-gating, so
// decode failures propagate.
func (p *Pipeline) AnalyzeAdmiredPerson(ctx context.Context, sessionID, admiredPerson string) (*OrderAnalysis, error) {
	result, err := p.generate(ctx, sessionID, models.StateGreatnessMirror, MirrorPrompt(admiredPerson), maxTokensMirror)
	if err != nil {
		return nil, fmt.Errorf("greatness mirror: %w", err)
	}
	return DecodeOrderAnalysis(result.Text)
}

// BeforeNarrative generates the "before" narrative for the character's
// current chapter.
func (p *Pipeline) BeforeNarrative(ctx context.Context, sessionID string, character *models.Character) (string, error) {
	theme := models.ChapterThemes[character.CurrentChapter]
	prompt := BeforePrompt(character, character.CurrentChapter, theme)

	result, err := p.generate(ctx, sessionID, models.StateChapterBefore, prompt, maxTokensNarrative)
	if err != nil {
		return "", fmt.Errorf("before narrative: %w", err)
	}
	return strings.TrimSpace(result.Text), nil
}

// AfterNarrative generates the "after" narrative contrasting with the
// before state.
func (p *Pipeline) AfterNarrative(ctx context.Context, sessionID string, character *models.Character, beforeNarrative string) (string, error) {
	theme := models.ChapterThemes[character.CurrentChapter]
	prompt := AfterPrompt(character, character.CurrentChapter, theme, beforeNarrative)

	result, err := p.generate(ctx, sessionID, models.StateChapterAfter, prompt, maxTokensNarrative)
	if err != nil {
		return "", fmt.Errorf("after narrative: %w", err)
	}
	return strings.TrimSpace(result.Text), nil
}

// TransformationInsight generates the chapter's key realization.
func (p *Pipeline) TransformationInsight(ctx context.Context, sessionID string, character *models.Character) (string, error) {
	theme := models.ChapterThemes[character.CurrentChapter]
	prompt := InsightPrompt(character, character.CurrentChapter, theme)

	result, err := p.generate(ctx, sessionID, models.StateChapterAfter, prompt, maxTokensInsight)
	if err != nil {
		return "", fmt.Errorf("transformation insight: %w", err)
	}
	return strings.TrimSpace(result.Text), nil
}

// SalesPage generates the personalized sales page. Malformed responses fall
// back to the default payload instead of failing the transition.
func (p *Pipeline) SalesPage(ctx context.Context, sessionID string, character *models.Character, timeline []*models.TimelineEvent, totalCost float64) (*SalesContent, error) {
	prompt := SalesPrompt(character, timeline, totalCost)

	result, err := p.generate(ctx, sessionID, models.StateSalesPage, prompt, maxTokensSalesPage)
	if err != nil {
		return nil, fmt.Errorf("sales page: %w", err)
	}
	return DecodeSalesPage(result.Text, totalCost), nil
}
