package pipeline

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/leo-guinan/pathofgreatness/internal/fault"
	"github.com/leo-guinan/pathofgreatness/pkg/models"
)

// StripCodeFence removes a markdown code fence the backend sometimes wraps
// JSON payloads in: a leading ```json or ``` and a trailing ```.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-len("```")]
	}
	return strings.TrimSpace(s)
}

// decodeStrict parses a possibly-fenced JSON payload into v, classifying
// failures as decode errors. Used by the journey-gating structured steps,
// which have no safe default to fall back to.
func decodeStrict(raw string, v any) error {
	content := StripCodeFence(raw)
	if err := json.Unmarshal([]byte(content), v); err != nil {
		return fault.Wrap(fault.KindDecode, err, "parse structured response")
	}
	return nil
}

// OrderAnalysis is the decoded result of the greatness-mirror step.
type OrderAnalysis struct {
	Order        models.Order `json:"order"`
	Archetypes   []string     `json:"archetypes"`
	Explanation  string       `json:"explanation"`
	Traits       []string     `json:"admired_person_traits"`
}

// DecodeOrderAnalysis parses the mirror step's structured response.
// Parse failure or an order outside the seven is a decode error: the
// transition must fail rather than guess an order.
func DecodeOrderAnalysis(raw string) (*OrderAnalysis, error) {
	var analysis OrderAnalysis
	if err := decodeStrict(raw, &analysis); err != nil {
		return nil, err
	}
	if !analysis.Order.Valid() {
		return nil, fault.New(fault.KindDecode, "unknown order %q in mirror analysis", analysis.Order)
	}
	return &analysis, nil
}

// SalesContent is the decoded sales-page payload.
type SalesContent struct {
	Headline            string `json:"headline"`
	Hook                string `json:"hook"`
	TransformationProof string `json:"transformation_proof"`
	OfferDescription    string `json:"offer_description"`
	Guarantee           string `json:"guarantee"`
	CTA                 string `json:"cta"`
	Urgency             string `json:"urgency"`
}

// DefaultSalesPage is the fixed fallback used when the sales-page response
// fails to parse. Sales copy is supplementary, not journey-gating, so a
// malformed response degrades to the template instead of failing the
// transition.
func DefaultSalesPage(totalCost float64) *SalesContent {
	return &SalesContent{
		Headline:            "THE PATH OF GREATNESS",
		Hook:                fmt.Sprintf("For $%.4f, you just experienced 8 transformations. Now imagine what $50 can do.", totalCost),
		TransformationProof: "You climbed the ladder. You felt the shifts. You know this works.",
		OfferDescription:    "Chapter 1: The $50 Coherence Breakthrough - The foundation that makes everything else possible.",
		Guarantee:           "If you do Chapter 1 properly, you cannot stay the same person.",
		CTA:                 "Start Chapter 1 Now",
		Urgency:             "This is the only time greatness costs $50. Everything after gets more expensive.",
	}
}

// DecodeSalesPage parses the sales-page response, substituting the default
// payload on parse failure.
func DecodeSalesPage(raw string, totalCost float64) *SalesContent {
	var content SalesContent
	if err := decodeStrict(raw, &content); err != nil {
		log.Warn().Err(err).Msg("Sales page response failed to parse, using fallback template")
		return DefaultSalesPage(totalCost)
	}
	return &content
}
