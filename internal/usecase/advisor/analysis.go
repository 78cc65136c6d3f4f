package advisor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnrecognisedClassification is returned when the model answers with an action
// or confidence outside the known set
var ErrUnrecognisedClassification = errors.New("unrecognised classification")

// Action is the model's recommendation for a holding
type Action string

const (
	ActionHold   Action = "hold"
	ActionAdd    Action = "add"
	ActionReduce Action = "reduce"
	ActionSell   Action = "sell"
)

// ParseAction accepts hold, add, reduce or sell in any case
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionHold, ActionAdd, ActionReduce, ActionSell:
		return a, nil
	default:
		return "", fmt.Errorf("%w: action %q", ErrUnrecognisedClassification, s)
	}
}

// Confidence is how sure the model claims to be
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ParseConfidence accepts high, medium or low in any case
func ParseConfidence(s string) (Confidence, error) {
	switch c := Confidence(strings.ToLower(strings.TrimSpace(s))); c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return c, nil
	default:
		return "", fmt.Errorf("%w: confidence %q", ErrUnrecognisedClassification, s)
	}
}

// Analysis is the model's assessment of one holding
type Analysis struct {
	Symbol           string
	StatusAssessment string
	Action           Action
	KeyConcerns      []string
	NextCatalyst     string
	Confidence       Confidence
	Model            string
	AnalyzedAt       time.Time
}

// analysisFormat is appended to the system prompt of every holding analysis
const analysisFormat = `Reply with strict JSON only, without any other text:
{
  "status_assessment": "whether the original buy thesis still holds",
  "recommended_action": "one of hold/add/reduce/sell",
  "key_concerns": ["concern 1", "concern 2"],
  "next_catalyst": "the next event that could move the price",
  "confidence": "one of high/medium/low"
}`

type analysisPayload struct {
	StatusAssessment  string   `json:"status_assessment"`
	RecommendedAction string   `json:"recommended_action"`
	KeyConcerns       []string `json:"key_concerns"`
	NextCatalyst      string   `json:"next_catalyst"`
	Confidence        string   `json:"confidence"`
}

// stripCodeFences removes a surrounding ``` or ```json fence
func stripCodeFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return ""
	}
	lines = lines[1:]
	if last := strings.TrimSpace(lines[len(lines)-1]); strings.HasPrefix(last, "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// parseAnalysis decodes the model's JSON answer
func parseAnalysis(raw, symbol, model string, now time.Time) (*Analysis, error) {
	var p analysisPayload
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &p); err != nil {
		return nil, fmt.Errorf("failed to parse model response as JSON: %w", err)
	}

	action, err := ParseAction(p.RecommendedAction)
	if err != nil {
		return nil, err
	}
	confidence, err := ParseConfidence(p.Confidence)
	if err != nil {
		return nil, err
	}

	concerns := p.KeyConcerns
	if concerns == nil {
		concerns = []string{}
	}

	return &Analysis{
		Symbol:           symbol,
		StatusAssessment: p.StatusAssessment,
		Action:           action,
		KeyConcerns:      concerns,
		NextCatalyst:     p.NextCatalyst,
		Confidence:       confidence,
		Model:            model,
		AnalyzedAt:       now,
	}, nil
}
