// Package analysis turns raw classifier output into a strict NoteAnalysis.
// Classification failures are absorbed here: every path yields a usable
// analysis, never an error.
package analysis

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/thanhpv/careminder/internal/model"
)

// Outcome records how a classification result was obtained.
type Outcome int

const (
	// OutcomeParsed means the classifier returned well-formed JSON.
	OutcomeParsed Outcome = iota
	// OutcomeUnavailable means the classifier could not be reached at all.
	OutcomeUnavailable
	// OutcomeMalformed means the classifier responded but its output could
	// not be parsed; Raw holds the original text for diagnostics.
	OutcomeMalformed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeParsed:
		return "parsed"
	case OutcomeUnavailable:
		return "unavailable"
	default:
		return "malformed"
	}
}

// Result carries the normalized analysis together with its provenance.
// Analysis is always populated: Unavailable and Malformed results carry the
// fixed fallback.
type Result struct {
	Outcome  Outcome
	Analysis model.NoteAnalysis
	Raw      string
}

// Unavailable is the result used when no classifier response exists.
func Unavailable() Result {
	return Result{Outcome: OutcomeUnavailable, Analysis: model.FallbackAnalysis()}
}

// Normalizer repairs raw classifier text into the internal schema.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer creates a Normalizer that parses extracted date-times in the
// given location. A nil location falls back to time.Local.
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.Local
	}
	return &Normalizer{loc: loc}
}

// rawAnalysis mirrors the JSON schema requested from the classifier. Every
// field stays raw so one wrong-typed value cannot poison the others; each is
// coerced on its own below.
type rawAnalysis struct {
	Category           json.RawMessage `json:"category"`
	ExtractedDatetime  json.RawMessage `json:"extracted_datetime"`
	Priority           json.RawMessage `json:"priority"`
	ShouldRemind       json.RawMessage `json:"should_create_reminder"`
	ReminderSuggestion json.RawMessage `json:"reminder_suggestion"`
	Analysis           json.RawMessage `json:"analysis"`
}

// Normalize parses raw classifier text. Code fences are stripped first since
// models frequently wrap JSON in markdown. Field coercion is independent: a
// bad priority does not invalidate a good category or date.
func (n *Normalizer) Normalize(raw string) Result {
	cleaned := stripCodeFence(raw)
	if !strings.HasPrefix(cleaned, "{") {
		return Result{Outcome: OutcomeMalformed, Analysis: model.FallbackAnalysis(), Raw: raw}
	}

	var parsed rawAnalysis
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return Result{Outcome: OutcomeMalformed, Analysis: model.FallbackAnalysis(), Raw: raw}
	}

	a := model.NoteAnalysis{
		Category:     model.ParseCategory(coerceString(parsed.Category)),
		Priority:     model.ParsePriority(coerceString(parsed.Priority)),
		ShouldRemind: coerceBool(parsed.ShouldRemind),
		Suggestion:   strings.TrimSpace(coerceString(parsed.ReminderSuggestion)),
		Rationale:    strings.TrimSpace(coerceString(parsed.Analysis)),
	}
	if t, ok := n.parseInstant(coerceString(parsed.ExtractedDatetime)); ok {
		a.ExtractedAt = &t
	}

	return Result{Outcome: OutcomeParsed, Analysis: a, Raw: raw}
}

// instantLayouts are tried in order. The classifier is asked for
// "YYYY-MM-DD HH:MM" but often answers in ISO 8601 variants.
var instantLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02",
}

func (n *Normalizer) parseInstant(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, "null") {
		return time.Time{}, false
	}
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, n.loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// coerceBool accepts true/false, "true"/"false", and 0/1; anything else
// (including absence) is false.
func coerceBool(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.EqualFold(strings.TrimSpace(s), "true")
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f != 0
	}
	return false
}

// coerceString returns the decoded string, or "" when the field is absent,
// null, or not a JSON string.
func coerceString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// stripCodeFence removes surrounding triple-backtick markup, tolerating an
// optional language tag after the opening fence.
func stripCodeFence(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	cleaned = strings.TrimPrefix(cleaned, "```")
	if idx := strings.Index(cleaned, "\n"); idx >= 0 {
		firstLine := strings.TrimSpace(cleaned[:idx])
		// A bare language tag like "json" sits alone on the fence line.
		if firstLine == "" || !strings.ContainsAny(firstLine, "{}[]") {
			cleaned = cleaned[idx+1:]
		}
	} else {
		cleaned = strings.TrimPrefix(cleaned, "json")
	}
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
