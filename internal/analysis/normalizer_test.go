package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thanhpv/careminder/internal/model"
)

func TestUnavailableUsesFallback(t *testing.T) {
	t.Parallel()

	result := Unavailable()
	assert.Equal(t, OutcomeUnavailable, result.Outcome)
	assert.Equal(t, model.CategoryOther, result.Analysis.Category)
	assert.Equal(t, model.PriorityMedium, result.Analysis.Priority)
	assert.False(t, result.Analysis.ShouldRemind)
	assert.Nil(t, result.Analysis.ExtractedAt)
}

func TestNormalizeWellFormed(t *testing.T) {
	t.Parallel()

	raw := `{
		"category": "medication",
		"extracted_datetime": "2024-05-10T08:00",
		"priority": "high",
		"should_create_reminder": true,
		"reminder_suggestion": "Uống thuốc huyết áp",
		"analysis": "Ghi chú về thuốc có giờ cụ thể"
	}`

	n := NewNormalizer(time.UTC)
	result := n.Normalize(raw)

	require.Equal(t, OutcomeParsed, result.Outcome)
	a := result.Analysis
	assert.Equal(t, model.CategoryMedication, a.Category)
	assert.Equal(t, model.PriorityHigh, a.Priority)
	assert.True(t, a.ShouldRemind)
	assert.Equal(t, "Uống thuốc huyết áp", a.Suggestion)
	require.NotNil(t, a.ExtractedAt)
	assert.Equal(t, time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC), *a.ExtractedAt)
}

func TestNormalizeStripsCodeFences(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"plain fence":       "```\n{\"category\": \"event\"}\n```",
		"json tag":          "```json\n{\"category\": \"event\"}\n```",
		"no trailing break": "```json\n{\"category\": \"event\"}```",
		"single line":       "```{\"category\": \"event\"}```",
	}

	n := NewNormalizer(time.UTC)
	for name, raw := range cases {
		result := n.Normalize(raw)
		require.Equal(t, OutcomeParsed, result.Outcome, "case %s", name)
		assert.Equal(t, model.CategoryEvent, result.Analysis.Category, "case %s", name)
	}
}

func TestNormalizeMalformedFallsBack(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(time.UTC)
	for _, raw := range []string{"", "not json at all", "{\"category\": ", "Xin lỗi, tôi không thể phân tích."} {
		result := n.Normalize(raw)
		assert.Equal(t, OutcomeMalformed, result.Outcome)
		assert.Equal(t, model.FallbackAnalysis(), result.Analysis)
		assert.Equal(t, raw, result.Raw)
	}
}

func TestNormalizeFieldCoercionIsIndependent(t *testing.T) {
	t.Parallel()

	// Bad priority and bad datetime must not invalidate a good category.
	raw := `{
		"category": "appointment",
		"extracted_datetime": "sáng mai",
		"priority": "urgent!!",
		"should_create_reminder": "true"
	}`

	n := NewNormalizer(time.UTC)
	result := n.Normalize(raw)

	require.Equal(t, OutcomeParsed, result.Outcome)
	a := result.Analysis
	assert.Equal(t, model.CategoryAppointment, a.Category)
	assert.Equal(t, model.PriorityMedium, a.Priority)
	assert.Nil(t, a.ExtractedAt)
	assert.True(t, a.ShouldRemind, "string booleans are coerced")
}

func TestNormalizeWrongTypedFieldKeepsOthers(t *testing.T) {
	t.Parallel()

	// A numeric priority must not discard the category or the datetime.
	raw := `{
		"category": "medication",
		"extracted_datetime": "2024-05-10T08:00",
		"priority": 2,
		"should_create_reminder": true
	}`

	n := NewNormalizer(time.UTC)
	result := n.Normalize(raw)

	require.Equal(t, OutcomeParsed, result.Outcome)
	a := result.Analysis
	assert.Equal(t, model.CategoryMedication, a.Category)
	assert.Equal(t, model.PriorityMedium, a.Priority)
	assert.True(t, a.ShouldRemind)
	require.NotNil(t, a.ExtractedAt)
	assert.Equal(t, time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC), *a.ExtractedAt)

	// Same for non-string suggestion and rationale fields.
	result = n.Normalize(`{"category": "event", "reminder_suggestion": 7, "analysis": null}`)
	require.Equal(t, OutcomeParsed, result.Outcome)
	assert.Equal(t, model.CategoryEvent, result.Analysis.Category)
	assert.Empty(t, result.Analysis.Suggestion)
	assert.Empty(t, result.Analysis.Rationale)
}

func TestNormalizeNonObjectPayloadFallsBack(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(time.UTC)
	for _, raw := range []string{"null", "true", "[1, 2]", `"medication"`} {
		result := n.Normalize(raw)
		assert.Equal(t, OutcomeMalformed, result.Outcome, "input %q", raw)
		assert.Equal(t, model.FallbackAnalysis(), result.Analysis, "input %q", raw)
	}
}

func TestNormalizeUnknownValuesCoerce(t *testing.T) {
	t.Parallel()

	raw := `{"category": "shopping", "priority": "whenever"}`
	result := NewNormalizer(time.UTC).Normalize(raw)

	require.Equal(t, OutcomeParsed, result.Outcome)
	assert.Equal(t, model.CategoryOther, result.Analysis.Category)
	assert.Equal(t, model.PriorityMedium, result.Analysis.Priority)
	assert.False(t, result.Analysis.ShouldRemind)
}

func TestParseInstantLayouts(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	require.NoError(t, err)
	n := NewNormalizer(loc)

	want := time.Date(2024, 5, 10, 8, 0, 0, 0, loc)
	for _, raw := range []string{
		"2024-05-10T08:00",
		"2024-05-10 08:00",
		"2024-05-10T08:00:00",
		"2024-05-10 08:00:00",
	} {
		got, ok := n.parseInstant(raw)
		require.True(t, ok, "layout %q", raw)
		assert.True(t, want.Equal(got), "layout %q", raw)
	}

	midnight, ok := n.parseInstant("2024-05-10")
	require.True(t, ok)
	assert.True(t, time.Date(2024, 5, 10, 0, 0, 0, 0, loc).Equal(midnight))

	for _, raw := range []string{"", "null", "ngày mai", "10/5 8 giờ"} {
		_, ok := n.parseInstant(raw)
		assert.False(t, ok, "input %q", raw)
	}
}
