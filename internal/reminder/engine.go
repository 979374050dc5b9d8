// Package reminder derives time-anchored reminders from a note and its
// analysis. Derivation is pure: the engine performs no I/O and is
// deterministic given its injected clock and identity generator.
package reminder

import (
	"time"

	"github.com/thanhpv/careminder/internal/model"
)

// Slot describes one reminder produced for a category: how far ahead of the
// extracted instant it fires and how its title is chosen. When FixedTitle is
// set the classifier's suggestion is ignored for that slot.
type Slot struct {
	Offset       time.Duration
	FixedTitle   string
	DefaultTitle string
}

// RuleTable maps a category to the reminder slots it produces, in order.
// Categories without an entry fall back to defaultSlots.
type RuleTable map[model.Category][]Slot

// DefaultRules returns the standard lead-time policy. Offsets are design
// constants; priority never changes them.
func DefaultRules() RuleTable {
	return RuleTable{
		model.CategoryMedication: {
			{Offset: 30 * time.Minute, DefaultTitle: "Uống thuốc"},
		},
		model.CategoryAppointment: {
			{Offset: 24 * time.Hour, FixedTitle: "Nhắc lịch hẹn ngày mai"},
			{Offset: time.Hour, DefaultTitle: "Chuẩn bị đi khám"},
		},
		model.CategoryEvent: {
			{Offset: 24 * time.Hour, DefaultTitle: "Sự kiện sắp diễn ra"},
		},
	}
}

// defaultSlots covers task, health, other, and any future category: a single
// reminder at the extracted instant itself.
var defaultSlots = []Slot{{DefaultTitle: "Nhắc nhở"}}

// Engine turns (note, analysis) pairs into reminder records.
type Engine struct {
	rules RuleTable
	now   func() time.Time
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock substitutes the wall clock used for creation stamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator substitutes the identity generator.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// NewEngine creates an Engine over the given rule table. A nil table uses
// DefaultRules.
func NewEngine(rules RuleTable, opts ...Option) *Engine {
	if rules == nil {
		rules = DefaultRules()
	}
	e := &Engine{
		rules: rules,
		now:   time.Now,
		newID: model.NewID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Derive produces the reminders the rule table requests for the note. The
// result is empty unless the analysis asks for a reminder and carries a
// valid extracted instant; that degradation is expected, not an error.
func (e *Engine) Derive(note model.Note, a model.NoteAnalysis) []model.Reminder {
	if !a.ShouldRemind || a.ExtractedAt == nil || a.ExtractedAt.IsZero() {
		return nil
	}

	slots, ok := e.rules[a.Category]
	if !ok {
		slots = defaultSlots
	}

	anchor := *a.ExtractedAt
	created := e.now()
	reminders := make([]model.Reminder, 0, len(slots))
	for _, slot := range slots {
		title := slot.FixedTitle
		if title == "" {
			title = a.Suggestion
		}
		if title == "" {
			title = slot.DefaultTitle
		}
		reminders = append(reminders, model.Reminder{
			ID:          e.newID(),
			NoteID:      note.ID,
			Title:       title,
			Description: note.Content,
			RemindAt:    anchor.Add(-slot.Offset),
			IsCompleted: false,
			CreatedAt:   created,
		})
	}
	return reminders
}

// Requested reports how many reminders the rule table would produce for an
// analysis, before any persistence is attempted.
func (e *Engine) Requested(a model.NoteAnalysis) int {
	if !a.ShouldRemind || a.ExtractedAt == nil || a.ExtractedAt.IsZero() {
		return 0
	}
	if slots, ok := e.rules[a.Category]; ok {
		return len(slots)
	}
	return len(defaultSlots)
}
