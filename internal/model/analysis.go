package model

import (
	"strings"
	"time"
)

// Category is the closed set of note classifications.
type Category string

const (
	CategoryMedication  Category = "medication"
	CategoryEvent       Category = "event"
	CategoryAppointment Category = "appointment"
	CategoryTask        Category = "task"
	CategoryHealth      Category = "health"
	CategoryOther       Category = "other"
)

// ParseCategory maps a raw classifier label onto the closed category set.
// Anything unrecognised becomes CategoryOther.
func ParseCategory(raw string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryMedication:
		return CategoryMedication
	case CategoryEvent:
		return CategoryEvent
	case CategoryAppointment:
		return CategoryAppointment
	case CategoryTask:
		return CategoryTask
	case CategoryHealth:
		return CategoryHealth
	default:
		return CategoryOther
	}
}

// Priority is the classifier's urgency judgement. It is informational only
// and never changes reminder scheduling.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority maps a raw priority label, defaulting to medium.
func ParsePriority(raw string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(raw))) {
	case PriorityHigh:
		return PriorityHigh
	case PriorityLow:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// NoteAnalysis is the normalized classification of a note's content.
type NoteAnalysis struct {
	Category     Category   `json:"category"`
	ExtractedAt  *time.Time `json:"extracted_datetime,omitempty"`
	Priority     Priority   `json:"priority"`
	ShouldRemind bool       `json:"should_create_reminder"`
	Suggestion   string     `json:"reminder_suggestion,omitempty"`
	Rationale    string     `json:"analysis,omitempty"`
}

// FallbackAnalysis is used whenever the classifier is unavailable or its
// output cannot be parsed. It never produces reminders.
func FallbackAnalysis() NoteAnalysis {
	return NoteAnalysis{
		Category:     CategoryOther,
		Priority:     PriorityMedium,
		ShouldRemind: false,
	}
}
