// Package notes orchestrates the note pipeline: classify, normalize, derive
// reminders, persist, and report the combined outcome.
package notes

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/thanhpv/careminder/internal/analysis"
	"github.com/thanhpv/careminder/internal/model"
	"github.com/thanhpv/careminder/internal/reminder"
)

// ErrEmptyText rejects requests whose note text is empty or whitespace.
var ErrEmptyText = errors.New("note text is empty")

// Store is the persistence surface the lifecycle needs. Writes are issued
// sequentially: the note first, then each reminder.
type Store interface {
	SaveNote(*model.Note) error
	SaveReminder(*model.Reminder) error
}

// Classifier obtains a raw structured analysis from the language model.
type Classifier interface {
	AnalyzeNote(ctx context.Context, content string, profile *model.UserProfile) (string, error)
}

// ProfileSource supplies the optional user context snapshot. Returning
// (nil, nil) is always valid.
type ProfileSource interface {
	Profile() (*model.UserProfile, error)
}

// Service is the note/reminder lifecycle manager.
type Service struct {
	store      Store
	profiles   ProfileSource
	classifier Classifier
	normalizer *analysis.Normalizer
	engine     *reminder.Engine
	logger     *log.Logger
}

// NewService wires the lifecycle manager.
func NewService(store Store, profiles ProfileSource, classifier Classifier, normalizer *analysis.Normalizer, engine *reminder.Engine, logger *log.Logger) *Service {
	return &Service{
		store:      store,
		profiles:   profiles,
		classifier: classifier,
		normalizer: normalizer,
		engine:     engine,
		logger:     logger,
	}
}

// CreatedReminder summarises one successfully persisted reminder.
type CreatedReminder struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	RemindAt time.Time `json:"remind_at"`
}

// CreationResult reports what a note entry produced: the reminders the rule
// table requested versus the ones actually persisted.
type CreationResult struct {
	NoteID             string             `json:"note_id"`
	Outcome            string             `json:"analysis_outcome"`
	Analysis           model.NoteAnalysis `json:"analysis"`
	RemindersRequested int                `json:"reminders_requested"`
	RemindersCreated   []CreatedReminder  `json:"reminders_created"`
	RemindersFailed    int                `json:"reminders_failed"`
	// NeedsDate flags a reminder that was intended but undated: the
	// classifier asked for one without a parsable instant.
	NeedsDate bool `json:"needs_date"`
}

// CreateNoteEntry persists a note and the reminders derived from it.
//
// The note write is fatal on failure; individual reminder write failures are
// logged, counted, and do not roll back the note or stop later writes.
// Re-invocation with identical input always produces fresh identities.
func (s *Service) CreateNoteEntry(ctx context.Context, text string, autoAnalyze bool) (*CreationResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	result := analysis.Unavailable()
	if autoAnalyze {
		result = s.classify(ctx, text)
	}
	a := result.Analysis

	note := &model.Note{
		ID:          model.NewID(),
		Content:     text,
		Category:    a.Category,
		ExtractedAt: a.ExtractedAt,
		Priority:    a.Priority,
		IsReminder:  a.ShouldRemind,
	}
	if err := s.store.SaveNote(note); err != nil {
		return nil, err
	}

	out := &CreationResult{
		NoteID:           note.ID,
		Outcome:          result.Outcome.String(),
		Analysis:         a,
		RemindersCreated: []CreatedReminder{},
		NeedsDate:        a.ShouldRemind && a.ExtractedAt == nil,
	}
	if !autoAnalyze {
		return out, nil
	}

	out.RemindersRequested = s.engine.Requested(a)
	reminders := s.engine.Derive(*note, a)
	for i := range reminders {
		if err := s.store.SaveReminder(&reminders[i]); err != nil {
			s.logger.Printf("notes: reminder write failed for note %s: %v", note.ID, err)
			out.RemindersFailed++
			continue
		}
		out.RemindersCreated = append(out.RemindersCreated, CreatedReminder{
			ID:       reminders[i].ID,
			Title:    reminders[i].Title,
			RemindAt: reminders[i].RemindAt,
		})
	}
	return out, nil
}

// DeriveReminders exposes the derivation engine directly.
func (s *Service) DeriveReminders(note model.Note, a model.NoteAnalysis) []model.Reminder {
	return s.engine.Derive(note, a)
}

// classify calls the language model and normalizes whatever comes back.
// Failures degrade to the fallback analysis, never to an error.
func (s *Service) classify(ctx context.Context, text string) analysis.Result {
	var profile *model.UserProfile
	if s.profiles != nil {
		p, err := s.profiles.Profile()
		if err != nil {
			s.logger.Printf("notes: profile load failed, classifying without context: %v", err)
		} else {
			profile = p
		}
	}

	raw, err := s.classifier.AnalyzeNote(ctx, text, profile)
	if err != nil {
		s.logger.Printf("notes: classification unavailable: %v", err)
		return analysis.Unavailable()
	}

	result := s.normalizer.Normalize(raw)
	if result.Outcome == analysis.OutcomeMalformed {
		s.logger.Printf("notes: malformed classification response: %q", result.Raw)
	}
	return result
}
