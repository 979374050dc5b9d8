// Package storage persists all durable records over GORM. Appends preserve
// insertion order; nothing here is ever deleted.
package storage

import (
	"errors"
	"log"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/thanhpv/careminder/internal/model"
)

// ErrNotFound is returned when a lookup by identity matches no record.
var ErrNotFound = errors.New("record not found")

// Store wraps the database connection.
type Store struct {
	db *gorm.DB
}

// New creates a GORM-backed store. When databaseURL is provided PostgreSQL
// is used, otherwise SQLite.
func New(databaseURL string) (*Store, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	var (
		db  *gorm.DB
		err error
	)
	if databaseURL != "" {
		db, err = gorm.Open(postgres.Open(databaseURL), gormConfig)
	} else {
		db, err = gorm.Open(sqlite.Open("careminder.db"), gormConfig)
	}
	if err != nil {
		return nil, err
	}

	store, err := NewWithDB(db)
	if err != nil {
		return nil, err
	}
	logBackend(db)
	return store, nil
}

// NewWithDB wraps an existing connection and runs migrations. Used by tests
// with in-memory SQLite.
func NewWithDB(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(
		&model.Note{},
		&model.Reminder{},
		&model.DiaryEntry{},
		&model.Memory{},
		&model.UserProfile{},
		&model.HealthLog{},
		&model.Conversation{},
	); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func logBackend(db *gorm.DB) {
	switch strings.ToLower(db.Dialector.Name()) {
	case "postgres":
		log.Printf("storage: connected to PostgreSQL")
	case "sqlite":
		log.Printf("storage: using SQLite careminder.db")
	default:
		log.Printf("storage: connected via %s", db.Dialector.Name())
	}
}

// SaveNote appends a note record.
func (s *Store) SaveNote(note *model.Note) error {
	return s.db.Create(note).Error
}

// Notes returns stored notes in insertion order. A non-positive limit
// returns everything.
func (s *Store) Notes(limit int) ([]model.Note, error) {
	var notes []model.Note
	query := s.db.Order("created_at asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&notes).Error
	return notes, err
}

// RecentNotes returns up to limit notes, newest first.
func (s *Store) RecentNotes(limit int) ([]model.Note, error) {
	var notes []model.Note
	err := s.db.Order("created_at desc").Limit(limit).Find(&notes).Error
	return notes, err
}

// SaveReminder appends a reminder record.
func (s *Store) SaveReminder(reminder *model.Reminder) error {
	return s.db.Create(reminder).Error
}

// Reminders returns reminders sorted by their trigger time. When pendingOnly
// is set completed reminders are excluded.
func (s *Store) Reminders(pendingOnly bool) ([]model.Reminder, error) {
	var reminders []model.Reminder
	query := s.db.Order("remind_at asc")
	if pendingOnly {
		query = query.Where("is_completed = ?", false)
	}
	err := query.Find(&reminders).Error
	return reminders, err
}

// CompleteReminder marks a reminder done. The completion toggle is the only
// mutation reminders support.
func (s *Store) CompleteReminder(id string) error {
	result := s.db.Model(&model.Reminder{}).Where("id = ?", id).Update("is_completed", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveDiary appends a diary entry.
func (s *Store) SaveDiary(entry *model.DiaryEntry) error {
	return s.db.Create(entry).Error
}

// RecentDiaries returns up to limit diary entries, newest first.
func (s *Store) RecentDiaries(limit int) ([]model.DiaryEntry, error) {
	var entries []model.DiaryEntry
	err := s.db.Order("created_at desc").Limit(limit).Find(&entries).Error
	return entries, err
}

// SaveMemory appends a memory fragment.
func (s *Store) SaveMemory(memory *model.Memory) error {
	return s.db.Create(memory).Error
}

// RecentMemories returns up to limit memories, newest first.
func (s *Store) RecentMemories(limit int) ([]model.Memory, error) {
	var memories []model.Memory
	err := s.db.Order("created_at desc").Limit(limit).Find(&memories).Error
	return memories, err
}

// Profile returns the user profile, or nil when none has been saved.
func (s *Store) Profile() (*model.UserProfile, error) {
	var profile model.UserProfile
	err := s.db.First(&profile, "id = ?", model.ProfileID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// SaveProfile creates or replaces the single profile row.
func (s *Store) SaveProfile(profile *model.UserProfile) error {
	profile.ID = model.ProfileID
	return s.db.Save(profile).Error
}

// SaveHealthLog appends a health measurement.
func (s *Store) SaveHealthLog(entry *model.HealthLog) error {
	return s.db.Create(entry).Error
}

// RecentHealthLogs returns up to limit health logs, newest first.
func (s *Store) RecentHealthLogs(limit int) ([]model.HealthLog, error) {
	var logs []model.HealthLog
	err := s.db.Order("created_at desc").Limit(limit).Find(&logs).Error
	return logs, err
}

// HealthLogCount reports the total number of health logs.
func (s *Store) HealthLogCount() (int64, error) {
	var count int64
	err := s.db.Model(&model.HealthLog{}).Count(&count).Error
	return count, err
}

// SaveConversation appends a conversation record.
func (s *Store) SaveConversation(conv *model.Conversation) error {
	return s.db.Create(conv).Error
}

// LastConversation returns the most recent conversation, or nil when there
// is none.
func (s *Store) LastConversation() (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.Order("created_at desc").First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}
