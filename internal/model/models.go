package model

import (
	"time"

	"github.com/google/uuid"
)

// NewID returns a fresh record identity. Identities are opaque and carry no
// timestamp information, so records created in the same instant stay unique.
func NewID() string {
	return uuid.NewString()
}

// Note is a captured piece of text with its flattened analysis. Notes are
// written once and never updated.
type Note struct {
	ID          string     `gorm:"primaryKey" json:"id"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	Category    Category   `gorm:"not null" json:"category"`
	ExtractedAt *time.Time `json:"extracted_datetime,omitempty"`
	Priority    Priority   `gorm:"not null" json:"priority"`
	IsReminder  bool       `gorm:"not null" json:"is_reminder"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// Reminder is a time-anchored follow-up derived from a note. It references
// its note for lookup only; deleting a note does not cascade.
type Reminder struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	NoteID      string    `gorm:"index;not null" json:"note_id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	RemindAt    time.Time `gorm:"index;not null" json:"remind_at"`
	IsCompleted bool      `gorm:"not null" json:"is_completed"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// DiaryEntry is a free-form journal entry with optional AI enrichment.
type DiaryEntry struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Summary   string    `gorm:"type:text" json:"summary,omitempty"`
	Emotion   string    `json:"emotion,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Memory is a saved fragment of reminiscence.
type Memory struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Tags      []string  `gorm:"serializer:json" json:"tags"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// ProfileID is the fixed identity of the single user profile row.
const ProfileID = "user_profile"

// UserProfile is a read-only snapshot used to enrich classification prompts.
type UserProfile struct {
	ID                string    `gorm:"primaryKey" json:"id"`
	FullName          string    `json:"full_name,omitempty"`
	Age               int       `json:"age,omitempty"`
	Address           string    `json:"address,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	EmergencyContact  string    `json:"emergency_contact,omitempty"`
	MedicalConditions []string  `gorm:"serializer:json" json:"medical_conditions"`
	Medications       []string  `gorm:"serializer:json" json:"medications"`
	Allergies         []string  `gorm:"serializer:json" json:"allergies"`
	Hobbies           []string  `gorm:"serializer:json" json:"hobbies"`
	DailyRoutine      string    `gorm:"type:text" json:"daily_routine,omitempty"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// HealthLog is a single health measurement or observation.
type HealthLog struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	LogType   string    `gorm:"not null" json:"log_type"`
	Value     string    `gorm:"not null" json:"value"`
	Note      string    `gorm:"type:text" json:"note,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// ChatMessage is one turn in a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation stores a chat exchange history.
type Conversation struct {
	ID        string        `gorm:"primaryKey" json:"id"`
	Messages  []ChatMessage `gorm:"serializer:json" json:"messages"`
	CreatedAt time.Time     `gorm:"autoCreateTime" json:"created_at"`
}
