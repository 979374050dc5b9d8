// Package assistant covers the companion features around the note pipeline:
// diaries, memories, health logs, reminiscence prompts, and contextual chat.
package assistant

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/thanhpv/careminder/internal/ai"
	"github.com/thanhpv/careminder/internal/model"
	"github.com/thanhpv/careminder/internal/storage"
)

// ErrEmptyContent rejects empty diary, memory, or chat input.
var ErrEmptyContent = errors.New("content is empty")

const (
	defaultMemoryPrompt  = "Chào bác! Hôm nay bác có muốn kể cho cháu nghe về kỷ niệm đẹp nào từ tuổi thơ không ạ?"
	fallbackMemoryPrompt = "Bác có nhớ món ăn yêu thích hồi nhỏ không ạ?"
	defaultEmotion       = "bình_thường"
	// chatHistoryWindow bounds how many trailing messages feed the prompt.
	chatHistoryWindow = 5
)

// Service implements the companion features.
type Service struct {
	store  *storage.Store
	ai     *ai.Client
	logger *log.Logger
}

// NewService wires the assistant.
func NewService(store *storage.Store, client *ai.Client, logger *log.Logger) *Service {
	return &Service{store: store, ai: client, logger: logger}
}

// CreateDiaryEntry saves a diary entry, optionally enriched with an AI
// summary and emotion label. AI failures leave the fields empty; the entry
// is always saved.
func (s *Service) CreateDiaryEntry(ctx context.Context, text string, autoAnalyze bool) (*model.DiaryEntry, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyContent
	}

	entry := &model.DiaryEntry{
		ID:      model.NewID(),
		Content: text,
	}
	if autoAnalyze {
		if summary, err := s.ai.SummarizeDiary(ctx, text); err != nil {
			s.logger.Printf("assistant: diary summary failed: %v", err)
		} else {
			entry.Summary = summary
		}
		if emotion, err := s.ai.AnalyzeEmotion(ctx, text); err != nil {
			entry.Emotion = defaultEmotion
		} else {
			entry.Emotion = emotion
		}
	}

	if err := s.store.SaveDiary(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// SaveMemory stores a memory fragment with its tags.
func (s *Service) SaveMemory(content string, tags []string) (*model.Memory, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if t := strings.TrimSpace(tag); t != "" {
			cleaned = append(cleaned, t)
		}
	}

	memory := &model.Memory{
		ID:      model.NewID(),
		Content: content,
		Tags:    cleaned,
	}
	if err := s.store.SaveMemory(memory); err != nil {
		return nil, err
	}
	return memory, nil
}

// MemoryPrompt returns a personalised reminiscence question. Without stored
// data or a reachable model it falls back to fixed questions.
func (s *Service) MemoryPrompt(ctx context.Context) (string, error) {
	diaries, err := s.store.RecentDiaries(3)
	if err != nil {
		return "", err
	}
	memories, err := s.store.RecentMemories(3)
	if err != nil {
		return "", err
	}
	if len(diaries) == 0 && len(memories) == 0 {
		return defaultMemoryPrompt, nil
	}

	profile, err := s.store.Profile()
	if err != nil {
		s.logger.Printf("assistant: profile load failed: %v", err)
	}

	prompt, err := s.ai.MemoryPrompt(ctx, diaries, memories, profile)
	if err != nil {
		s.logger.Printf("assistant: memory prompt failed: %v", err)
		return fallbackMemoryPrompt, nil
	}
	return prompt, nil
}

// LogHealth appends a health measurement.
func (s *Service) LogHealth(logType, value, note string) (*model.HealthLog, error) {
	if strings.TrimSpace(logType) == "" || strings.TrimSpace(value) == "" {
		return nil, ErrEmptyContent
	}

	entry := &model.HealthLog{
		ID:      model.NewID(),
		LogType: logType,
		Value:   value,
		Note:    note,
	}
	if err := s.store.SaveHealthLog(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// HealthInsights narrates recent health logs. Returns the insight text and
// the total log count.
func (s *Service) HealthInsights(ctx context.Context) (string, int64, error) {
	total, err := s.store.HealthLogCount()
	if err != nil {
		return "", 0, err
	}
	if total == 0 {
		return "Chưa có dữ liệu sức khỏe để phân tích.", 0, nil
	}

	logs, err := s.store.RecentHealthLogs(10)
	if err != nil {
		return "", 0, err
	}
	profile, err := s.store.Profile()
	if err != nil {
		s.logger.Printf("assistant: profile load failed: %v", err)
	}

	insight, err := s.ai.HealthTrend(ctx, logs, profile)
	if err != nil {
		s.logger.Printf("assistant: health trend failed: %v", err)
		return "Không thể phân tích lúc này.", total, nil
	}
	return insight, total, nil
}

// Chat answers a message with profile and recent-conversation context, then
// persists the updated exchange.
func (s *Service) Chat(ctx context.Context, message string) (string, string, error) {
	if strings.TrimSpace(message) == "" {
		return "", "", ErrEmptyContent
	}

	profile, err := s.store.Profile()
	if err != nil {
		s.logger.Printf("assistant: profile load failed: %v", err)
	}

	var history []model.ChatMessage
	if last, err := s.store.LastConversation(); err != nil {
		s.logger.Printf("assistant: conversation load failed: %v", err)
	} else if last != nil {
		history = last.Messages
	}
	if len(history) > chatHistoryWindow {
		history = history[len(history)-chatHistoryWindow:]
	}

	reply, err := s.ai.Chat(ctx, message, history, profile)
	if err != nil {
		return "", "", err
	}

	conv := &model.Conversation{
		ID: model.NewID(),
		Messages: append(history,
			model.ChatMessage{Role: "user", Content: message},
			model.ChatMessage{Role: "assistant", Content: reply},
		),
	}
	if err := s.store.SaveConversation(conv); err != nil {
		s.logger.Printf("assistant: conversation save failed: %v", err)
	}
	return reply, conv.ID, nil
}
