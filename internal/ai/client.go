// Package ai wraps the Groq chat-completions API (OpenAI-compatible) behind
// the handful of prompts this service needs.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/thanhpv/careminder/internal/config"
	"github.com/thanhpv/careminder/internal/model"
)

// ErrNotConfigured is returned when attempting to call the API without an API key.
var ErrNotConfigured = errors.New("groq client not configured")

// Client wraps the chat-completions SDK. A Client built without an API key
// is valid; every call on it returns ErrNotConfigured, which callers treat
// as "no opinion".
type Client struct {
	client      *openai.Client
	model       openai.ChatModel
	temperature float64
	maxTokens   int
}

// New returns a Groq-backed client, or an unconfigured one when no API key
// is present.
func New(cfg *config.Config) *Client {
	if cfg.GroqAPIKey == "" {
		return &Client{}
	}
	client := openai.NewClient(
		option.WithAPIKey(cfg.GroqAPIKey),
		option.WithBaseURL(cfg.GroqBaseURL),
	)
	return &Client{
		client:      &client,
		model:       openai.ChatModel(cfg.GroqModel),
		temperature: cfg.GroqTemperature,
		maxTokens:   cfg.GroqMaxTokens,
	}
}

// Configured reports whether the client can reach the API at all.
func (c *Client) Configured() bool {
	return c.client != nil
}

// complete issues a single system/user exchange. No retries: one failed call
// is absorbed upstream as a degraded analysis.
func (c *Client) complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	if c.client == nil {
		return "", ErrNotConfigured
	}

	req := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(system),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(user),
					},
				},
			},
		},
		Temperature:         openai.Float(temperature),
		MaxCompletionTokens: openai.Int(int64(c.maxTokens)),
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion received")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty completion received")
	}
	return content, nil
}

// Ping issues a one-shot greeting so connectivity can be checked without
// touching any stored data.
func (c *Client) Ping(ctx context.Context) (string, error) {
	return c.complete(ctx, systemChat, "Chào bạn! Hãy trả lời thật ngắn gọn.", c.temperature)
}

// AnalyzeNote asks the model to classify a note and returns its raw text
// response. Parsing happens in the analysis package.
func (c *Client) AnalyzeNote(ctx context.Context, content string, profile *model.UserProfile) (string, error) {
	return c.complete(ctx, systemNoteAnalysis, buildNotePrompt(content, profile), 0.2)
}

// SummarizeDiary produces a short warm summary of a diary entry.
func (c *Client) SummarizeDiary(ctx context.Context, content string) (string, error) {
	return c.complete(ctx, systemDiarySummary, buildSummaryPrompt(content), c.temperature)
}

// AnalyzeEmotion labels the dominant emotion in a diary entry with a single
// word from a fixed vocabulary.
func (c *Client) AnalyzeEmotion(ctx context.Context, content string) (string, error) {
	label, err := c.complete(ctx, systemEmotion, buildEmotionPrompt(content), 0.0)
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(label)), nil
}

// MemoryPrompt generates a personalised reminiscence question.
func (c *Client) MemoryPrompt(ctx context.Context, diaries []model.DiaryEntry, memories []model.Memory, profile *model.UserProfile) (string, error) {
	return c.complete(ctx, systemMemoryPrompt, buildMemoryPrompt(diaries, memories, profile), c.temperature)
}

// HealthTrend narrates recent health logs as short friendly advice.
func (c *Client) HealthTrend(ctx context.Context, logs []model.HealthLog, profile *model.UserProfile) (string, error) {
	return c.complete(ctx, systemHealthTrend, buildHealthPrompt(logs, profile), c.temperature)
}

// Chat answers a message with conversation history and profile context.
func (c *Client) Chat(ctx context.Context, message string, history []model.ChatMessage, profile *model.UserProfile) (string, error) {
	return c.complete(ctx, systemChat, buildChatPrompt(message, history, profile), c.temperature)
}
