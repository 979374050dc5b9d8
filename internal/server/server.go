// Package server exposes the HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/thanhpv/careminder/internal/ai"
	"github.com/thanhpv/careminder/internal/assistant"
	"github.com/thanhpv/careminder/internal/model"
	"github.com/thanhpv/careminder/internal/notes"
	"github.com/thanhpv/careminder/internal/ocr"
	"github.com/thanhpv/careminder/internal/storage"
)

// maxUploadBytes bounds note photo uploads.
const maxUploadBytes = 10 << 20

// Server routes API requests to the note pipeline and assistant features.
type Server struct {
	notes     *notes.Service
	assistant *assistant.Service
	store     *storage.Store
	ai        *ai.Client
	extractor ocr.Extractor
	logger    *log.Logger
}

// New creates the HTTP server.
func New(noteSvc *notes.Service, assistantSvc *assistant.Service, store *storage.Store, aiClient *ai.Client, extractor ocr.Extractor, logger *log.Logger) *Server {
	return &Server{
		notes:     noteSvc,
		assistant: assistantSvc,
		store:     store,
		ai:        aiClient,
		extractor: extractor,
		logger:    logger,
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleInfo)
	mux.HandleFunc("GET /test-ai", s.handleTestAI)
	mux.HandleFunc("POST /ocr", s.handleOCR)
	mux.HandleFunc("POST /entry", s.handleCreateEntry)
	mux.HandleFunc("POST /entry/text", s.handleCreateTextEntry)
	mux.HandleFunc("GET /notes", s.handleListNotes)
	mux.HandleFunc("GET /diaries", s.handleListDiaries)
	mux.HandleFunc("GET /reminders", s.handleListReminders)
	mux.HandleFunc("PUT /reminders/{id}/complete", s.handleCompleteReminder)
	mux.HandleFunc("GET /profile", s.handleGetProfile)
	mux.HandleFunc("POST /profile", s.handleUpdateProfile)
	mux.HandleFunc("POST /health/log", s.handleLogHealth)
	mux.HandleFunc("GET /health/insights", s.handleHealthInsights)
	mux.HandleFunc("GET /prompt", s.handleMemoryPrompt)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /memory", s.handleSaveMemory)
	mux.HandleFunc("GET /memories", s.handleListMemories)
	return mux
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"service": "careminder",
		"endpoints": map[string]string{
			"create_entry":      "POST /entry (multipart: file, entry_type, auto_analyze)",
			"create_text_entry": "POST /entry/text",
			"ocr":               "POST /ocr",
			"notes":             "GET /notes",
			"diaries":           "GET /diaries",
			"reminders":         "GET /reminders?status=pending|all",
			"complete_reminder": "PUT /reminders/{id}/complete",
			"profile":           "GET|POST /profile",
			"health_log":        "POST /health/log",
			"health_insights":   "GET /health/insights",
			"memory_prompt":     "GET /prompt",
			"chat":              "POST /chat",
			"memory":            "POST /memory, GET /memories",
			"test_ai":           "GET /test-ai",
		},
	})
}

// handleTestAI reports whether the language model is reachable. It answers
// 200 either way; "success" carries the verdict.
func (s *Server) handleTestAI(w http.ResponseWriter, r *http.Request) {
	if !s.ai.Configured() {
		s.writeJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"message": "GROQ_API_KEY is not set",
		})
		return
	}
	reply, err := s.ai.Ping(r.Context())
	if err != nil {
		s.logger.Printf("server: ai connectivity: %v", err)
		s.writeJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"message": "the AI service did not respond",
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "response": reply})
}

func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	text, _, ok := s.extractUpload(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"text":    text,
		"length":  len(text),
	})
}

// handleCreateEntry is the photographed-note entry point: OCR the upload,
// then run the diary or note pipeline.
func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	text, form, ok := s.extractUpload(w, r)
	if !ok {
		return
	}
	if text == "" {
		s.writeError(w, http.StatusBadRequest, "no text could be read from the image")
		return
	}

	entryType := form("entry_type")
	autoAnalyze := parseBoolDefault(form("auto_analyze"), true)
	s.createEntry(w, r, entryType, text, autoAnalyze)
}

// handleCreateTextEntry accepts already-extracted text, for clients that run
// OCR on the device.
func (s *Server) handleCreateTextEntry(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text        string `json:"text"`
		EntryType   string `json:"entry_type"`
		AutoAnalyze *bool  `json:"auto_analyze"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	autoAnalyze := true
	if body.AutoAnalyze != nil {
		autoAnalyze = *body.AutoAnalyze
	}
	s.createEntry(w, r, body.EntryType, body.Text, autoAnalyze)
}

func (s *Server) createEntry(w http.ResponseWriter, r *http.Request, entryType, text string, autoAnalyze bool) {
	switch entryType {
	case "note":
		result, err := s.notes.CreateNoteEntry(r.Context(), text, autoAnalyze)
		if err != nil {
			if errors.Is(err, notes.ErrEmptyText) {
				s.writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			s.logger.Printf("server: create note: %v", err)
			s.writeError(w, http.StatusInternalServerError, "could not save the note")
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{
			"success":       true,
			"type":          "note",
			"original_text": text,
			"result":        result,
		})
	case "diary":
		entry, err := s.assistant.CreateDiaryEntry(r.Context(), text, autoAnalyze)
		if err != nil {
			if errors.Is(err, assistant.ErrEmptyContent) {
				s.writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			s.logger.Printf("server: create diary: %v", err)
			s.writeError(w, http.StatusInternalServerError, "could not save the diary entry")
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{
			"success":       true,
			"type":          "diary",
			"diary_id":      entry.ID,
			"original_text": text,
			"summary":       entry.Summary,
			"emotion":       entry.Emotion,
		})
	default:
		s.writeError(w, http.StatusBadRequest, "entry_type must be 'diary' or 'note'")
	}
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	limit := parseIntDefault(r.URL.Query().Get("limit"), 10)
	items, err := s.store.RecentNotes(limit)
	if err != nil {
		s.logger.Printf("server: list notes: %v", err)
		s.writeError(w, http.StatusInternalServerError, "could not load notes")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "total": len(items), "notes": items})
}

func (s *Server) handleListDiaries(w http.ResponseWriter, r *http.Request) {
	limit := parseIntDefault(r.URL.Query().Get("limit"), 10)
	items, err := s.store.RecentDiaries(limit)
	if err != nil {
		s.logger.Printf("server: list diaries: %v", err)
		s.writeError(w, http.StatusInternalServerError, "could not load diaries")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "total": len(items), "diaries": items})
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	pendingOnly := r.URL.Query().Get("status") != "all"
	items, err := s.store.Reminders(pendingOnly)
	if err != nil {
		s.logger.Printf("server: list reminders: %v", err)
		s.writeError(w, http.StatusInternalServerError, "could not load reminders")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "total": len(items), "reminders": items})
}

func (s *Server) handleCompleteReminder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.CompleteReminder(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "reminder not found")
			return
		}
		s.logger.Printf("server: complete reminder %s: %v", id, err)
		s.writeError(w, http.StatusInternalServerError, "could not update the reminder")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, _ *http.Request) {
	profile, err := s.store.Profile()
	if err != nil {
		s.logger.Printf("server: get profile: %v", err)
		s.writeError(w, http.StatusInternalServerError, "could not load the profile")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "profile": profile})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var profile model.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.store.SaveProfile(&profile); err != nil {
		s.logger.Printf("server: save profile: %v", err)
		s.writeError(w, http.StatusInternalServerError, "could not save the profile")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "profile": profile})
}

func (s *Server) handleLogHealth(w http.ResponseWriter, r *http.Request) {
	var body struct {
		LogType string `json:"log_type"`
		Value   string `json:"value"`
		Note    string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	entry, err := s.assistant.LogHealth(body.LogType, body.Value, body.Note)
	if err != nil {
		if errors.Is(err, assistant.ErrEmptyContent) {
			s.writeError(w, http.StatusBadRequest, "log_type and value are required")
			return
		}
		s.logger.Printf("server: log health: %v", err)
		s.writeError(w, http.StatusInternalServerError, "could not save the health log")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "log_id": entry.ID})
}

func (s *Server) handleHealthInsights(w http.ResponseWriter, r *http.Request) {
	insight, total, err := s.assistant.HealthInsights(r.Context())
	if err != nil {
		s.logger.Printf("server: health insights: %v", err)
		s.writeError(w, http.StatusInternalServerError, "could not analyze health logs")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "total_logs": total, "insights": insight})
}

func (s *Server) handleMemoryPrompt(w http.ResponseWriter, r *http.Request) {
	prompt, err := s.assistant.MemoryPrompt(r.Context())
	if err != nil {
		s.logger.Printf("server: memory prompt: %v", err)
		s.writeError(w, http.StatusInternalServerError, "could not build a prompt")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "prompt": prompt})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	reply, convID, err := s.assistant.Chat(r.Context(), body.Message)
	if err != nil {
		if errors.Is(err, assistant.ErrEmptyContent) {
			s.writeError(w, http.StatusBadRequest, "message is required")
			return
		}
		s.logger.Printf("server: chat: %v", err)
		s.writeError(w, http.StatusInternalServerError, "chat is unavailable right now")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "response": reply, "conversation_id": convID})
}

func (s *Server) handleSaveMemory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string   `json:"content"`
		Tags    []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	memory, err := s.assistant.SaveMemory(body.Content, body.Tags)
	if err != nil {
		if errors.Is(err, assistant.ErrEmptyContent) {
			s.writeError(w, http.StatusBadRequest, "content is required")
			return
		}
		s.logger.Printf("server: save memory: %v", err)
		s.writeError(w, http.StatusInternalServerError, "could not save the memory")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "memory_id": memory.ID})
}

func (s *Server) handleListMemories(w http.ResponseWriter, r *http.Request) {
	limit := parseIntDefault(r.URL.Query().Get("limit"), 10)
	items, err := s.store.RecentMemories(limit)
	if err != nil {
		s.logger.Printf("server: list memories: %v", err)
		s.writeError(w, http.StatusInternalServerError, "could not load memories")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "total": len(items), "memories": items})
}

// extractUpload parses a multipart upload, runs OCR over the file, and
// returns the text plus a form-value accessor. On failure it writes the
// error response and returns ok=false.
func (s *Server) extractUpload(w http.ResponseWriter, r *http.Request) (string, func(string) string, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "expected a multipart upload")
		return "", nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing 'file' upload")
		return "", nil, false
	}
	defer file.Close()

	if ct := header.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		s.writeError(w, http.StatusBadRequest, "file must be an image")
		return "", nil, false
	}

	image, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "could not read the upload")
		return "", nil, false
	}

	text, err := s.extractor.ExtractText(r.Context(), image)
	if err != nil {
		s.logger.Printf("server: ocr: %v", err)
		s.writeError(w, http.StatusInternalServerError, "could not read the image")
		return "", nil, false
	}
	return text, r.FormValue, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("server: response encode: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]any{"success": false, "detail": detail})
}

func parseIntDefault(raw string, def int) int {
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parseBoolDefault(raw string, def bool) bool {
	if raw == "" {
		return def
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return parsed
}
