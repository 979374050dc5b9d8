package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/thanhpv/careminder/internal/ai"
	"github.com/thanhpv/careminder/internal/analysis"
	"github.com/thanhpv/careminder/internal/assistant"
	"github.com/thanhpv/careminder/internal/config"
	"github.com/thanhpv/careminder/internal/model"
	"github.com/thanhpv/careminder/internal/notes"
	"github.com/thanhpv/careminder/internal/reminder"
	"github.com/thanhpv/careminder/internal/storage"
)

type stubExtractor struct {
	text string
	err  error
}

func (s *stubExtractor) ExtractText(context.Context, []byte) (string, error) {
	return s.text, s.err
}

type stubClassifier struct {
	raw string
	err error
}

func (s *stubClassifier) AnalyzeNote(context.Context, string, *model.UserProfile) (string, error) {
	return s.raw, s.err
}

type fixture struct {
	server *Server
	store  *storage.Store
}

func newFixture(t *testing.T, classifier notes.Classifier, extractor *stubExtractor) *fixture {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_fk=1", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	store, err := storage.NewWithDB(db)
	require.NoError(t, err)

	logger := log.New(io.Discard, "", 0)
	noteSvc := notes.NewService(store, store, classifier, analysis.NewNormalizer(time.UTC), reminder.NewEngine(nil), logger)
	// Unconfigured AI: diary enrichments degrade, entries still save.
	assistantSvc := assistant.NewService(store, ai.New(&config.Config{}), logger)

	return &fixture{
		server: New(noteSvc, assistantSvc, store, ai.New(&config.Config{}), extractor, logger),
		store:  store,
	}
}

func multipartUpload(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="file"; filename="note.png"`},
		"Content-Type":        {"image/png"},
	})
	require.NoError(t, err)
	_, err = part.Write([]byte("fake image bytes"))
	require.NoError(t, err)

	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func TestCreateNoteEntryFromImage(t *testing.T) {
	t.Parallel()

	classifier := &stubClassifier{raw: `{
		"category": "medication",
		"extracted_datetime": "2024-05-10T08:00",
		"should_create_reminder": true
	}`}
	fx := newFixture(t, classifier, &stubExtractor{text: "Uống thuốc huyết áp 8 giờ sáng ngày 10/5"})
	handler := fx.server.Handler()

	body, contentType := multipartUpload(t, map[string]string{"entry_type": "note"})
	req := httptest.NewRequest(http.MethodPost, "/entry", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var payload struct {
		Success bool   `json:"success"`
		Type    string `json:"type"`
		Result  struct {
			NoteID           string `json:"note_id"`
			Outcome          string `json:"analysis_outcome"`
			RemindersCreated []struct {
				Title string `json:"title"`
			} `json:"reminders_created"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.True(t, payload.Success)
	assert.Equal(t, "note", payload.Type)
	assert.Equal(t, "parsed", payload.Result.Outcome)
	require.Len(t, payload.Result.RemindersCreated, 1)

	reminders, err := fx.store.Reminders(true)
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, payload.Result.NoteID, reminders[0].NoteID)
}

func TestCreateEntryRejectsBadType(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, &stubClassifier{}, &stubExtractor{text: "xin chào"})
	handler := fx.server.Handler()

	body, contentType := multipartUpload(t, map[string]string{"entry_type": "shopping-list"})
	req := httptest.NewRequest(http.MethodPost, "/entry", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateEntryRejectsEmptyOCRText(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, &stubClassifier{}, &stubExtractor{text: ""})
	handler := fx.server.Handler()

	body, contentType := multipartUpload(t, map[string]string{"entry_type": "note"})
	req := httptest.NewRequest(http.MethodPost, "/entry", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTextEntryWithoutAnalysis(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, &stubClassifier{}, &stubExtractor{})
	handler := fx.server.Handler()

	rec, payload := doJSON(t, handler, http.MethodPost, "/entry/text", map[string]any{
		"text":         "mua rau muống",
		"entry_type":   "note",
		"auto_analyze": false,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, payload["success"])

	notesList, err := fx.store.Notes(0)
	require.NoError(t, err)
	require.Len(t, notesList, 1)
	assert.Equal(t, model.CategoryOther, notesList[0].Category)
}

func TestListAndCompleteReminders(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, &stubClassifier{}, &stubExtractor{})
	handler := fx.server.Handler()

	r := &model.Reminder{ID: model.NewID(), NoteID: model.NewID(), Title: "Uống thuốc", RemindAt: time.Now().Add(time.Hour)}
	require.NoError(t, fx.store.SaveReminder(r))

	rec, payload := doJSON(t, handler, http.MethodGet, "/reminders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, payload["total"])

	rec, _ = doJSON(t, handler, http.MethodPut, "/reminders/"+r.ID+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, payload = doJSON(t, handler, http.MethodGet, "/reminders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, payload["total"])

	rec, _ = doJSON(t, handler, http.MethodGet, "/reminders?status=all", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, handler, http.MethodPut, "/reminders/missing/complete", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfileEndpoints(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, &stubClassifier{}, &stubExtractor{})
	handler := fx.server.Handler()

	rec, payload := doJSON(t, handler, http.MethodGet, "/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, payload["profile"])

	rec, _ = doJSON(t, handler, http.MethodPost, "/profile", map[string]any{
		"full_name":          "Bà Lan",
		"age":                78,
		"medical_conditions": []string{"cao huyết áp"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, payload = doJSON(t, handler, http.MethodGet, "/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile, ok := payload["profile"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Bà Lan", profile["full_name"])
}

func TestHealthLogEndpoint(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, &stubClassifier{}, &stubExtractor{})
	handler := fx.server.Handler()

	rec, payload := doJSON(t, handler, http.MethodPost, "/health/log", map[string]any{
		"log_type": "blood_pressure",
		"value":    "120/80",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, payload["log_id"])

	rec, _ = doJSON(t, handler, http.MethodPost, "/health/log", map[string]any{"value": "120/80"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMemoryEndpoints(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, &stubClassifier{}, &stubExtractor{})
	handler := fx.server.Handler()

	rec, _ := doJSON(t, handler, http.MethodPost, "/memory", map[string]any{
		"content": "Tết năm 1975 cả nhà gói bánh chưng",
		"tags":    []string{"tết"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, payload := doJSON(t, handler, http.MethodGet, "/memories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, payload["total"])
}

func TestMemoryPromptWithoutData(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, &stubClassifier{}, &stubExtractor{})
	handler := fx.server.Handler()

	rec, payload := doJSON(t, handler, http.MethodGet, "/prompt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, payload["prompt"], "fixed prompt is returned without stored data")
}

func TestTestAIReportsUnconfiguredClient(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, &stubClassifier{}, &stubExtractor{})
	handler := fx.server.Handler()

	rec, payload := doJSON(t, handler, http.MethodGet, "/test-ai", nil)
	require.Equal(t, http.StatusOK, rec.Code, "the check answers 200 even when the AI is down")
	assert.Equal(t, false, payload["success"])
	assert.NotEmpty(t, payload["message"])
}
