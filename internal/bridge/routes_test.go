package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/leaudio/leaudio/adapters/backend"
	"github.com/leaudio/leaudio/audio"
	"github.com/leaudio/leaudio/domain/entities"
	"github.com/leaudio/leaudio/usecase"
)

type instantRecorder struct{}

func (instantRecorder) Start(ctx context.Context, sessionID string, duration time.Duration) <-chan audio.Completion {
	ch := make(chan audio.Completion, 1)
	ch <- audio.Completion{Path: "capture/" + sessionID + "/rec.wav"}
	return ch
}

type noopPlayer struct{}

func (noopPlayer) Play(ctx context.Context, path string) error { return nil }

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	logger := zap.NewNop()

	orch := usecase.NewOrchestrator(usecase.Deps{
		SpeechToText: backend.NewFakeSpeechToText("hello", logger),
		Translator: backend.NewFakeTranslator(map[entities.Language]string{
			entities.LanguageEnglish: "Hello",
		}, logger),
		TextToSpeech: backend.NewFakeTextToSpeech([]byte("RIFFaudio"), logger),
		Recorder:     instantRecorder{},
		Player:       noopPlayer{},
		WorkDir:      t.TempDir(),
	}, logger)
	t.Cleanup(orch.Close)

	chatService := usecase.NewChatService(&backend.FakeChat{Response: "hi there"}, logger)

	hub := NewHub(logger)
	go hub.Run()

	e := echo.New()
	InitRoutes(e, orch, chatService, hub, logger)
	return e
}

func TestHealthRoute(t *testing.T) {
	e := newTestServer(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
}

func TestSessionRoute(t *testing.T) {
	e := newTestServer(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var snap entities.SessionSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("Invalid snapshot payload: %v", err)
	}
	if snap.Phase != entities.PhaseIdle {
		t.Errorf("Expected idle session, got %s", snap.Phase)
	}
	if snap.ID == "" {
		t.Error("Expected session ID in projection")
	}
}

func TestRecordRoute(t *testing.T) {
	e := newTestServer(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/record", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", rec.Code)
	}
	var resp RecordResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid record payload: %v", err)
	}
	if resp.SessionID == "" {
		t.Error("Expected session ID in response")
	}
}

func TestCancelRoute(t *testing.T) {
	e := newTestServer(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/record/cancel", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", rec.Code)
	}
}

func TestPlayUnsupportedLanguage(t *testing.T) {
	e := newTestServer(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/play/xx", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestPlayMissingAudio(t *testing.T) {
	e := newTestServer(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/play/en", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid error payload: %v", err)
	}
	if resp.Error != "not_found" {
		t.Errorf("Expected not_found code, got %q", resp.Error)
	}
}

func TestChatRoute(t *testing.T) {
	e := newTestServer(t)

	body := strings.NewReader(`{"message":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/chat", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid chat payload: %v", err)
	}
	if resp.Response != "hi there" {
		t.Errorf("Unexpected response %q", resp.Response)
	}
}

func TestChatRouteEmptyMessage(t *testing.T) {
	e := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":""}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}
