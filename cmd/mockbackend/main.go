// Command mockbackend serves canned responses for the four LeAudio backend
// endpoints so the assistant can run end to end without real services.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/leaudio/leaudio/audio"
	"github.com/leaudio/leaudio/domain/entities"
	"github.com/leaudio/leaudio/internal/auth"
)

const mockTranscript = "안녕하세요, 이것은 모의 전사입니다."

var mockTranslations = map[entities.Language]string{
	entities.LanguageEnglish:    "Hello, this is a mock transcript.",
	entities.LanguageJapanese:   "こんにちは、これはモックの文字起こしです。",
	entities.LanguageChinese:    "你好，这是一个模拟转录。",
	entities.LanguageVietnamese: "Xin chào, đây là bản ghi giả lập.",
}

type server struct {
	token  string
	secret []byte
	audio  []byte
	logger *zap.Logger
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	s := &server{
		token:  envOr("MOCK_TOKEN", "test-token"),
		secret: []byte(os.Getenv("MOCK_TOKEN_SECRET")),
		audio:  audio.EncodeTone(440, time.Second),
		logger: logger,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(s.authorize)

	e.POST("/stt/restart", s.sttRestart)
	e.POST("/stt/stop", s.sttStop)
	e.POST("/translate", s.translate)
	e.POST("/tts/speak", s.ttsSpeak)
	e.POST("/llm/chat", s.llmChat)

	addr := envOr("MOCK_ADDR", ":8001")
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Mock backend started", zap.String("addr", addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
}

// authorize checks the bearer credential: a valid minted JWT when a secret is
// configured, the static token otherwise.
func (s *server) authorize(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
		}
		token := strings.TrimPrefix(header, "Bearer ")

		if len(s.secret) > 0 {
			if _, err := auth.ValidateToken(s.secret, token); err != nil {
				s.logger.Warn("Rejected invalid credential", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			}
		} else if token != s.token {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		}
		return next(c)
	}
}

func (s *server) sttRestart(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "recording_started"})
}

func (s *server) sttStop(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "no file uploaded"})
	}
	s.logger.Info("Received recording", zap.Int64("bytes", file.Size))

	return c.JSON(http.StatusOK, map[string]interface{}{
		"transcript":   mockTranscript,
		"translations": mockTranslations,
	})
}

func (s *server) translate(c echo.Context) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	translations := make(map[entities.Language]string, len(mockTranslations))
	for lang, text := range mockTranslations {
		if req.Text == "" {
			translations[lang] = ""
			continue
		}
		translations[lang] = text
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"translations": translations})
}

func (s *server) ttsSpeak(c echo.Context) error {
	var req struct {
		Text   string `json:"text"`
		Format string `json:"format"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	return c.Blob(http.StatusOK, "audio/wav", s.audio)
}

func (s *server) llmChat(c echo.Context) error {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	// Truncate on rune boundaries; messages are routinely CJK.
	msg := req.Message
	if runes := []rune(msg); len(runes) > 200 {
		msg = string(runes[:200])
	}
	return c.JSON(http.StatusOK, map[string]string{"response": "Mock LLM response to: " + msg})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
