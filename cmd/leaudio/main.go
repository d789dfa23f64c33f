package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/leaudio/leaudio/adapters/backend"
	"github.com/leaudio/leaudio/adapters/llm"
	"github.com/leaudio/leaudio/adapters/stt"
	"github.com/leaudio/leaudio/audio"
	"github.com/leaudio/leaudio/domain/repositories"
	"github.com/leaudio/leaudio/internal/auth"
	"github.com/leaudio/leaudio/internal/bridge"
	"github.com/leaudio/leaudio/internal/config"
	"github.com/leaudio/leaudio/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	// Bearer credential: minted JWT when a secret is configured, static
	// token otherwise.
	var tokens auth.TokenSource
	if cfg.TokenSecret != "" {
		tokens = auth.NewJWTTokenSource([]byte(cfg.TokenSecret), "leaudio")
	} else {
		tokens = auth.NewStaticTokenSource(cfg.Token)
	}

	client, err := backend.NewClient(backend.Config{
		BaseURL:          cfg.BackendBaseURL,
		TokenSource:      tokens,
		STTTimeout:       cfg.STTTimeout,
		TranslateTimeout: cfg.TranslateTimeout,
		TTSTimeout:       cfg.TTSTimeout,
		ChatTimeout:      cfg.ChatTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create backend client", zap.Error(err))
	}

	var speechToText repositories.SpeechToText = client
	if cfg.STTProvider == config.ProviderGoogle {
		speechToText, err = stt.NewGoogleSpeechToText(stt.GoogleConfig{
			LanguageCode: cfg.STTLanguageCode,
			Timeout:      cfg.STTTimeout,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create Google STT adapter", zap.Error(err))
		}
	}

	var chat repositories.Chat = client
	if cfg.ChatProvider == config.ProviderGemini {
		chat, err = llm.NewGeminiChat(context.Background(), llm.GeminiConfig{
			APIKey:  os.Getenv("GEMINI_API_KEY"),
			Timeout: cfg.ChatTimeout,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create Gemini chat adapter", zap.Error(err))
		}
	}

	orch := usecase.NewOrchestrator(usecase.Deps{
		SpeechToText:   speechToText,
		Translator:     client,
		TextToSpeech:   client,
		Recorder:       audio.NewRecorder(cfg.WorkDir, logger),
		Player:         audio.NewPlayer(logger),
		WorkDir:        cfg.WorkDir,
		RecordDuration: time.Duration(cfg.RecordSeconds) * time.Second,
	}, logger)
	defer orch.Close()

	chatService := usecase.NewChatService(chat, logger)

	// UI projection: websocket push of every state change.
	hub := bridge.NewHub(logger)
	go hub.Run()
	orch.Subscribe(hub.Publish)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	bridge.InitRoutes(e, orch, chatService, hub, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(cfg.BridgeAddr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("LeAudio assistant started",
		zap.String("backend", cfg.BackendBaseURL),
		zap.String("bridge", cfg.BridgeAddr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Exited")
}
