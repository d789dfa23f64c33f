package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Reference timeout defaults from the backend contract
const (
	DefaultSTTTimeout       = 60 * time.Second
	DefaultTranslateTimeout = 30 * time.Second
	DefaultTTSTimeout       = 30 * time.Second
	DefaultChatTimeout      = 30 * time.Second
)

// Provider selects which adapter backs an interface
const (
	ProviderBackend = "backend"
	ProviderGoogle  = "google"
	ProviderGemini  = "gemini"
)

// Config carries all externally configurable settings
type Config struct {
	BackendBaseURL string
	Token          string
	TokenSecret    string
	WorkDir        string
	BridgeAddr     string

	STTTimeout       time.Duration
	TranslateTimeout time.Duration
	TTSTimeout       time.Duration
	ChatTimeout      time.Duration

	RecordSeconds int

	STTProvider  string
	ChatProvider string

	// Google STT settings, used when STTProvider is "google"
	STTLanguageCode string
}

// Load builds the configuration from the environment, honoring a local .env
// file when present
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BackendBaseURL:   envOr("LEAUDIO_BACKEND", "http://localhost:8001"),
		Token:            envOr("LEAUDIO_TOKEN", "test-token"),
		TokenSecret:      os.Getenv("LEAUDIO_TOKEN_SECRET"),
		WorkDir:          envOr("LEAUDIO_WORKDIR", "logs"),
		BridgeAddr:       envOr("LEAUDIO_BRIDGE_ADDR", ":8080"),
		STTTimeout:       DefaultSTTTimeout,
		TranslateTimeout: DefaultTranslateTimeout,
		TTSTimeout:       DefaultTTSTimeout,
		ChatTimeout:      DefaultChatTimeout,
		RecordSeconds:    4,
		STTProvider:      envOr("LEAUDIO_STT_PROVIDER", ProviderBackend),
		ChatProvider:     envOr("LEAUDIO_CHAT_PROVIDER", ProviderBackend),
		STTLanguageCode:  envOr("LEAUDIO_STT_LANGUAGE", "ko-KR"),
	}

	var err error
	if cfg.STTTimeout, err = envSeconds("LEAUDIO_STT_TIMEOUT", cfg.STTTimeout); err != nil {
		return nil, err
	}
	if cfg.TranslateTimeout, err = envSeconds("LEAUDIO_TRANSLATE_TIMEOUT", cfg.TranslateTimeout); err != nil {
		return nil, err
	}
	if cfg.TTSTimeout, err = envSeconds("LEAUDIO_TTS_TIMEOUT", cfg.TTSTimeout); err != nil {
		return nil, err
	}
	if cfg.ChatTimeout, err = envSeconds("LEAUDIO_CHAT_TIMEOUT", cfg.ChatTimeout); err != nil {
		return nil, err
	}

	if v := os.Getenv("LEAUDIO_RECORD_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("LEAUDIO_RECORD_SECONDS must be a positive integer, got %q", v)
		}
		cfg.RecordSeconds = n
	}

	switch cfg.STTProvider {
	case ProviderBackend, ProviderGoogle:
	default:
		return nil, fmt.Errorf("unknown STT provider %q", cfg.STTProvider)
	}
	switch cfg.ChatProvider {
	case ProviderBackend, ProviderGemini:
	default:
		return nil, fmt.Errorf("unknown chat provider %q", cfg.ChatProvider)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envSeconds(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive number of seconds, got %q", key, v)
	}
	return time.Duration(n) * time.Second, nil
}
