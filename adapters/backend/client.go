package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/leaudio/leaudio/domain/entities"
	"github.com/leaudio/leaudio/domain/repositories"
	"github.com/leaudio/leaudio/internal/auth"
	"github.com/leaudio/leaudio/internal/config"
)

// Config holds configuration for the backend client
type Config struct {
	BaseURL     string           // Required: backend base address
	TokenSource auth.TokenSource // Required: bearer credential supplier

	// Optional per-call timeouts; config defaults apply when zero
	STTTimeout       time.Duration
	TranslateTimeout time.Duration
	TTSTimeout       time.Duration
	ChatTimeout      time.Duration

	// Optional HTTP client override, used by tests
	HTTPClient *http.Client
}

// Client implements the four remote operations against the LeAudio backend.
// Each call is one request/response exchange with an explicit timeout and no
// retries; transient failures surface directly to the caller. Safe for
// concurrent use.
type Client struct {
	baseURL string
	tokens  auth.TokenSource
	http    *http.Client
	logger  *zap.Logger

	sttTimeout       time.Duration
	translateTimeout time.Duration
	ttsTimeout       time.Duration
	chatTimeout      time.Duration
}

var _ repositories.SpeechToText = (*Client)(nil)
var _ repositories.Translator = (*Client)(nil)
var _ repositories.TextToSpeech = (*Client)(nil)
var _ repositories.Chat = (*Client)(nil)

// NewClient creates a backend client
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	if cfg.TokenSource == nil {
		return nil, fmt.Errorf("token source is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	c := &Client{
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		tokens:           cfg.TokenSource,
		http:             httpClient,
		logger:           logger,
		sttTimeout:       cfg.STTTimeout,
		translateTimeout: cfg.TranslateTimeout,
		ttsTimeout:       cfg.TTSTimeout,
		chatTimeout:      cfg.ChatTimeout,
	}
	if c.sttTimeout == 0 {
		c.sttTimeout = config.DefaultSTTTimeout
	}
	if c.translateTimeout == 0 {
		c.translateTimeout = config.DefaultTranslateTimeout
	}
	if c.ttsTimeout == 0 {
		c.ttsTimeout = config.DefaultTTSTimeout
	}
	if c.chatTimeout == 0 {
		c.chatTimeout = config.DefaultChatTimeout
	}
	return c, nil
}

// Transcribe uploads the artifact to /stt/stop and returns the transcript
func (c *Client) Transcribe(ctx context.Context, artifactPath string) (string, error) {
	audio, err := os.ReadFile(artifactPath)
	if err != nil {
		return "", entities.NewPipelineError(entities.ErrorKindUpload, entities.StageTranscribe, err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "record.wav")
	if err != nil {
		return "", entities.NewPipelineError(entities.ErrorKindUpload, entities.StageTranscribe, err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", entities.NewPipelineError(entities.ErrorKindUpload, entities.StageTranscribe, err)
	}
	writer.Close()

	raw, err := c.post(ctx, entities.StageTranscribe, "/stt/stop", &body, writer.FormDataContentType(), c.sttTimeout)
	if err != nil {
		return "", err
	}

	var resp struct {
		Transcript string `json:"transcript"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", entities.NewPipelineError(entities.ErrorKindService, entities.StageTranscribe,
			fmt.Errorf("decode response: %w", err))
	}
	return resp.Transcript, nil
}

// Translate sends text to /translate. Empty text is accepted. Unknown
// language codes in the response are dropped.
func (c *Client) Translate(ctx context.Context, text string) (map[entities.Language]string, error) {
	body, _ := json.Marshal(map[string]string{"text": text})

	raw, err := c.post(ctx, entities.StageTranslate, "/translate", bytes.NewReader(body), "application/json", c.translateTimeout)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Translations map[string]string `json:"translations"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, entities.NewPipelineError(entities.ErrorKindService, entities.StageTranslate,
			fmt.Errorf("decode response: %w", err))
	}

	result := make(map[entities.Language]string, len(resp.Translations))
	for code, translated := range resp.Translations {
		lang := entities.Language(code)
		if !lang.Supported() {
			c.logger.Debug("Ignoring unknown language code", zap.String("code", code))
			continue
		}
		result[lang] = translated
	}
	return result, nil
}

// Synthesize requests audio from /tts/speak and returns the raw bytes.
// The backend's audio format is opaque; callers persist it verbatim.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	body, _ := json.Marshal(map[string]string{"text": text, "format": "wav"})
	return c.post(ctx, entities.StageSynthesize, "/tts/speak", bytes.NewReader(body), "application/json", c.ttsTimeout)
}

// Send submits a chat message to /llm/chat
func (c *Client) Send(ctx context.Context, message string) (string, error) {
	body, _ := json.Marshal(map[string]string{"message": message})

	raw, err := c.post(ctx, entities.StageChat, "/llm/chat", bytes.NewReader(body), "application/json", c.chatTimeout)
	if err != nil {
		return "", err
	}

	var resp struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", entities.NewPipelineError(entities.ErrorKindService, entities.StageChat,
			fmt.Errorf("decode response: %w", err))
	}
	return resp.Response, nil
}

func (c *Client) post(ctx context.Context, stage, path string, body io.Reader, contentType string, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, entities.NewPipelineError(entities.ErrorKindService, stage, err)
	}

	token, err := c.tokens.Token()
	if err != nil {
		return nil, entities.NewPipelineError(entities.ErrorKindService, stage, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransportError(stage, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(stage, err)
	}

	c.logger.Debug("Backend call completed",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, entities.NewPipelineError(entities.ErrorKindService, stage,
			fmt.Errorf("backend returned %d: %s", resp.StatusCode, excerpt(raw)))
	}
	return raw, nil
}

// classifyTransportError separates deadline expiry from other transport
// failures, which report as service errors
func classifyTransportError(stage string, err error) *entities.PipelineError {
	if errors.Is(err, context.DeadlineExceeded) {
		return entities.NewPipelineError(entities.ErrorKindTimeout, stage, err)
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return entities.NewPipelineError(entities.ErrorKindTimeout, stage, err)
	}
	return entities.NewPipelineError(entities.ErrorKindService, stage, err)
}

func excerpt(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
