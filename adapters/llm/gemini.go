package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/leaudio/leaudio/domain/entities"
	"github.com/leaudio/leaudio/domain/repositories"
)

const (
	defaultModel   = "gemini-2.0-flash"
	defaultTimeout = 30 * time.Second
)

// GeminiChat implements the Chat interface against Google's Gemini API, for
// deployments that skip the LeAudio backend's chat endpoint
type GeminiChat struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

var _ repositories.Chat = (*GeminiChat)(nil)

// GeminiConfig holds configuration for the Gemini chat adapter
type GeminiConfig struct {
	APIKey  string        // Required
	Model   string        // Optional
	Timeout time.Duration // Optional: per-call deadline
}

func NewGeminiChat(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*GeminiChat, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &GeminiChat{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Send submits one message and returns the model's reply
func (g *GeminiChat) Send(ctx context.Context, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := []*genai.Content{genai.NewContentFromText(message, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", entities.NewPipelineError(entities.ErrorKindTimeout, entities.StageChat, err)
		}
		return "", entities.NewPipelineError(entities.ErrorKindService, entities.StageChat, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", entities.NewPipelineError(entities.ErrorKindService, entities.StageChat,
			fmt.Errorf("no content generated"))
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		text += part.Text
	}
	if text == "" {
		return "", entities.NewPipelineError(entities.ErrorKindService, entities.StageChat,
			fmt.Errorf("empty response"))
	}

	g.logger.Info("Gemini response generated", zap.Int("responseLen", len(text)))
	return text, nil
}
