package stt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/leaudio/leaudio/audio"
	"github.com/leaudio/leaudio/domain/entities"
	"github.com/leaudio/leaudio/domain/repositories"
)

// GoogleSpeechToText implements SpeechToText against Google Cloud
// Speech-to-Text, for deployments that talk to Google directly instead of
// the LeAudio backend. Credentials come from the usual Google application
// default credential chain.
type GoogleSpeechToText struct {
	languageCode string
	timeout      time.Duration
	logger       *zap.Logger
}

var _ repositories.SpeechToText = (*GoogleSpeechToText)(nil)

// GoogleConfig holds configuration for the Google STT adapter
type GoogleConfig struct {
	LanguageCode string        // Required: BCP-47 code of the spoken language
	Timeout      time.Duration // Optional: per-call deadline
}

func NewGoogleSpeechToText(cfg GoogleConfig, logger *zap.Logger) (*GoogleSpeechToText, error) {
	if cfg.LanguageCode == "" {
		return nil, fmt.Errorf("language code is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &GoogleSpeechToText{
		languageCode: cfg.LanguageCode,
		timeout:      timeout,
		logger:       logger,
	}, nil
}

// Transcribe reads the capture-format artifact and runs a synchronous
// recognition request
func (g *GoogleSpeechToText) Transcribe(ctx context.Context, artifactPath string) (string, error) {
	content, err := os.ReadFile(artifactPath)
	if err != nil {
		return "", entities.NewPipelineError(entities.ErrorKindUpload, entities.StageTranscribe, err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	client, err := speech.NewClient(ctx)
	if err != nil {
		return "", entities.NewPipelineError(entities.ErrorKindService, entities.StageTranscribe,
			fmt.Errorf("create speech client: %w", err))
	}
	defer client.Close()

	resp, err := client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: audio.SampleRate,
			LanguageCode:    g.languageCode,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: content},
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", entities.NewPipelineError(entities.ErrorKindTimeout, entities.StageTranscribe, err)
		}
		return "", entities.NewPipelineError(entities.ErrorKindService, entities.StageTranscribe, err)
	}

	var parts []string
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			parts = append(parts, result.Alternatives[0].Transcript)
		}
	}
	transcript := strings.Join(parts, " ")

	g.logger.Info("Google transcription completed",
		zap.Int("audioBytes", len(content)),
		zap.Int("transcriptLen", len(transcript)))

	return transcript, nil
}
