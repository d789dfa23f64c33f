package backend

import (
	"context"

	"go.uber.org/zap"

	"github.com/leaudio/leaudio/domain/entities"
	"github.com/leaudio/leaudio/domain/repositories"
)

// In-memory counterparts of the backend operations, used by tests and by
// offline runs without a reachable backend.

// FakeSpeechToText returns a canned transcript
type FakeSpeechToText struct {
	Transcript string
	Err        error

	logger *zap.Logger
}

func NewFakeSpeechToText(transcript string, logger *zap.Logger) *FakeSpeechToText {
	return &FakeSpeechToText{Transcript: transcript, logger: logger}
}

func (f *FakeSpeechToText) Transcribe(ctx context.Context, artifactPath string) (string, error) {
	if f.logger != nil {
		f.logger.Info("Fake transcription", zap.String("artifact", artifactPath))
	}
	if f.Err != nil {
		return "", f.Err
	}
	return f.Transcript, nil
}

// FakeTranslator returns a canned translation mapping
type FakeTranslator struct {
	Result map[entities.Language]string
	Err    error

	logger *zap.Logger
}

func NewFakeTranslator(result map[entities.Language]string, logger *zap.Logger) *FakeTranslator {
	return &FakeTranslator{Result: result, logger: logger}
}

func (f *FakeTranslator) Translate(ctx context.Context, text string) (map[entities.Language]string, error) {
	if f.logger != nil {
		f.logger.Info("Fake translation", zap.Int("textLen", len(text)))
	}
	if f.Err != nil {
		return nil, f.Err
	}
	out := make(map[entities.Language]string, len(f.Result))
	for k, v := range f.Result {
		out[k] = v
	}
	return out, nil
}

// FakeTextToSpeech returns canned audio, optionally failing for specific
// input texts, and optionally gating each call until released
type FakeTextToSpeech struct {
	Audio   []byte
	FailFor map[string]error

	// When non-nil, Synthesize blocks until a value arrives or ctx ends.
	Gate chan struct{}

	logger *zap.Logger
}

func NewFakeTextToSpeech(audio []byte, logger *zap.Logger) *FakeTextToSpeech {
	return &FakeTextToSpeech{Audio: audio, logger: logger}
}

func (f *FakeTextToSpeech) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.logger != nil {
		f.logger.Info("Fake synthesis", zap.Int("textLen", len(text)))
	}
	if err, ok := f.FailFor[text]; ok {
		return nil, err
	}
	return f.Audio, nil
}

// FakeChat echoes a canned response
type FakeChat struct {
	Response string
	Err      error
}

func (f *FakeChat) Send(ctx context.Context, message string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	return f.Response, nil
}

var _ repositories.SpeechToText = (*FakeSpeechToText)(nil)
var _ repositories.Translator = (*FakeTranslator)(nil)
var _ repositories.TextToSpeech = (*FakeTextToSpeech)(nil)
var _ repositories.Chat = (*FakeChat)(nil)
