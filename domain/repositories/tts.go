package repositories

import "context"

// TextToSpeech abstracts speech synthesis services
type TextToSpeech interface {
	// Synthesize returns the rendered audio bytes. Persisting them is the
	// caller's responsibility.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
