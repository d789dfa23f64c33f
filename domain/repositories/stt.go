package repositories

import "context"

// SpeechToText abstracts speech recognition services
type SpeechToText interface {
	// Transcribe uploads the recorded artifact and returns its transcript
	Transcribe(ctx context.Context, artifactPath string) (string, error)
}
