package repositories

import (
	"context"

	"github.com/leaudio/leaudio/domain/entities"
)

// Translator abstracts text translation services
type Translator interface {
	// Translate returns translated text per target language. An empty input
	// is valid and yields a well-defined (possibly empty-valued) result.
	// Missing languages mean "no translation available", not an error.
	Translate(ctx context.Context, text string) (map[entities.Language]string, error)
}
