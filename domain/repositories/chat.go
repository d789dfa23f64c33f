package repositories

import "context"

// Chat abstracts the conversational side channel, independent of the
// translation pipeline
type Chat interface {
	Send(ctx context.Context, message string) (string, error)
}
