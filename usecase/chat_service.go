package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/leaudio/leaudio/domain/repositories"
)

// ChatService handles the conversational side channel. It shares the remote
// error taxonomy but never touches the pipeline session.
type ChatService struct {
	chat   repositories.Chat
	logger *zap.Logger
}

func NewChatService(chat repositories.Chat, logger *zap.Logger) *ChatService {
	return &ChatService{chat: chat, logger: logger}
}

// Ask submits one message and returns the reply
func (s *ChatService) Ask(ctx context.Context, message string) (string, error) {
	if message == "" {
		return "", fmt.Errorf("message is required")
	}

	response, err := s.chat.Send(ctx, message)
	if err != nil {
		s.logger.Error("Chat request failed", zap.Error(err))
		return "", err
	}

	s.logger.Info("Chat response received", zap.Int("responseLen", len(response)))
	return response, nil
}
