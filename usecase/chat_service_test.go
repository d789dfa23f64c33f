package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/leaudio/leaudio/adapters/backend"
)

func TestChatServiceAsk(t *testing.T) {
	service := NewChatService(&backend.FakeChat{Response: "hi there"}, zap.NewNop())

	response, err := service.Ask(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if response != "hi there" {
		t.Errorf("Unexpected response %q", response)
	}
}

func TestChatServiceEmptyMessage(t *testing.T) {
	service := NewChatService(&backend.FakeChat{Response: "hi"}, zap.NewNop())

	if _, err := service.Ask(context.Background(), ""); err == nil {
		t.Error("Expected error for empty message")
	}
}

func TestChatServiceBackendError(t *testing.T) {
	wantErr := errors.New("llm unavailable")
	service := NewChatService(&backend.FakeChat{Err: wantErr}, zap.NewNop())

	_, err := service.Ask(context.Background(), "hello")
	if !errors.Is(err, wantErr) {
		t.Errorf("Expected backend error to surface, got %v", err)
	}
}
