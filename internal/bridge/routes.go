package bridge

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/leaudio/leaudio/domain/entities"
	"github.com/leaudio/leaudio/usecase"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ChatRequest represents the request payload for the chat side channel
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse represents the chat reply payload
type ChatResponse struct {
	Response string `json:"response"`
}

// RecordResponse carries the identity of a newly started session
type RecordResponse struct {
	SessionID string `json:"session_id"`
}

// InitRoutes wires the UI projection and control endpoints. Reads come from
// orchestrator snapshots; control endpoints use a background context so the
// pipeline outlives the HTTP request that started it.
func InitRoutes(e *echo.Echo, orch *usecase.Orchestrator, chatService *usecase.ChatService, hub *Hub, logger *zap.Logger) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "leaudio",
		})
	})

	e.GET("/session", func(c echo.Context) error {
		return c.JSON(http.StatusOK, orch.Snapshot())
	})

	e.POST("/record", func(c echo.Context) error {
		id, err := orch.StartRecording(context.Background())
		if err != nil {
			logger.Error("Failed to start recording", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "record_failed",
				Message: err.Error(),
			})
		}
		return c.JSON(http.StatusAccepted, RecordResponse{SessionID: id})
	})

	e.POST("/record/cancel", func(c echo.Context) error {
		orch.CancelRecording()
		return c.NoContent(http.StatusAccepted)
	})

	e.POST("/play/:lang", func(c echo.Context) error {
		return play(c, orch, logger)
	})

	e.POST("/chat", func(c echo.Context) error {
		return chat(c, chatService, logger)
	})

	e.GET("/ws", func(c echo.Context) error {
		return serveWebSocket(hub, c, logger)
	})
}

func play(c echo.Context, orch *usecase.Orchestrator, logger *zap.Logger) error {
	lang := entities.Language(c.Param("lang"))
	if !lang.Supported() {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "unsupported_language",
			Message: "Unknown language code: " + string(lang),
		})
	}

	// Playback blocks this handler's goroutine, not the pipeline.
	if err := orch.Play(context.Background(), lang); err != nil {
		logger.Warn("Playback failed",
			zap.String("language", string(lang)),
			zap.Error(err))
		status := http.StatusInternalServerError
		code := "playback_error"
		if entities.KindOf(err) == entities.ErrorKindNotFound {
			status = http.StatusNotFound
			code = "not_found"
		}
		return c.JSON(status, ErrorResponse{Error: code, Message: err.Error()})
	}
	return c.NoContent(http.StatusOK)
}

func chat(c echo.Context, chatService *usecase.ChatService, logger *zap.Logger) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Message is required",
		})
	}

	response, err := chatService.Ask(c.Request().Context(), req.Message)
	if err != nil {
		logger.Error("Chat failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "chat_failed",
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, ChatResponse{Response: response})
}
