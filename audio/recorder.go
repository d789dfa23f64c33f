package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leaudio/leaudio/domain/entities"
)

// Completion is the single terminal signal of one capture
type Completion struct {
	Path string
	Err  error
}

// Recorder captures audio into a session-scoped WAV artifact, preferring
// arecord and falling back to synthesizing silence so the pipeline stays
// exercisable without capture hardware.
type Recorder struct {
	workDir string
	logger  *zap.Logger
}

func NewRecorder(workDir string, logger *zap.Logger) *Recorder {
	return &Recorder{workDir: workDir, logger: logger}
}

// Start begins capturing off the caller's goroutine. Exactly one Completion
// is delivered on the returned channel; it is buffered so a caller that has
// moved on never blocks the capture goroutine.
func (r *Recorder) Start(ctx context.Context, sessionID string, duration time.Duration) <-chan Completion {
	out := make(chan Completion, 1)
	go func() {
		path, err := r.capture(ctx, sessionID, duration)
		if err != nil {
			out <- Completion{Err: err}
			return
		}
		out <- Completion{Path: path}
	}()
	return out
}

func (r *Recorder) capture(ctx context.Context, sessionID string, duration time.Duration) (string, error) {
	dir := filepath.Join(r.workDir, sessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", entities.NewPipelineError(entities.ErrorKindCapture, entities.StageRecord, err)
	}
	path := filepath.Join(dir, "rec_"+uuid.NewString()+".wav")

	strategy := probeCapture()
	r.logger.Info("Starting capture",
		zap.String("sessionID", sessionID),
		zap.String("strategy", string(strategy)),
		zap.Duration("duration", duration))

	switch strategy {
	case StrategyExternalUtility:
		if err := r.captureExternal(ctx, path, duration); err != nil {
			return "", err
		}
	default:
		if err := WriteSilenceWAV(path, duration); err != nil {
			return "", entities.NewPipelineError(entities.ErrorKindCapture, entities.StageRecord, err)
		}
	}

	return path, nil
}

func (r *Recorder) captureExternal(ctx context.Context, path string, duration time.Duration) error {
	seconds := int(duration.Seconds())
	if seconds < 1 {
		seconds = 1
	}

	cmd := exec.CommandContext(ctx, "arecord",
		"-q",
		"-f", "S16_LE",
		"-c", strconv.Itoa(NumChannels),
		"-r", strconv.Itoa(SampleRate),
		"-d", strconv.Itoa(seconds),
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return entities.NewPipelineError(entities.ErrorKindCapture, entities.StageRecord,
			fmt.Errorf("arecord: %s", detail))
	}
	return nil
}
