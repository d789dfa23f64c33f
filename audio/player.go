package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/jfreymuth/pulse"
	"go.uber.org/zap"

	"github.com/leaudio/leaudio/domain/entities"
)

// Player plays a synthesized audio artifact, preferring aplay and falling
// back to a PulseAudio playback stream. Playback blocks the calling
// goroutine until the artifact has been rendered; callers that must stay
// responsive invoke it from a background goroutine.
type Player struct {
	logger *zap.Logger
}

func NewPlayer(logger *zap.Logger) *Player {
	return &Player{logger: logger}
}

// Play renders the artifact at path. Missing or unreadable artifacts report
// not-found; device or utility failures report playback errors. Neither is
// fatal to the process.
func (p *Player) Play(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return entities.NewPipelineError(entities.ErrorKindNotFound, entities.StagePlay, err)
	}

	strategy := probePlayback()
	p.logger.Info("Playing artifact",
		zap.String("path", path),
		zap.String("strategy", string(strategy)))

	switch strategy {
	case StrategyExternalUtility:
		return p.playExternal(ctx, path)
	default:
		return p.playLibrary(ctx, path)
	}
}

func (p *Player) playExternal(ctx context.Context, path string) error {
	cmd := exec.CommandContext(ctx, "aplay", "-q", path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return entities.NewPipelineError(entities.ErrorKindPlayback, entities.StagePlay,
			fmt.Errorf("aplay: %s", detail))
	}
	return nil
}

func (p *Player) playLibrary(ctx context.Context, path string) error {
	pcm, err := ReadWAV(path)
	if err != nil {
		if os.IsNotExist(err) {
			return entities.NewPipelineError(entities.ErrorKindNotFound, entities.StagePlay, err)
		}
		return entities.NewPipelineError(entities.ErrorKindPlayback, entities.StagePlay, err)
	}
	if pcm.BitsPerSample != 16 {
		return entities.NewPipelineError(entities.ErrorKindPlayback, entities.StagePlay,
			fmt.Errorf("unsupported sample width %d bits", pcm.BitsPerSample))
	}

	samples := make([]int16, len(pcm.Data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm.Data[i*2:]))
	}

	client, err := pulse.NewClient()
	if err != nil {
		return entities.NewPipelineError(entities.ErrorKindPlayback, entities.StagePlay, err)
	}
	defer client.Close()

	pos := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if ctx.Err() != nil {
			return 0, pulse.EndOfData
		}
		if pos >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[pos:])
		pos += n
		return n, nil
	})

	opts := []pulse.PlaybackOption{
		pulse.PlaybackSampleRate(int(pcm.SampleRate)),
		pulse.PlaybackLatency(0.1),
	}
	if pcm.Channels == 2 {
		opts = append(opts, pulse.PlaybackStereo)
	} else {
		opts = append(opts, pulse.PlaybackMono)
	}

	stream, err := client.NewPlayback(reader, opts...)
	if err != nil {
		return entities.NewPipelineError(entities.ErrorKindPlayback, entities.StagePlay, err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()

	if err := stream.Error(); err != nil {
		return entities.NewPipelineError(entities.ErrorKindPlayback, entities.StagePlay, err)
	}
	return nil
}
