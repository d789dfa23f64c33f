package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/leaudio/leaudio/adapters/backend"
	"github.com/leaudio/leaudio/audio"
	"github.com/leaudio/leaudio/domain/entities"
)

type stubRecorder struct {
	err error

	// When set, Start never delivers a completion.
	hang bool
}

func (r *stubRecorder) Start(ctx context.Context, sessionID string, duration time.Duration) <-chan audio.Completion {
	ch := make(chan audio.Completion, 1)
	if r.hang {
		return ch
	}
	if r.err != nil {
		ch <- audio.Completion{Err: r.err}
	} else {
		ch <- audio.Completion{Path: filepath.Join("capture", sessionID, "rec.wav")}
	}
	return ch
}

type stubPlayer struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (p *stubPlayer) Play(ctx context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paths = append(p.paths, path)
	return p.err
}

func (p *stubPlayer) played() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.paths...)
}

var testTranslations = map[entities.Language]string{
	entities.LanguageEnglish:    "Hello, this is a mock transcription.",
	entities.LanguageJapanese:   "こんにちは、これはモック転写です。",
	entities.LanguageChinese:    "你好，这是模拟转录。",
	entities.LanguageVietnamese: "Xin chào, đây là bản phiên âm thử.",
}

func defaultDeps(t *testing.T) Deps {
	t.Helper()
	logger := zap.NewNop()
	return Deps{
		SpeechToText: backend.NewFakeSpeechToText("안녕하세요, 이것은 모의 전사입니다.", logger),
		Translator:   backend.NewFakeTranslator(testTranslations, logger),
		TextToSpeech: backend.NewFakeTextToSpeech([]byte("RIFFaudio"), logger),
		Recorder:     &stubRecorder{},
		Player:       &stubPlayer{},
		WorkDir:      t.TempDir(),
	}
}

// startOrchestrator wires a snapshot channel before any recording begins so
// tests observe every state change in order.
func startOrchestrator(t *testing.T, deps Deps) (*Orchestrator, chan entities.SessionSnapshot) {
	t.Helper()
	orch := NewOrchestrator(deps, zap.NewNop())
	t.Cleanup(orch.Close)

	snaps := make(chan entities.SessionSnapshot, 256)
	orch.Subscribe(func(snap entities.SessionSnapshot) { snaps <- snap })
	return orch, snaps
}

func waitFor(t *testing.T, snaps chan entities.SessionSnapshot, desc string, pred func(entities.SessionSnapshot) bool) entities.SessionSnapshot {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case snap := <-snaps:
			if pred(snap) {
				return snap
			}
		case <-deadline:
			t.Fatalf("Timed out waiting for %s", desc)
		}
	}
}

func TestPipelineHappyPath(t *testing.T) {
	deps := defaultDeps(t)
	orch, snaps := startOrchestrator(t, deps)

	id, err := orch.StartRecording(context.Background())
	if err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}

	ready := waitFor(t, snaps, "ready phase", func(s entities.SessionSnapshot) bool {
		return s.ID == id && s.Phase == entities.PhaseReady
	})
	if ready.Transcript == "" {
		t.Error("Expected transcript to be set before ready")
	}
	if len(ready.Translations) != 4 {
		t.Errorf("Expected 4 translations, got %d", len(ready.Translations))
	}

	// Artifacts land after the ready transition, one notification each.
	final := waitFor(t, snaps, "all audio artifacts", func(s entities.SessionSnapshot) bool {
		return s.ID == id && len(s.AudioArtifacts) == 4
	})
	if final.Phase != entities.PhaseReady {
		t.Errorf("Expected phase %s after prefetch, got %s", entities.PhaseReady, final.Phase)
	}
	for lang, path := range final.AudioArtifacts {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Errorf("Artifact for %s unreadable: %v", lang, err)
			continue
		}
		if string(data) != "RIFFaudio" {
			t.Errorf("Unexpected artifact content for %s", lang)
		}
		if !strings.Contains(path, id) {
			t.Errorf("Artifact path %s not scoped to session %s", path, id)
		}
	}
}

func TestPartialTranslationResult(t *testing.T) {
	deps := defaultDeps(t)
	deps.Translator = backend.NewFakeTranslator(map[entities.Language]string{
		entities.LanguageEnglish: "Hello",
		entities.Language("ko"):  "안녕하세요",
	}, zap.NewNop())
	orch, snaps := startOrchestrator(t, deps)

	id, err := orch.StartRecording(context.Background())
	if err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}

	ready := waitFor(t, snaps, "ready phase", func(s entities.SessionSnapshot) bool {
		return s.ID == id && s.Phase == entities.PhaseReady
	})
	if len(ready.Translations) != 1 {
		t.Fatalf("Expected the unknown code to be dropped, got %d translations", len(ready.Translations))
	}
	if ready.Translations[entities.LanguageEnglish] != "Hello" {
		t.Error("Expected the supported translation to survive")
	}

	final := waitFor(t, snaps, "single audio artifact", func(s entities.SessionSnapshot) bool {
		return s.ID == id && len(s.AudioArtifacts) == 1
	})
	if _, ok := final.AudioArtifacts[entities.LanguageEnglish]; !ok {
		t.Error("Expected an artifact only for the translated language")
	}
}

func TestTranscriptionFailure(t *testing.T) {
	deps := defaultDeps(t)
	deps.SpeechToText = &backend.FakeSpeechToText{Err: errors.New("stt backend down")}
	orch, snaps := startOrchestrator(t, deps)

	id, err := orch.StartRecording(context.Background())
	if err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}

	failed := waitFor(t, snaps, "failed phase", func(s entities.SessionSnapshot) bool {
		if s.ID == id && s.Phase == entities.PhaseTranslating {
			t.Error("Session must not reach translating after transcription failure")
		}
		return s.ID == id && s.Phase == entities.PhaseFailed
	})
	if failed.LastError == nil {
		t.Fatal("Expected last error on failed session")
	}
	if failed.LastError.Kind != entities.ErrorKindService {
		t.Errorf("Expected kind %s, got %s", entities.ErrorKindService, failed.LastError.Kind)
	}
	if failed.LastError.Stage != entities.StageTranscribe {
		t.Errorf("Expected stage %s, got %s", entities.StageTranscribe, failed.LastError.Stage)
	}
	if len(failed.Translations) != 0 || len(failed.AudioArtifacts) != 0 {
		t.Error("Failed session must carry no translations or artifacts")
	}
}

func TestTranscriptionTimeoutKind(t *testing.T) {
	deps := defaultDeps(t)
	deps.SpeechToText = &backend.FakeSpeechToText{
		Err: entities.NewPipelineError(entities.ErrorKindTimeout, entities.StageTranscribe,
			errors.New("deadline exceeded")),
	}
	orch, snaps := startOrchestrator(t, deps)

	id, err := orch.StartRecording(context.Background())
	if err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}

	failed := waitFor(t, snaps, "failed phase", func(s entities.SessionSnapshot) bool {
		return s.ID == id && s.Phase == entities.PhaseFailed
	})
	if failed.LastError == nil || failed.LastError.Kind != entities.ErrorKindTimeout {
		t.Errorf("Expected timeout kind to survive into the session error, got %+v", failed.LastError)
	}
}

func TestCaptureFailure(t *testing.T) {
	deps := defaultDeps(t)
	deps.Recorder = &stubRecorder{err: errors.New("device busy")}
	orch, snaps := startOrchestrator(t, deps)

	id, err := orch.StartRecording(context.Background())
	if err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}

	failed := waitFor(t, snaps, "failed phase", func(s entities.SessionSnapshot) bool {
		return s.ID == id && s.Phase == entities.PhaseFailed
	})
	if failed.LastError == nil || failed.LastError.Kind != entities.ErrorKindCapture {
		t.Errorf("Expected capture kind, got %+v", failed.LastError)
	}
}

func TestPerLanguageSynthesisFailure(t *testing.T) {
	deps := defaultDeps(t)
	tts := backend.NewFakeTextToSpeech([]byte("RIFFaudio"), zap.NewNop())
	tts.FailFor = map[string]error{
		testTranslations[entities.LanguageJapanese]: errors.New("voice unavailable"),
	}
	deps.TextToSpeech = tts
	orch, snaps := startOrchestrator(t, deps)

	id, err := orch.StartRecording(context.Background())
	if err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}

	final := waitFor(t, snaps, "three audio artifacts", func(s entities.SessionSnapshot) bool {
		return s.ID == id && len(s.AudioArtifacts) == 3
	})
	if final.Phase != entities.PhaseFailed && final.Phase != entities.PhaseReady {
		t.Fatalf("Unexpected phase %s", final.Phase)
	}
	if final.Phase == entities.PhaseFailed {
		t.Error("One failed synthesis must not fail the session")
	}
	if _, ok := final.AudioArtifacts[entities.LanguageJapanese]; ok {
		t.Error("Expected no artifact for the failed language")
	}
	if final.Translations[entities.LanguageJapanese] == "" {
		t.Error("Translation must survive a failed synthesis")
	}

	err = orch.Play(context.Background(), entities.LanguageJapanese)
	if err == nil {
		t.Fatal("Expected play of missing audio to fail")
	}
	if kind := entities.KindOf(err); kind != entities.ErrorKindNotFound {
		t.Errorf("Expected kind %s, got %s", entities.ErrorKindNotFound, kind)
	}
}

func TestStaleResultsDropped(t *testing.T) {
	deps := defaultDeps(t)
	gate := make(chan struct{})
	tts := backend.NewFakeTextToSpeech([]byte("RIFFaudio"), zap.NewNop())
	tts.Gate = gate
	deps.TextToSpeech = tts
	orch, snaps := startOrchestrator(t, deps)

	firstID, err := orch.StartRecording(context.Background())
	if err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}
	waitFor(t, snaps, "first session ready", func(s entities.SessionSnapshot) bool {
		return s.ID == firstID && s.Phase == entities.PhaseReady
	})

	// Supersede while every synthesis for the first session is still gated.
	secondID, err := orch.StartRecording(context.Background())
	if err != nil {
		t.Fatalf("Second StartRecording failed: %v", err)
	}
	if secondID == firstID {
		t.Fatal("Expected a fresh session ID")
	}
	close(gate)

	final := waitFor(t, snaps, "second session fully prefetched", func(s entities.SessionSnapshot) bool {
		if s.ID == firstID && len(s.AudioArtifacts) > 0 {
			t.Error("Superseded session must not receive late artifacts")
		}
		return s.ID == secondID && len(s.AudioArtifacts) == 4
	})
	for _, path := range final.AudioArtifacts {
		if strings.Contains(path, firstID) {
			t.Errorf("Artifact %s leaked from the superseded session", path)
		}
	}
}

func TestCancelRecording(t *testing.T) {
	deps := defaultDeps(t)
	deps.Recorder = &stubRecorder{hang: true}
	orch, snaps := startOrchestrator(t, deps)

	id, err := orch.StartRecording(context.Background())
	if err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}
	waitFor(t, snaps, "recording phase", func(s entities.SessionSnapshot) bool {
		return s.ID == id && s.Phase == entities.PhaseRecording
	})

	orch.CancelRecording()
	idle := waitFor(t, snaps, "idle replacement session", func(s entities.SessionSnapshot) bool {
		return s.Phase == entities.PhaseIdle
	})
	if idle.ID == id {
		t.Error("Cancel must allocate a fresh session")
	}

	// A second cancel outside the recording phase is a no-op.
	orch.CancelRecording()
	after := orch.Snapshot()
	if after.ID != idle.ID {
		t.Error("Cancel outside recording must not replace the session")
	}
}

func TestPlayRepeatable(t *testing.T) {
	deps := defaultDeps(t)
	player := &stubPlayer{}
	deps.Player = player
	orch, snaps := startOrchestrator(t, deps)

	id, err := orch.StartRecording(context.Background())
	if err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}
	waitFor(t, snaps, "all audio artifacts", func(s entities.SessionSnapshot) bool {
		return s.ID == id && len(s.AudioArtifacts) == 4
	})

	for i := 0; i < 2; i++ {
		if err := orch.Play(context.Background(), entities.LanguageVietnamese); err != nil {
			t.Fatalf("Play %d failed: %v", i+1, err)
		}
	}
	paths := player.played()
	if len(paths) != 2 {
		t.Fatalf("Expected 2 plays, got %d", len(paths))
	}
	if paths[0] != paths[1] {
		t.Error("Repeated play must reuse the prefetched artifact")
	}
}

func TestPlayWithoutAudio(t *testing.T) {
	orch, _ := startOrchestrator(t, defaultDeps(t))

	err := orch.Play(context.Background(), entities.LanguageEnglish)
	if err == nil {
		t.Fatal("Expected error for idle session")
	}
	if kind := entities.KindOf(err); kind != entities.ErrorKindNotFound {
		t.Errorf("Expected kind %s, got %s", entities.ErrorKindNotFound, kind)
	}
}

func TestPlaybackFailureKeepsSession(t *testing.T) {
	deps := defaultDeps(t)
	player := &stubPlayer{err: entities.NewPipelineError(entities.ErrorKindPlayback, entities.StagePlay,
		errors.New("sink gone"))}
	deps.Player = player
	orch, snaps := startOrchestrator(t, deps)

	id, err := orch.StartRecording(context.Background())
	if err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}
	waitFor(t, snaps, "all audio artifacts", func(s entities.SessionSnapshot) bool {
		return s.ID == id && len(s.AudioArtifacts) == 4
	})

	if err := orch.Play(context.Background(), entities.LanguageEnglish); err == nil {
		t.Fatal("Expected playback error")
	}
	after := orch.Snapshot()
	if after.Phase != entities.PhaseReady {
		t.Errorf("Playback failure must not change the session phase, got %s", after.Phase)
	}
	if after.LastError != nil {
		t.Error("Playback failure must not be recorded on the session")
	}
}

func TestCloseRejectsWork(t *testing.T) {
	orch, _ := startOrchestrator(t, defaultDeps(t))
	orch.Close()

	if _, err := orch.StartRecording(context.Background()); err == nil {
		t.Error("Expected StartRecording to fail after close")
	}
	if err := orch.Play(context.Background(), entities.LanguageEnglish); err == nil {
		t.Error("Expected Play to fail after close")
	}
}

// The commands channel is buffered, so a post-close submit can still win its
// select; callers waiting on a reply must not wedge when the loop is gone.
func TestCloseReleasesWaiters(t *testing.T) {
	orch, _ := startOrchestrator(t, defaultDeps(t))
	orch.Close()

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			orch.Snapshot()
			if err := orch.Play(context.Background(), entities.LanguageEnglish); err == nil {
				t.Error("Expected Play to fail after close")
			}
			if _, err := orch.StartRecording(context.Background()); err == nil {
				t.Error("Expected StartRecording to fail after close")
			}
		}()
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("Calls hung after close")
	}
}
