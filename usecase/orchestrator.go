package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/leaudio/leaudio/audio"
	"github.com/leaudio/leaudio/domain/entities"
	"github.com/leaudio/leaudio/domain/repositories"
)

// Recorder captures audio into a session-scoped artifact, delivering exactly
// one completion off the caller's goroutine
type Recorder interface {
	Start(ctx context.Context, sessionID string, duration time.Duration) <-chan audio.Completion
}

// Player renders an audio artifact, blocking until playback finishes
type Player interface {
	Play(ctx context.Context, path string) error
}

// Subscriber receives a session snapshot after every applied mutation
type Subscriber func(entities.SessionSnapshot)

// Deps bundles the orchestrator's collaborators
type Deps struct {
	SpeechToText repositories.SpeechToText
	Translator   repositories.Translator
	TextToSpeech repositories.TextToSpeech
	Recorder     Recorder
	Player       Player

	WorkDir        string
	RecordDuration time.Duration
}

// Orchestrator drives the recording-to-playback pipeline: capture, STT,
// translation fan-out, per-language TTS prefetch. All session mutations
// funnel through a single writer goroutine; background completions carry the
// session ID they worked for, and results for a superseded session are
// dropped rather than cancelled.
type Orchestrator struct {
	stt        repositories.SpeechToText
	translator repositories.Translator
	tts        repositories.TextToSpeech
	recorder   Recorder
	player     Player

	workDir        string
	recordDuration time.Duration
	logger         *zap.Logger

	commands  chan func()
	done      chan struct{}
	closeOnce sync.Once

	// Owned by the writer goroutine.
	session     *entities.Session
	inflight    map[entities.Language]bool
	subscribers []Subscriber
}

func NewOrchestrator(deps Deps, logger *zap.Logger) *Orchestrator {
	o := &Orchestrator{
		stt:            deps.SpeechToText,
		translator:     deps.Translator,
		tts:            deps.TextToSpeech,
		recorder:       deps.Recorder,
		player:         deps.Player,
		workDir:        deps.WorkDir,
		recordDuration: deps.RecordDuration,
		logger:         logger,
		commands:       make(chan func(), 64),
		done:           make(chan struct{}),
		session:        entities.NewSession(),
		inflight:       make(map[entities.Language]bool),
	}
	go o.loop()
	return o
}

func (o *Orchestrator) loop() {
	for {
		select {
		case fn := <-o.commands:
			fn()
		case <-o.done:
			return
		}
	}
}

func (o *Orchestrator) submit(fn func()) bool {
	select {
	case o.commands <- fn:
		return true
	case <-o.done:
		return false
	}
}

// await receives a reply without wedging on shutdown. The commands channel is
// buffered, so submit can succeed after Close even though the loop will never
// run the command; waiters must bail out on done as well. A reply that landed
// just before shutdown is still honored.
func await[T any](o *Orchestrator, reply <-chan T) (T, bool) {
	select {
	case v := <-reply:
		return v, true
	case <-o.done:
		select {
		case v := <-reply:
			return v, true
		default:
			var zero T
			return zero, false
		}
	}
}

// Close stops the writer loop. In-flight background calls finish but their
// results are discarded.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() { close(o.done) })
}

// Subscribe registers a snapshot listener. Listeners run on the writer
// goroutine and must not block.
func (o *Orchestrator) Subscribe(fn Subscriber) {
	o.submit(func() {
		o.subscribers = append(o.subscribers, fn)
	})
}

// Snapshot returns a copy of the active session's state
func (o *Orchestrator) Snapshot() entities.SessionSnapshot {
	reply := make(chan entities.SessionSnapshot, 1)
	if !o.submit(func() { reply <- o.session.Snapshot() }) {
		return entities.SessionSnapshot{}
	}
	snap, _ := await(o, reply)
	return snap
}

// StartRecording allocates a fresh session, superseding the previous one
// from any phase, and starts capture. It returns the new session's ID.
func (o *Orchestrator) StartRecording(ctx context.Context) (string, error) {
	reply := make(chan string, 1)
	ok := o.submit(func() {
		sess := entities.NewSession()
		if err := sess.TransitionTo(entities.PhaseRecording); err != nil {
			o.logger.Error("Failed to start session", zap.Error(err))
			reply <- ""
			return
		}
		o.session = sess
		o.inflight = make(map[entities.Language]bool)
		o.logger.Info("Recording started", zap.String("sessionID", sess.ID))
		o.notify()

		ch := o.recorder.Start(ctx, sess.ID, o.recordDuration)
		go func() {
			completion := <-ch
			o.submit(func() { o.handleRecording(ctx, sess.ID, completion) })
		}()
		reply <- sess.ID
	})
	if !ok {
		return "", fmt.Errorf("orchestrator is closed")
	}
	id, ok := await(o, reply)
	if !ok {
		return "", fmt.Errorf("orchestrator is closed")
	}
	if id == "" {
		return "", fmt.Errorf("failed to start recording session")
	}
	return id, nil
}

// CancelRecording supersedes a session still in the Recording phase. The
// underlying capture is not interrupted; its late completion is discarded by
// the staleness guard.
func (o *Orchestrator) CancelRecording() {
	o.submit(func() {
		if o.session.Phase != entities.PhaseRecording {
			return
		}
		o.logger.Info("Recording cancelled", zap.String("sessionID", o.session.ID))
		o.session = entities.NewSession()
		o.inflight = make(map[entities.Language]bool)
		o.notify()
	})
}

// Play renders the synthesized audio for lang from the active session.
// Missing audio reports not-found; playback failures never touch session
// state.
func (o *Orchestrator) Play(ctx context.Context, lang entities.Language) error {
	reply := make(chan string, 1)
	if !o.submit(func() { reply <- o.session.AudioArtifacts[lang] }) {
		return fmt.Errorf("orchestrator is closed")
	}
	path, ok := await(o, reply)
	if !ok {
		return fmt.Errorf("orchestrator is closed")
	}
	if path == "" {
		return entities.NewPipelineError(entities.ErrorKindNotFound, entities.StagePlay,
			fmt.Errorf("no audio for %s", lang))
	}
	return o.player.Play(ctx, path)
}

// active reports whether sessionID identifies the session accepting
// mutations. Callers run on the writer goroutine.
func (o *Orchestrator) active(sessionID string) bool {
	return o.session.ID == sessionID
}

func (o *Orchestrator) handleRecording(ctx context.Context, sessionID string, c audio.Completion) {
	if !o.active(sessionID) {
		o.logger.Debug("Dropping stale recording completion", zap.String("sessionID", sessionID))
		return
	}
	if c.Err != nil {
		o.fail(entities.StageRecord, entities.ErrorKindCapture, c.Err)
		return
	}

	if err := o.session.TransitionTo(entities.PhaseTranscribing); err != nil {
		o.logger.Error("Phase transition rejected", zap.Error(err))
		return
	}
	o.logger.Info("Recording complete, transcribing",
		zap.String("sessionID", sessionID),
		zap.String("artifact", c.Path))
	o.notify()

	go func() {
		text, err := o.stt.Transcribe(ctx, c.Path)
		o.submit(func() { o.handleTranscript(ctx, sessionID, text, err) })
	}()
}

func (o *Orchestrator) handleTranscript(ctx context.Context, sessionID, text string, err error) {
	if !o.active(sessionID) {
		o.logger.Debug("Dropping stale transcript", zap.String("sessionID", sessionID))
		return
	}
	if err != nil {
		o.fail(entities.StageTranscribe, entities.ErrorKindService, err)
		return
	}

	o.session.SetTranscript(text)
	if err := o.session.TransitionTo(entities.PhaseTranslating); err != nil {
		o.logger.Error("Phase transition rejected", zap.Error(err))
		return
	}
	o.logger.Info("Transcription complete, translating",
		zap.String("sessionID", sessionID),
		zap.Int("transcriptLen", len(text)))
	o.notify()

	go func() {
		result, err := o.translator.Translate(ctx, text)
		o.submit(func() { o.handleTranslations(ctx, sessionID, result, err) })
	}()
}

func (o *Orchestrator) handleTranslations(ctx context.Context, sessionID string, result map[entities.Language]string, err error) {
	if !o.active(sessionID) {
		o.logger.Debug("Dropping stale translations", zap.String("sessionID", sessionID))
		return
	}
	if err != nil {
		o.fail(entities.StageTranslate, entities.ErrorKindService, err)
		return
	}

	if err := o.session.TransitionTo(entities.PhaseSynthesizing); err != nil {
		o.logger.Error("Phase transition rejected", zap.Error(err))
		return
	}
	for lang, text := range result {
		if !lang.Supported() {
			o.logger.Debug("Ignoring unknown language code", zap.String("code", string(lang)))
			continue
		}
		o.session.SetTranslation(lang, text)
	}
	o.notify()

	// Fan out one fetch per translated language. The session becomes Ready
	// now; artifacts land incrementally afterward.
	for _, lang := range entities.SupportedLanguages() {
		text, ok := o.session.Translations[lang]
		if !ok || o.inflight[lang] {
			continue
		}
		o.inflight[lang] = true
		go o.fetchAudio(ctx, sessionID, lang, text)
	}

	if err := o.session.TransitionTo(entities.PhaseReady); err != nil {
		o.logger.Error("Phase transition rejected", zap.Error(err))
		return
	}
	o.logger.Info("Translations ready, prefetching audio",
		zap.String("sessionID", sessionID),
		zap.Int("languages", len(o.session.Translations)))
	o.notify()
}

func (o *Orchestrator) fetchAudio(ctx context.Context, sessionID string, lang entities.Language, text string) {
	data, err := o.tts.Synthesize(ctx, text)
	var path string
	if err == nil {
		dir := filepath.Join(o.workDir, sessionID)
		if mkErr := os.MkdirAll(dir, 0755); mkErr != nil {
			err = mkErr
		} else {
			path = filepath.Join(dir, "tts_"+string(lang)+".wav")
			err = os.WriteFile(path, data, 0644)
		}
	}
	o.submit(func() { o.handleAudio(sessionID, lang, path, err) })
}

func (o *Orchestrator) handleAudio(sessionID string, lang entities.Language, path string, err error) {
	if !o.active(sessionID) {
		o.logger.Debug("Dropping stale synthesis result",
			zap.String("sessionID", sessionID),
			zap.String("language", string(lang)))
		return
	}
	delete(o.inflight, lang)
	if err != nil {
		// Per-language failure domain: the translation stays, siblings are
		// unaffected, the session does not fail.
		o.logger.Warn("Audio prefetch failed",
			zap.String("sessionID", sessionID),
			zap.String("language", string(lang)),
			zap.Error(err))
		return
	}

	o.session.SetArtifact(lang, path)
	o.logger.Info("Audio artifact ready",
		zap.String("sessionID", sessionID),
		zap.String("language", string(lang)))
	o.notify()
}

func (o *Orchestrator) fail(stage string, fallback entities.ErrorKind, err error) {
	perr := entities.AsPipelineError(err, fallback, stage)
	if ferr := o.session.Fail(perr); ferr != nil {
		o.logger.Error("Cannot fail session", zap.Error(ferr))
		return
	}
	o.logger.Error("Pipeline stage failed",
		zap.String("sessionID", o.session.ID),
		zap.String("stage", perr.Stage),
		zap.String("kind", string(perr.Kind)),
		zap.Error(perr.Err))
	o.notify()
}

func (o *Orchestrator) notify() {
	snap := o.session.Snapshot()
	for _, fn := range o.subscribers {
		fn(snap)
	}
}
