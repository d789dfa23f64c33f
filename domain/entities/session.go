package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Phase represents the pipeline stage a session is in
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseRecording    Phase = "recording"
	PhaseTranscribing Phase = "transcribing"
	PhaseTranslating  Phase = "translating"
	PhaseSynthesizing Phase = "synthesizing_audio"
	PhaseReady        Phase = "ready"
	PhaseFailed       Phase = "failed"
)

// phaseRank orders the forward transitions; Failed sits outside the chain
var phaseRank = map[Phase]int{
	PhaseIdle:         0,
	PhaseRecording:    1,
	PhaseTranscribing: 2,
	PhaseTranslating:  3,
	PhaseSynthesizing: 4,
	PhaseReady:        5,
}

// Terminal reports whether no further phase transition is allowed
func (p Phase) Terminal() bool {
	return p == PhaseReady || p == PhaseFailed
}

// Session is the state of one recording-to-playback interaction. It is owned
// by the orchestrator's writer goroutine; everyone else reads Snapshot copies.
type Session struct {
	ID             string
	Phase          Phase
	Transcript     string
	Translations   map[Language]string
	AudioArtifacts map[Language]string
	LastError      *PipelineError
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewSession creates an idle session with a fresh identity
func NewSession() *Session {
	now := time.Now()
	return &Session{
		ID:             uuid.NewString(),
		Phase:          PhaseIdle,
		Translations:   make(map[Language]string),
		AudioArtifacts: make(map[Language]string),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// TransitionTo advances the phase. Forward moves must follow the
// Idle → Recording → Transcribing → Translating → SynthesizingAudio → Ready
// chain without skipping backward; Failed is reached via Fail instead.
// A successful transition clears LastError.
func (s *Session) TransitionTo(next Phase) error {
	if next == PhaseFailed {
		return fmt.Errorf("use Fail to transition to %s", PhaseFailed)
	}
	if s.Phase == PhaseFailed {
		return fmt.Errorf("session %s is failed", s.ID)
	}
	cur, ok := phaseRank[s.Phase]
	if !ok {
		return fmt.Errorf("invalid current phase %q", s.Phase)
	}
	target, ok := phaseRank[next]
	if !ok {
		return fmt.Errorf("invalid target phase %q", next)
	}
	if target <= cur {
		return fmt.Errorf("cannot transition from %s to %s", s.Phase, next)
	}
	s.Phase = next
	s.LastError = nil
	s.touch()
	return nil
}

// Fail moves a non-terminal session to Failed and records the error
func (s *Session) Fail(err *PipelineError) error {
	if s.Phase.Terminal() {
		return fmt.Errorf("cannot fail session in terminal phase %s", s.Phase)
	}
	s.Phase = PhaseFailed
	s.LastError = err
	s.touch()
	return nil
}

// SetTranscript records the STT result
func (s *Session) SetTranscript(text string) {
	s.Transcript = text
	s.touch()
}

// SetTranslation records one language's translated text
func (s *Session) SetTranslation(lang Language, text string) {
	s.Translations[lang] = text
	s.touch()
}

// SetArtifact records one language's synthesized audio path. Artifacts keep
// landing after the session reaches Ready.
func (s *Session) SetArtifact(lang Language, path string) {
	s.AudioArtifacts[lang] = path
	s.touch()
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}

// SessionSnapshot is an immutable copy handed to readers
type SessionSnapshot struct {
	ID             string              `json:"id"`
	Phase          Phase               `json:"phase"`
	Transcript     string              `json:"transcript,omitempty"`
	Translations   map[Language]string `json:"translations"`
	AudioArtifacts map[Language]string `json:"audio_artifacts"`
	LastError      *ErrorInfo          `json:"last_error,omitempty"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// Snapshot deep-copies the session for readers
func (s *Session) Snapshot() SessionSnapshot {
	translations := make(map[Language]string, len(s.Translations))
	for k, v := range s.Translations {
		translations[k] = v
	}
	artifacts := make(map[Language]string, len(s.AudioArtifacts))
	for k, v := range s.AudioArtifacts {
		artifacts[k] = v
	}
	return SessionSnapshot{
		ID:             s.ID,
		Phase:          s.Phase,
		Transcript:     s.Transcript,
		Translations:   translations,
		AudioArtifacts: artifacts,
		LastError:      s.LastError.Info(),
		UpdatedAt:      s.UpdatedAt,
	}
}
