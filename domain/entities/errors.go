package entities

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a pipeline failure
type ErrorKind string

const (
	ErrorKindCapture  ErrorKind = "capture_error"
	ErrorKindUpload   ErrorKind = "upload_error"
	ErrorKindService  ErrorKind = "service_error"
	ErrorKindTimeout  ErrorKind = "timeout_error"
	ErrorKindPlayback ErrorKind = "playback_error"
	ErrorKindNotFound ErrorKind = "not_found"
)

// Pipeline stage names used in error reports and logs
const (
	StageRecord     = "record"
	StageTranscribe = "transcribe"
	StageTranslate  = "translate"
	StageSynthesize = "synthesize"
	StagePlay       = "play"
	StageChat       = "chat"
)

// PipelineError is a classified failure from one pipeline stage
type PipelineError struct {
	Kind  ErrorKind
	Stage string
	Err   error
}

func NewPipelineError(kind ErrorKind, stage string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Stage: stage, Err: err}
}

func (e *PipelineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// KindOf extracts the classification from err, or "" when err carries none
func KindOf(err error) ErrorKind {
	var perr *PipelineError
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return ""
}

// AsPipelineError returns err's classification, wrapping unclassified errors
// with the given fallback kind and stage
func AsPipelineError(err error, fallback ErrorKind, stage string) *PipelineError {
	var perr *PipelineError
	if errors.As(err, &perr) {
		return perr
	}
	return NewPipelineError(fallback, stage, err)
}

// ErrorInfo is the read-side projection of a PipelineError
type ErrorInfo struct {
	Kind    ErrorKind `json:"kind"`
	Stage   string    `json:"stage"`
	Message string    `json:"message"`
}

func (e *PipelineError) Info() *ErrorInfo {
	if e == nil {
		return nil
	}
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return &ErrorInfo{Kind: e.Kind, Stage: e.Stage, Message: msg}
}
