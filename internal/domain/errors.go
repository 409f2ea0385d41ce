package domain

import (
	"errors"
	"fmt"
)

// Stage identifies one step of the pipeline.
type Stage string

const (
	StageSTT        Stage = "stt"
	StageGeneration Stage = "generation"
	StageTTS        Stage = "tts"
)

var (
	ErrUnknownLanguage = errors.New("unknown language")
	ErrEmptyAudio      = errors.New("empty audio")
	ErrEmptyResponse   = errors.New("empty response")
)

// StageError is the single failure type returned by an external adapter.
type StageError struct {
	Stage Stage
	Err   error
}

func NewStageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

func (e *StageError) Error() string {
	switch e.Stage {
	case StageSTT:
		return fmt.Sprintf("STT Error: %v", e.Err)
	case StageTTS:
		return fmt.Sprintf("TTS Error: %v", e.Err)
	case StageGeneration:
		return fmt.Sprintf("Error generating response: %v", e.Err)
	default:
		return fmt.Sprintf("%s error: %v", e.Stage, e.Err)
	}
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the stage of a StageError anywhere in err's chain.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
