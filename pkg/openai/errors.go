package openai

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned when the client is configured without a key.
var ErrMissingAPIKey = errors.New("openai: API key is required")

// TranscriptionError marks a failure of the speech-to-text call. Callers
// treat it as "could not transcribe", distinct from an empty transcript.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}

// IsTranscriptionError reports whether err is a transcription failure.
func IsTranscriptionError(err error) bool {
	var te *TranscriptionError
	return errors.As(err, &te)
}
