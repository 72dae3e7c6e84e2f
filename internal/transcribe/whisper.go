// Package transcribe turns local audio artifacts into text transcripts.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const defaultTimeout = 2 * time.Minute

// ErrNotConfigured indicates no transcription credential is present.
// Callers treat it as "transcription disabled", not as a failure.
var ErrNotConfigured = errors.New("transcribe: not configured")

// TranscribeError wraps a failed transcription call.
type TranscribeError struct {
	Path string // Local audio path being transcribed
	Err  error  // Underlying error
}

func (e *TranscribeError) Error() string {
	return fmt.Sprintf("transcribe: %s: %v", e.Path, e.Err)
}

func (e *TranscribeError) Unwrap() error { return e.Err }

// Transcriber produces a text transcript from a local audio file.
type Transcriber interface {
	// Transcribe returns the transcript text for the audio at path.
	// Returns ErrNotConfigured when transcription is disabled.
	Transcribe(ctx context.Context, path string) (string, error)

	// Configured reports whether this transcriber can actually run.
	Configured() bool
}

// WhisperTranscriber implements Transcriber using the OpenAI Whisper API.
// An empty API key yields a disabled transcriber rather than an error, so
// the pipeline degrades to transcript-less records.
type WhisperTranscriber struct {
	client  *openai.Client
	timeout time.Duration
}

// NewWhisperTranscriber creates a Whisper-backed transcriber.
// With an empty apiKey the transcriber is disabled.
func NewWhisperTranscriber(apiKey string, timeout time.Duration) *WhisperTranscriber {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	t := &WhisperTranscriber{timeout: timeout}
	if apiKey != "" {
		t.client = openai.NewClient(apiKey)
	}
	return t
}

// Configured reports whether an API key was provided.
func (t *WhisperTranscriber) Configured() bool {
	return t.client != nil
}

// Transcribe sends the audio file to Whisper and returns the plain text
// transcript. Each call carries its own wall-clock timeout.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	if t.client == nil {
		return "", ErrNotConfigured
	}

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.client.CreateTranscription(callCtx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: path,
		Format:   openai.AudioResponseFormatText,
	})
	if err != nil {
		return "", &TranscribeError{Path: path, Err: err}
	}

	return resp.Text, nil
}
