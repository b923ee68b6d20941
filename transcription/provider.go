// Package transcription defines the transcription provider interface and
// common types for interacting with speech-to-text backends. Every backend
// maps its transport failures onto the shared error taxonomy so the
// dispatcher can decide what is retryable without knowing the backend.
package transcription

import (
	"context"

	"github.com/kbukum/crosscribe/provider"
)

// Provider is the interface that transcription backends must implement.
type Provider interface {
	provider.Provider // embeds Name() and IsAvailable()

	// Transcribe sends an audio clip for transcription and returns the result.
	Transcribe(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error)
}

// NewRegistry creates a new provider registry for transcription providers.
func NewRegistry() *provider.Registry[Provider] {
	return provider.NewRegistry[Provider]()
}
