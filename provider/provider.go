// Package provider defines the base interface and generic registry shared by
// the diarization and transcription backend packages. Backends register
// factories by name; the comparison service resolves configured instances at
// startup and fans work out across them at run time.
package provider

import "context"

// Provider is the base interface all backends must implement.
type Provider interface {
	// Name returns the provider's unique name.
	Name() string
	// IsAvailable checks if the provider is ready to handle requests.
	IsAvailable(ctx context.Context) bool
}

// Factory creates a provider instance from configuration.
type Factory[T Provider] func(cfg map[string]any) (T, error)
