package audio

import (
	"context"

	"github.com/kbukum/crosscribe/errors"
	"github.com/kbukum/crosscribe/process"
)

// Normalization target: diarization and transcription sidecars expect
// 16 kHz mono 16-bit PCM wav.
const (
	normalizedSampleRate = "16000"
	normalizedChannels   = "1"
)

// Normalize converts an audio file to 16 kHz mono 16-bit wav at outPath and
// returns the probed metadata of the converted file.
func Normalize(ctx context.Context, inPath, outPath string) (*Recording, error) {
	result, err := process.Run(ctx, process.Command{
		Binary: "ffmpeg",
		Args: []string{
			"-y",
			"-i", inPath,
			"-ar", normalizedSampleRate,
			"-ac", normalizedChannels,
			"-sample_fmt", "s16",
			outPath,
		},
	})
	if err != nil {
		stderr := ""
		if result != nil {
			stderr = truncate(string(result.Stderr), 300)
		}
		return nil, errors.ExternalServiceError("ffmpeg", err).
			WithDetail("operation", "normalize").
			WithDetail("stderr", stderr)
	}

	return Probe(ctx, outPath)
}
