// Package audio wraps the external ffmpeg/ffprobe tools behind the small
// surface the pipeline needs: probing recording metadata, normalizing
// assembled uploads to 16 kHz mono wav, and cutting per-speaker clips.
package audio

import (
	"os"
)

// Recording describes an audio file handed to the pipeline. It is immutable
// for the lifetime of one comparison run.
type Recording struct {
	// Path is the local filesystem path to the audio file.
	Path string `json:"path"`
	// Duration is the audio duration in seconds.
	Duration float64 `json:"duration"`
	// SampleRate is the sample rate in Hz.
	SampleRate int `json:"sample_rate"`
	// Channels is the channel count.
	Channels int `json:"channels"`
	// Format is the container format reported by ffprobe (e.g. "wav").
	Format string `json:"format"`
}

// Clip is a temporary audio artifact covering one segment of a Recording.
// The caller owns the clip and must Close it once every backend has consumed
// it; Close removes the underlying file.
type Clip struct {
	Path string
}

// Close removes the clip file. Safe to call more than once.
func (c *Clip) Close() error {
	if c == nil || c.Path == "" {
		return nil
	}
	err := os.Remove(c.Path)
	c.Path = ""
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
