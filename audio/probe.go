package audio

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/kbukum/crosscribe/errors"
	"github.com/kbukum/crosscribe/process"
)

// ffprobe JSON output types (only the fields we read).
type probeOutput struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Probe inspects an audio file with ffprobe and returns its Recording
// metadata.
func Probe(ctx context.Context, path string) (*Recording, error) {
	result, err := process.Run(ctx, process.Command{
		Binary: "ffprobe",
		Args: []string{
			"-v", "error",
			"-print_format", "json",
			"-show_format",
			"-show_streams",
			path,
		},
	})
	if err != nil {
		return nil, errors.ExternalServiceError("ffprobe", err).WithDetail("path", path)
	}

	var out probeOutput
	if err := json.Unmarshal(result.Stdout, &out); err != nil {
		return nil, errors.ExternalServiceError("ffprobe", err).WithDetail("path", path)
	}

	rec := &Recording{
		Path:   path,
		Format: firstFormatName(out.Format.FormatName),
	}
	if out.Format.Duration != "" {
		if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
			rec.Duration = d
		}
	}
	for _, s := range out.Streams {
		if s.CodecType != "audio" {
			continue
		}
		rec.Channels = s.Channels
		if sr, err := strconv.Atoi(s.SampleRate); err == nil {
			rec.SampleRate = sr
		}
		break
	}

	if rec.Duration <= 0 {
		return nil, errors.InvalidInput("recording", "could not determine audio duration").
			WithDetail("path", path)
	}

	return rec, nil
}

// ffprobe reports comma-separated aliases like "mov,mp4,m4a".
func firstFormatName(name string) string {
	if i := strings.IndexByte(name, ','); i >= 0 {
		return name[:i]
	}
	return name
}
