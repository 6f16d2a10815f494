package audio

import (
	"fmt"
	"log/slog"
	"sync"
)

// Format describes the sample rate and channel count of an audio stream.
type Format struct {
	SampleRate int
	Channels   int
}

// ModelFormat is the input format the acoustic front end expects: 16 kHz
// mono.
var ModelFormat = Format{SampleRate: ModelSampleRate, Channels: 1}

// FormatConverter converts incoming PCM fragments to the model format. It
// logs a warning on the first format mismatch and validates PCM data
// alignment. Create one per recording session; not designed for shared use
// across goroutines.
type FormatConverter struct {
	Source         Format
	warnedMismatch sync.Once
	warnedCorrupt  sync.Once
}

// Convert converts one fragment from the source format to [ModelFormat]. If
// the source already matches, the fragment is returned unchanged (zero
// allocation). Conversion order: channel downmix first, then resample, so
// stereo input is never resampled twice. Misaligned PCM (odd byte count for
// int16 data) is dropped with a one-time warning.
func (c *FormatConverter) Convert(pcm []byte) []byte {
	if len(pcm)%2 != 0 {
		c.warnedCorrupt.Do(func() {
			slog.Warn("audio format converter: odd byte count in PCM data, dropping fragment",
				"bytes", len(pcm),
				"sampleRate", c.Source.SampleRate,
				"channels", c.Source.Channels,
			)
		})
		return nil
	}

	// Fast path: source matches the model format.
	if c.Source == ModelFormat {
		return pcm
	}

	c.warnedMismatch.Do(func() {
		slog.Warn("audio format mismatch: converting",
			"from", formatString(c.Source),
			"to", formatString(ModelFormat),
		)
	})

	if c.Source.Channels == 2 {
		pcm = StereoToMono(pcm)
	}
	if c.Source.SampleRate != ModelSampleRate {
		pcm = ResampleMono16(pcm, c.Source.SampleRate, ModelSampleRate)
	}
	return pcm
}

func formatString(f Format) string {
	return fmt.Sprintf("%dHz/%dch", f.SampleRate, f.Channels)
}
