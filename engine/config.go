// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"os"
	"strconv"
	"strings"
)

// Output selects where an engine sends its mix.
type Output string

const (
	OutputSpeaker Output = "speaker"
	OutputNull    Output = "null"
)

// Config holds the settings a program starts its engine with.
type Config struct {
	SampleRate int
	// Preset is a latency preset name, resolved by the playback package.
	Preset string
	Volume float64
	Output Output
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		SampleRate: 44100,
		Preset:     "default",
		Volume:     1.0,
		Output:     OutputSpeaker,
	}
}

// LoadConfig reads AUDFX_SAMPLE_RATE, AUDFX_PRESET, AUDFX_VOLUME (0-100) and
// AUDFX_OUTPUT on top of DefaultConfig. Malformed values are ignored.
func LoadConfig() Config {
	cfg := DefaultConfig()

	if rate := os.Getenv("AUDFX_SAMPLE_RATE"); rate != "" {
		if val, err := strconv.Atoi(rate); err == nil && val > 0 {
			cfg.SampleRate = val
		}
	}

	if preset := os.Getenv("AUDFX_PRESET"); preset != "" {
		cfg.Preset = strings.ToLower(preset)
	}

	if volume := os.Getenv("AUDFX_VOLUME"); volume != "" {
		if val, err := strconv.Atoi(volume); err == nil {
			cfg.Volume = min(max(float64(val)/100.0, 0), 1)
		}
	}

	switch out := Output(strings.ToLower(os.Getenv("AUDFX_OUTPUT"))); out {
	case OutputSpeaker, OutputNull:
		cfg.Output = out
	}

	return cfg
}
