// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"fmt"
	"strings"

	"github.com/ik5/audfx/engine"
)

// Preset is a named latency trade-off applied to the whole engine.
type Preset int

const (
	// Default is good for simple playback.
	Default Preset = iota
	// LowLatency suits interactive effects.
	LowLatency
	// Realtime is the lowest latency available; it can be unstable and
	// costs more CPU.
	Realtime
)

// PresetSettings are the engine values of a preset, in milliseconds.
type PresetSettings struct {
	DeviceBuffer   int
	DevicePeriod   int
	UpdatePeriod   int
	PlaybackBuffer int
}

var presets = [...]struct {
	name     string
	settings PresetSettings
}{
	Default:    {"default", PresetSettings{200, 25, 25, 400}},
	LowLatency: {"lowlatency", PresetSettings{50, 5, 5, 100}},
	Realtime:   {"realtime", PresetSettings{10, 3, 3, 20}},
}

// Settings returns the values of p, or false for an undefined preset.
func (p Preset) Settings() (PresetSettings, bool) {
	if p < 0 || int(p) >= len(presets) {
		return PresetSettings{}, false
	}
	return presets[p].settings, true
}

func (p Preset) String() string {
	if p < 0 || int(p) >= len(presets) {
		return fmt.Sprintf("Preset(%d)", int(p))
	}
	return presets[p].name
}

// ParsePreset accepts the preset names case-insensitively; "low-latency" and
// "low_latency" are accepted too.
func ParsePreset(name string) (Preset, error) {
	key := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(name))
	for i, p := range presets {
		if p.name == key {
			return Preset(i), nil
		}
	}
	return Default, fmt.Errorf("unknown latency preset %q", name)
}

// ApplyPreset writes the four values of p to cfg in the order device buffer,
// device period, update period, playback buffer. Undefined presets are
// ignored.
func ApplyPreset(cfg engine.Configurator, p Preset) {
	s, ok := p.Settings()
	if !ok {
		return
	}

	cfg.Configure(engine.DeviceBufferLength, s.DeviceBuffer)
	cfg.Configure(engine.DevicePeriod, s.DevicePeriod)
	cfg.Configure(engine.UpdatePeriod, s.UpdatePeriod)
	cfg.Configure(engine.PlaybackBufferLength, s.PlaybackBuffer)
}
