// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"github.com/ik5/audfx/audio"
	"github.com/ik5/audfx/fx"
)

// StreamHandle identifies a stream (voice) owned by the engine.
type StreamHandle int

// NoStream is returned by players that have never started a stream.
const NoStream StreamHandle = 0

// Param names an engine-wide configuration value. All values are in
// milliseconds.
type Param int

const (
	DeviceBufferLength Param = iota + 1
	DevicePeriod
	UpdatePeriod
	PlaybackBufferLength
)

func (p Param) String() string {
	switch p {
	case DeviceBufferLength:
		return "device-buffer"
	case DevicePeriod:
		return "device-period"
	case UpdatePeriod:
		return "update-period"
	case PlaybackBufferLength:
		return "playback-buffer"
	default:
		return "unknown"
	}
}

// Attribute is a per-stream sound attribute.
type Attribute int

const (
	AttrVolume Attribute = iota + 1
	AttrPanning
	AttrSpeed
	AttrPitch
)

// Lifecycle brings the engine up. EnsureInitialized is idempotent and fails
// with ErrEngineUnavailable when no engine can be started.
type Lifecycle interface {
	EnsureInitialized() error
}

// Configurator writes engine-wide configuration. Out of range values are the
// engine's business; there is no error path here.
type Configurator interface {
	Configure(p Param, value int)
}

// EffectHost creates and releases effect instances on a stream.
type EffectHost interface {
	CreateEffect(s StreamHandle, t fx.Type, priority int) (fx.Handle, error)
	RemoveEffect(s StreamHandle, h fx.Handle) error
}

// StreamHost owns streams. onEnd passed to OpenStream is called at most once,
// only when the source runs out on its own, and possibly from a goroutine of
// the engine. A non-nil argument carries the source error that ended it.
// CloseStream never triggers onEnd.
type StreamHost interface {
	OpenStream(src audio.Source, onEnd func(err error)) (StreamHandle, error)
	StartStream(s StreamHandle) error
	PauseStream(s StreamHandle) error
	ResumeStream(s StreamHandle) error
	CloseStream(s StreamHandle) error
	SetAttribute(s StreamHandle, a Attribute, v float64) error
}

// Engine is everything a concrete player needs.
type Engine interface {
	Lifecycle
	Configurator
	EffectHost
	StreamHost
}
