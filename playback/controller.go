// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"github.com/ik5/audfx/engine"
	"github.com/ik5/audfx/fx"
)

// Controller is the lifecycle every player implements. Play accepts
// whatever source kinds the concrete player documents; nil means "resume or
// replay" where the player supports it.
type Controller interface {
	Play(source any) error
	Stop() error
	Pause() error
	Resume() error

	GetHandler() engine.StreamHandle
	IsPlaying() bool
	State() State

	GetFXHandler(t fx.Type) fx.Handle
	SetFXHandler(t fx.Type, h fx.Handle) error

	SetPreset(p Preset)
	OnPlaybackEnded(fn func()) (cancel func())
}

// EngineContext is the part of an engine Core depends on.
type EngineContext interface {
	engine.Lifecycle
	engine.Configurator
}
