// SPDX-License-Identifier: EPL-2.0

// Package playback defines the lifecycle every player implements and the
// state those players share.
//
// A concrete player embeds a *Core, which owns the sound attributes, the
// effect handler registry, the playback state and the ended listeners, and
// implements Play, Stop, Pause and Resume on top of it:
//
//	type Player struct {
//	    *playback.Core
//	    eng engine.Engine
//	}
//
//	func (p *Player) Pause() error {
//	    return p.Suspend(p.eng.PauseStream)
//	}
//
// Core checks every transition against the state machine
//
//	Stopped --Play--> Playing --Pause--> Paused --Resume--> Playing
//	Playing|Paused --Stop--> Stopped
//	Playing|Paused --natural end--> Stopped (listeners notified)
//
// and returns ErrInvalidOperation for anything else, leaving the state as it
// was.
//
// Latency presets are engine-wide. SetPreset on one player reconfigures the
// engine for every player sharing it.
package playback
