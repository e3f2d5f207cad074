// SPDX-License-Identifier: EPL-2.0

// Package beepengine implements engine.Engine on top of gopxl/beep.
//
// Every open stream becomes one voice in a shared beep.Mixer:
//
//	audio.Source -> audio.Resampler (engine rate, speed, pitch)
//	             -> effect chain (by priority, highest first)
//	             -> effects.Pan -> effects.Volume -> beep.Ctrl
//
// The mixer is played by a Sink. Speaker sends it to the sound card through
// gopxl/beep/speaker; Render pulls it on demand and can write it to a WAV
// file, which is what tests and offline rendering use.
package beepengine
