// SPDX-License-Identifier: EPL-2.0

// Package engine describes what the playback layer needs from an audio
// engine, without depending on any particular one.
//
// The capabilities are split so that each consumer asks only for what it
// uses: a latency preset needs a Configurator, an effect manager needs an
// EffectHost, and a concrete player needs the whole Engine.
//
// Configuration written through Configurator is shared by every stream of
// the engine. Applying it from one player changes the behaviour of all of
// them.
//
// See the beepengine subpackage for an implementation on top of
// github.com/gopxl/beep.
package engine
