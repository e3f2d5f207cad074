// SPDX-License-Identifier: EPL-2.0

// Package player has the concrete players: FilePlayer for a single decoded
// source and MixPlayer for several sources summed into one stream.
//
// Both implement playback.Controller with the same transition policy:
// Play while Playing fails with playback.ErrInvalidOperation, Play(nil)
// while Paused resumes, and Play with a new source while Paused stops the
// current stream and starts the new one.
package player
