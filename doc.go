// SPDX-License-Identifier: EPL-2.0

// Package audfx plays audio through chains of DSP effects.
//
// The pieces live in subpackages:
//   - fx: effect types and the per-player registry of effect handles
//   - playback: the player lifecycle, latency presets and shared player state
//   - engine: the contract an audio engine fulfils, plus environment config
//   - engine/beepengine: an engine on gopxl/beep with speaker and WAV sinks
//   - player: FilePlayer and MixPlayer
//   - audio and formats: decoding (WAV, AIFF, MP3, Ogg Vorbis), resampling
//     and mixing
//
// # Quick Start
//
// Live playback through the sound card:
//
//	eng := beepengine.New(&beepengine.Speaker{})
//	p, err := player.NewFilePlayer(eng)
//	if err != nil {
//	    log.Fatal(err) // wraps engine.ErrEngineUnavailable
//	}
//	p.SetPreset(playback.LowLatency)
//	_ = p.Play("song.ogg")
//	_ = p.AddEffect(fx.Freeverb, 0)
//
// Offline rendering to a WAV file:
//
//	src, _ := formats.Open("voice.wav")
//	out, _ := os.Create("voice-echo.wav")
//	defer out.Close()
//	frames, err := audfx.Render(src, out, audfx.RenderOptions{
//	    Effects: []fx.Type{fx.Echo},
//	    Tail:    time.Second,
//	})
package audfx
