// SPDX-License-Identifier: EPL-2.0

// Package audio provides the PCM plumbing that sits between decoders and an
// engine stream.
//
//   - Source is the pull interface every decoder and processor implements
//   - Registry maps format keys to decoders
//   - Resampler converts the sample rate and can change speed on the fly
//   - Downmixer and Upmixer change the channel count
//   - Mixer sums several sources into one
//
// # Source Interface
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// Samples are interleaved float32 in [-1, 1]. ReadSamples returns io.EOF
// once the stream is finished; any other error is a failure of the source.
//
// # Speed
//
// A Resampler created with NewResampler(src, rate) plays at speed 1. SetSpeed
// changes how many source frames are consumed per output frame:
//
//	r := audio.NewResampler(src, 44100)
//	r.SetSpeed(1.5)
//
// # Mixing
//
// Sources of any rate and channel layout can be added to a Mixer; they are
// conformed on Add:
//
//	m := audio.NewMixer(44100, 2, true)
//	m.Add(voice)
//	m.Add(music)
//
// # Format Registry
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Decoder{})
//	src, err := registry.Decode(".WAV", file)
package audio
