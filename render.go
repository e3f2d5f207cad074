// SPDX-License-Identifier: EPL-2.0

package audfx

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/ik5/audfx/audio"
	"github.com/ik5/audfx/engine"
	"github.com/ik5/audfx/engine/beepengine"
	"github.com/ik5/audfx/fx"
	"github.com/ik5/audfx/player"
	"github.com/ik5/audfx/playback"
)

// RenderOptions controls Render. The zero value renders at
// beepengine.DefaultSampleRate with the Default preset and no effects.
type RenderOptions struct {
	SampleRate int
	Preset     playback.Preset
	// Attributes default to playback.DefaultAttributes when nil.
	Attributes *playback.Attributes
	// Effects are attached in order; earlier ones run first.
	Effects []fx.Type
	// Tail is rendered after the source ends, to let echoes and reverbs
	// ring out.
	Tail time.Duration
	// MaxDuration stops sources that do not end. Zero means no limit.
	MaxDuration time.Duration
	Logger      *log.Logger
}

// Render plays src through a beepengine.Engine with a Render sink and writes
// the result to w as 16-bit stereo WAV. It returns the number of frames
// written. src is closed.
func Render(src audio.Source, w io.WriteSeeker, opts RenderOptions) (int64, error) {
	sink := beepengine.NewRender(w)
	eng := beepengine.New(sink,
		beepengine.WithSampleRate(opts.SampleRate),
		beepengine.WithLogger(opts.Logger),
	)
	playback.ApplyPreset(eng, opts.Preset)

	p, err := player.NewFilePlayer(eng)
	if err != nil {
		_ = src.Close()
		return 0, err
	}

	frames, err := render(eng, sink, p, src, opts)
	if serr := eng.Shutdown(); serr != nil {
		err = errors.Join(err, fmt.Errorf("closing render output: %w", serr))
	}
	return frames, err
}

func render(eng *beepengine.Engine, sink *beepengine.Render, p *player.FilePlayer, src audio.Source, opts RenderOptions) (int64, error) {
	if a := opts.Attributes; a != nil {
		for _, set := range []struct {
			fn func(float64) error
			v  float64
		}{
			{p.SetVolume, a.Volume},
			{p.SetPanning, a.Panning},
			{p.SetSpeed, a.Speed},
			{p.SetPitch, a.Pitch},
		} {
			if err := set.fn(set.v); err != nil {
				_ = src.Close()
				return 0, err
			}
		}
	}

	ended := make(chan struct{}, 1)
	p.OnPlaybackEnded(func() { ended <- struct{}{} })

	if err := p.Play(src); err != nil {
		return 0, err
	}
	for i, t := range opts.Effects {
		if err := p.AddEffect(t, len(opts.Effects)-i); err != nil {
			return 0, fmt.Errorf("adding %v: %w", t, err)
		}
	}

	step := time.Duration(eng.Setting(engine.UpdatePeriod)) * time.Millisecond
	var elapsed time.Duration
	for eng.Playing() > 0 {
		if opts.MaxDuration > 0 && elapsed >= opts.MaxDuration {
			if err := p.Stop(); err != nil {
				return sink.Frames(), err
			}
			break
		}
		if err := sink.Advance(step); err != nil {
			return sink.Frames(), err
		}
		elapsed += step
	}

	// a natural end is reported from an engine goroutine
	if p.GetHandler() != engine.NoStream {
		<-ended
	}

	if opts.Tail > 0 {
		if err := sink.Advance(opts.Tail); err != nil {
			return sink.Frames(), err
		}
	}

	return sink.Frames(), p.Err()
}
