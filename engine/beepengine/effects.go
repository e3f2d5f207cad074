// SPDX-License-Identifier: EPL-2.0

package beepengine

import (
	"fmt"
	"slices"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/ik5/audfx/engine"
	"github.com/ik5/audfx/fx"
)

// processor transforms a block of stereo frames in place.
type processor interface {
	Process(samples [][2]float64)
}

type node struct {
	handle   fx.Handle
	typ      fx.Type
	priority int
	proc     processor
}

// chain runs the stream through its effects, highest priority first.
type chain struct {
	src   beep.Streamer
	nodes []node
}

func (c *chain) Stream(samples [][2]float64) (int, bool) {
	n, ok := c.src.Stream(samples)
	for _, nd := range c.nodes {
		nd.proc.Process(samples[:n])
	}
	return n, ok
}

func (c *chain) Err() error { return c.src.Err() }

func (c *chain) insert(nd node) {
	i, _ := slices.BinarySearchFunc(c.nodes, nd.priority, func(x node, p int) int {
		// descending priority, equal priorities keep insertion order
		if x.priority >= p {
			return -1
		}
		return 1
	})
	c.nodes = slices.Insert(c.nodes, i, nd)
}

func (c *chain) remove(h fx.Handle) bool {
	i := slices.IndexFunc(c.nodes, func(x node) bool { return x.handle == h })
	if i < 0 {
		return false
	}
	c.nodes = slices.Delete(c.nodes, i, i+1)
	return true
}

// Effects lists the effect types attached to stream h in processing order.
func (e *Engine) Effects(h engine.StreamHandle) ([]fx.Type, error) {
	var types []fx.Type
	err := e.withVoice(h, func(v *voice) error {
		for _, nd := range v.chain.nodes {
			types = append(types, nd.typ)
		}
		return nil
	})
	return types, err
}

func (e *Engine) CreateEffect(h engine.StreamHandle, t fx.Type, priority int) (fx.Handle, error) {
	if !t.Valid() {
		return fx.None, fmt.Errorf("%w: %v", fx.ErrInvalidArgument, t)
	}

	proc, err := newProcessor(t, e.rate)
	if err != nil {
		return fx.None, err
	}

	var fxh fx.Handle
	err = e.withVoice(h, func(v *voice) error {
		e.lastEffect++
		fxh = e.lastEffect
		v.chain.insert(node{handle: fxh, typ: t, priority: priority, proc: proc})
		return nil
	})
	if err != nil {
		return fx.None, err
	}
	return fxh, nil
}

func (e *Engine) RemoveEffect(h engine.StreamHandle, fxh fx.Handle) error {
	return e.withVoice(h, func(v *voice) error {
		if !v.chain.remove(fxh) {
			return fmt.Errorf("%w: %d on stream %d", engine.ErrUnknownEffect, fxh, h)
		}
		return nil
	})
}

// newProcessor builds the default instance of an effect type.
func newProcessor(t fx.Type, sr beep.SampleRate) (processor, error) {
	rate := float64(sr)

	switch t {
	case fx.Volume:
		return wrap(func(s beep.Streamer) beep.Streamer {
			return &effects.Volume{Streamer: s, Base: 2, Volume: -1}
		}), nil
	case fx.Rotate:
		return newRotate(rate, 0.25), nil
	case fx.Mix:
		return wrap(func(s beep.Streamer) beep.Streamer {
			return effects.Mono(s)
		}), nil
	case fx.PeakEQ, fx.DXParamEQ:
		return newEqualizer(sr, effects.MonoEqualizerSections{
			{F0: 1000, Bf: 500, GB: 3, G0: 0, G: 6},
		}), nil
	case fx.BQF:
		return newEqualizer(sr, effects.MonoEqualizerSections{
			{F0: 8000, Bf: 6000, GB: -6, G0: 0, G: -12},
		}), nil
	case fx.Echo, fx.DXEcho:
		return newEcho(rate, 300*time.Millisecond, 0.4, 0.5), nil
	case fx.Chorus, fx.DXChorus:
		return newModDelay(rate, modParams{base: 15, depth: 5, hz: 1.1, feedback: 0.1, mix: 0.5}), nil
	case fx.DXFlanger:
		return newModDelay(rate, modParams{base: 2, depth: 2, hz: 0.25, feedback: 0.5, mix: 0.5}), nil
	case fx.Phaser:
		return newModDelay(rate, modParams{base: 1, depth: 0.8, hz: 0.5, feedback: 0.6, mix: 0.5}), nil
	case fx.Distortion, fx.DXDistortion:
		return &softClip{drive: 4}, nil
	case fx.DXGargle:
		return newGargle(rate, 20), nil
	case fx.DXCompressor:
		return newCompressor(rate, compParams{threshold: -20, ratio: 4, attack: 10, release: 200}), nil
	case fx.Damp:
		return newCompressor(rate, compParams{threshold: -30, ratio: 3, attack: 5, release: 300, makeup: 9}), nil
	case fx.DXReverb, fx.DXI3DL2Reverb, fx.Freeverb:
		return newFreeverb(rate), nil
	case fx.VolumeEnvelope:
		return newFadeIn(rate, time.Second), nil
	default:
		return nil, fmt.Errorf("%w: %v", engine.ErrUnsupportedEffect, t)
	}
}

// feed hands a block that is already in place to a wrapped beep effect.
type feed struct {
	block [][2]float64
}

func (f *feed) Stream(samples [][2]float64) (int, bool) {
	return copy(samples, f.block), true
}

func (f *feed) Err() error { return nil }

// wrapped runs one of beep's streaming effects as a processor.
type wrapped struct {
	in  *feed
	out beep.Streamer
}

func wrap(build func(beep.Streamer) beep.Streamer) *wrapped {
	in := &feed{}
	return &wrapped{in: in, out: build(in)}
}

func (w *wrapped) Process(samples [][2]float64) {
	w.in.block = samples
	w.out.Stream(samples)
}

func newEqualizer(sr beep.SampleRate, sections effects.MonoEqualizerSections) *wrapped {
	return wrap(func(s beep.Streamer) beep.Streamer {
		return effects.NewEqualizer(s, sr, sections)
	})
}
