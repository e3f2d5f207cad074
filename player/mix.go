// SPDX-License-Identifier: EPL-2.0

package player

import (
	"fmt"
	"sync"

	"github.com/ik5/audfx/audio"
	"github.com/ik5/audfx/engine"
	"github.com/ik5/audfx/playback"
)

const (
	DefaultMixRate     = 44100
	DefaultMixChannels = 2
)

// MixPlayer sums several sources into a single stream. The stream ends when
// the last source does.
type MixPlayer struct {
	base
	rate     int
	channels int

	mu    sync.Mutex
	mixer *audio.Mixer
}

var _ playback.Controller = (*MixPlayer)(nil)

type MixOption func(*MixPlayer)

// WithMixFormat sets the rate and channel count sources are conformed to
// before mixing.
func WithMixFormat(rate, channels int) MixOption {
	return func(p *MixPlayer) {
		if rate > 0 {
			p.rate = rate
		}
		if channels > 0 {
			p.channels = channels
		}
	}
}

func NewMixPlayer(eng engine.Engine, opts ...MixOption) (*MixPlayer, error) {
	b, err := newBase(eng)
	if err != nil {
		return nil, err
	}

	p := &MixPlayer{base: b, rate: DefaultMixRate, channels: DefaultMixChannels}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Play starts a mix of source, an audio.Source or a []audio.Source. With a
// nil source it resumes a paused player.
func (p *MixPlayer) Play(source any) error {
	if handled, err := p.admit(source); handled {
		return err
	}

	var sources []audio.Source
	switch s := source.(type) {
	case nil:
		return ErrNoSource
	case audio.Source:
		sources = []audio.Source{s}
	case []audio.Source:
		sources = s
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedSource, source)
	}
	if len(sources) == 0 {
		return ErrNoSource
	}

	m := audio.NewMixer(p.rate, p.channels, true)
	for _, src := range sources {
		if err := m.Add(src); err != nil {
			_ = m.Close()
			return err
		}
	}

	if err := p.restart(m); err != nil {
		return err
	}

	p.mu.Lock()
	p.mixer = m
	p.mu.Unlock()
	return nil
}

// Add mixes src into the running stream from its current position.
func (p *MixPlayer) Add(src audio.Source) error {
	if p.State() == playback.Stopped {
		return fmt.Errorf("%w: nothing playing", playback.ErrInvalidOperation)
	}

	p.mu.Lock()
	m := p.mixer
	p.mu.Unlock()

	if m == nil {
		return fmt.Errorf("%w: nothing playing", playback.ErrInvalidOperation)
	}
	return m.Add(src)
}

// Len reports how many sources are still mixed in.
func (p *MixPlayer) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.mixer == nil || p.State() == playback.Stopped {
		return 0
	}
	return p.mixer.Len()
}
