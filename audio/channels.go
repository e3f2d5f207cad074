// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// Downmixer folds every channel of src into one by averaging.
type Downmixer struct {
	src Source
	tmp []float32
}

func NewDownmixer(src Source) *Downmixer {
	return &Downmixer{
		src: src,
		tmp: make([]float32, 8192),
	}
}

func (m *Downmixer) SampleRate() int { return m.src.SampleRate() }
func (m *Downmixer) Channels() int   { return 1 }
func (m *Downmixer) BufSize() int    { return m.src.BufSize() / max(m.src.Channels(), 1) }
func (m *Downmixer) Close() error {
	if err := m.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// ReadSamples fills dst with mono frames; one value per source frame.
func (m *Downmixer) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	channels := m.src.Channels()
	if channels == 1 {
		return m.src.ReadSamples(dst)
	}

	need := len(dst) * channels
	if cap(m.tmp) < need {
		m.tmp = make([]float32, need)
	}
	m.tmp = m.tmp[:need]

	n, err := m.src.ReadSamples(m.tmp)
	frames := n / channels

	scale := 1 / float32(channels)
	if channels == 2 {
		for f := range frames {
			dst[f] = (m.tmp[2*f] + m.tmp[2*f+1]) * 0.5
		}
		return frames, err
	}

	for f := range frames {
		var sum float32
		for _, v := range m.tmp[f*channels : (f+1)*channels] {
			sum += v
		}
		dst[f] = sum * scale
	}

	return frames, err
}

// Upmixer copies a mono source into every channel of its output.
type Upmixer struct {
	src      Source
	channels int
	tmp      []float32
}

// NewUpmixer spreads src over channels. src must be mono; anything else is
// downmixed first.
func NewUpmixer(src Source, channels int) *Upmixer {
	if src.Channels() != 1 {
		src = NewDownmixer(src)
	}
	return &Upmixer{
		src:      src,
		channels: channels,
		tmp:      make([]float32, 4096),
	}
}

func (m *Upmixer) SampleRate() int { return m.src.SampleRate() }
func (m *Upmixer) Channels() int   { return m.channels }
func (m *Upmixer) BufSize() int    { return m.src.BufSize() * m.channels }
func (m *Upmixer) Close() error {
	if err := m.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (m *Upmixer) ReadSamples(dst []float32) (int, error) {
	if len(dst)%m.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	frames := len(dst) / m.channels
	if cap(m.tmp) < frames {
		m.tmp = make([]float32, frames)
	}
	m.tmp = m.tmp[:frames]

	n, err := m.src.ReadSamples(m.tmp)
	for f, v := range m.tmp[:n] {
		for c := range m.channels {
			dst[f*m.channels+c] = v
		}
	}

	return n * m.channels, err
}

// Conform adapts src to the given rate and channel count, wrapping it only
// where it differs.
func Conform(src Source, rate, channels int) Source {
	if src.SampleRate() != rate {
		src = NewResampler(src, rate)
	}

	switch {
	case src.Channels() == channels:
	case channels == 1:
		src = NewDownmixer(src)
	default:
		src = NewUpmixer(src, channels)
	}

	return src
}
